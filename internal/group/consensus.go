package group

import "errors"

// Common errors
var (
	ErrMemberNotFound = errors.New("group member not found")
	ErrGroupSigned    = errors.New("group is already signed")
	ErrSignFailed     = errors.New("group cannot be signed")
	ErrInvalidSigner  = errors.New("group must be signed by the apartment owner")
)

// New creates a group with the given id and members, all starting at
// PENDING. The caller is responsible for validating the member selection.
func New(id string, memberIDs []string) Group {
	members := make([]Member, len(memberIDs))
	for i, userID := range memberIDs {
		members[i] = Member{UserID: userID, Status: MemberStatusPending}
	}
	return Group{ID: id, Members: members}
}

// MemberIndex returns the index of the member with the given user id,
// or -1 if the user is not a member of the group.
func MemberIndex(g Group, userID string) int {
	for i, m := range g.Members {
		if m.UserID == userID {
			return i
		}
	}
	return -1
}

// HasMember reports whether the user is a member of the group.
func HasMember(g Group, userID string) bool {
	return MemberIndex(g, userID) >= 0
}

// CanSign reports whether signerID may finalize the group: the signer must
// be the apartment owner, the group must not already be signed, and every
// member must have accepted.
func CanSign(g Group, signerID, ownerID string) bool {
	if signerID != ownerID || g.Signed {
		return false
	}
	return allAccepted(g)
}

// Sign returns a signed copy of the group. It fails with ErrInvalidSigner
// if signerID is not the apartment owner, and with ErrSignFailed if the
// group is already signed or consensus has not been reached.
func Sign(g Group, signerID, ownerID string, signedAt int64) (Group, error) {
	if signerID != ownerID {
		return g, ErrInvalidSigner
	}
	if g.Signed || !allAccepted(g) {
		return g, ErrSignFailed
	}
	g.Members = cloneMembers(g.Members)
	g.Signed = true
	g.SignedAt = signedAt
	return g, nil
}

// SetMemberStatus returns a copy of the group with the member's status
// replaced. It fails with ErrGroupSigned if the group is terminal and with
// ErrMemberNotFound if the user is not a member.
func SetMemberStatus(g Group, userID string, status MemberStatus) (Group, error) {
	if g.Signed {
		return g, ErrGroupSigned
	}
	i := MemberIndex(g, userID)
	if i < 0 {
		return g, ErrMemberNotFound
	}
	g.Members = cloneMembers(g.Members)
	g.Members[i].Status = status
	return g, nil
}

func allAccepted(g Group) bool {
	for _, m := range g.Members {
		if m.Status != MemberStatusAccepted {
			return false
		}
	}
	return true
}

func cloneMembers(members []Member) []Member {
	out := make([]Member, len(members))
	copy(out, members)
	return out
}
