package group

// MemberStatus represents a member's answer to a group invitation
type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "PENDING"
	MemberStatusAccepted MemberStatus = "ACCEPTED"
	MemberStatusDeclined MemberStatus = "DECLINED"
)

// IsSupportedStatus reports whether s is one of the known member statuses
func IsSupportedStatus(s MemberStatus) bool {
	switch s {
	case MemberStatusPending, MemberStatusAccepted, MemberStatusDeclined:
		return true
	}
	return false
}

// Member is a candidate roommate inside a group
type Member struct {
	UserID string       `json:"user_id"`
	Status MemberStatus `json:"status"`
}

// Group is a set of candidate roommates negotiating over one apartment.
// A signed group is terminal: no further member changes are allowed.
type Group struct {
	ID       string   `json:"id"`
	Members  []Member `json:"members"`
	Signed   bool     `json:"signed"`
	SignedAt int64    `json:"signed_at,omitempty"` // epoch ms, 0 until signed
}
