package apartment

import (
	"errors"

	"github.com/roomatch/roomatch/internal/group"
	"github.com/roomatch/roomatch/internal/visit"
	"github.com/roomatch/roomatch/pkg/ident"
)

// Common errors
var (
	ErrGroupNotFound       = errors.New("group not found")
	ErrGroupCreationFailed = errors.New("could not create a group for the apartment")
	ErrUnsupportedStatus   = errors.New("unsupported status value")
	ErrVisitNotFound       = errors.New("visit not found")
	ErrVisitConflict       = errors.New("a future visit is already planned for this user")
	ErrSchedulePast        = errors.New("visit must be scheduled to a future date")
	ErrInvalidComment      = errors.New("comment text must be between 1 and 1000 characters")
)

// All mutations below operate on the in-memory snapshot only. Validation
// happens before any field is touched, so a failed operation leaves the
// aggregate exactly as loaded and nothing partial ever reaches the store.

// AddInterestedUser appends userID to the interested list. Re-adding an
// already interested user is a no-op.
func (a *Apartment) AddInterestedUser(userID string) {
	if a.IsUserInterested(userID) {
		return
	}
	a.Interested = append(a.Interested, userID)
}

// RemoveInterestedUser removes userID from the interested list and deletes
// every group the user is a member of, signed or not: withdrawing interest
// invalidates any negotiation involving that user. Removing an unknown
// user is a no-op.
func (a *Apartment) RemoveInterestedUser(userID string) {
	if i := indexOf(a.Interested, userID); i >= 0 {
		a.Interested = append(a.Interested[:i], a.Interested[i+1:]...)
	}

	kept := a.Groups[:0]
	for _, g := range a.Groups {
		if !group.HasMember(g, userID) {
			kept = append(kept, g)
		}
	}
	a.Groups = kept
}

// CreateGroup creates a group from an explicit ordered member selection.
// The list must contain exactly RequiredRoommates distinct well-formed ids.
func (a *Apartment) CreateGroup(memberIDs []string) (group.Group, error) {
	if len(memberIDs) != a.RequiredRoommates {
		return group.Group{}, ErrGroupCreationFailed
	}
	seen := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		if !ident.IsValid(id) {
			return group.Group{}, ErrGroupCreationFailed
		}
		if _, dup := seen[id]; dup {
			return group.Group{}, ErrGroupCreationFailed
		}
		seen[id] = struct{}{}
	}
	g := group.New(ident.New(), memberIDs)
	a.Groups = append(a.Groups, g)
	return g, nil
}

// CreateGroupByAnchor creates a group from the default matching rule: the
// candidates are the first RequiredRoommates entries of the interested
// list, with the anchor forced into position 0, displacing whoever was
// there. The anchor is not required to be on the interested list and is
// not deduplicated against the remaining candidates.
func (a *Apartment) CreateGroupByAnchor(anchorID string) (group.Group, error) {
	if !ident.IsValid(anchorID) {
		return group.Group{}, ErrGroupCreationFailed
	}
	if len(a.Interested) < a.RequiredRoommates {
		return group.Group{}, ErrGroupCreationFailed
	}
	memberIDs := make([]string, a.RequiredRoommates)
	copy(memberIDs, a.Interested[:a.RequiredRoommates])
	memberIDs[0] = anchorID

	g := group.New(ident.New(), memberIDs)
	a.Groups = append(a.Groups, g)
	return g, nil
}

// UpdateMemberStatus records a member's answer on a group invitation.
func (a *Apartment) UpdateMemberStatus(groupID, memberID string, status group.MemberStatus) error {
	if !group.IsSupportedStatus(status) {
		return ErrUnsupportedStatus
	}
	i := a.GroupIndex(groupID)
	if i < 0 {
		return ErrGroupNotFound
	}
	updated, err := group.SetMemberStatus(a.Groups[i], memberID, status)
	if err != nil {
		return err
	}
	a.Groups[i] = updated
	return nil
}

// SignGroup finalizes a group once every member has accepted. Only the
// apartment owner may sign.
func (a *Apartment) SignGroup(groupID, signerID string, signedAt int64) error {
	i := a.GroupIndex(groupID)
	if i < 0 {
		return ErrGroupNotFound
	}
	signed, err := group.Sign(a.Groups[i], signerID, a.OwnerID, signedAt)
	if err != nil {
		return err
	}
	a.Groups[i] = signed
	return nil
}

// AddVisit books a new visit request for requesterID. A user may hold at
// most one future non-canceled visit per apartment, and the owner may not
// book a visit to their own listing.
func (a *Apartment) AddVisit(requesterID string, scheduledTo, now int64) (visit.Visit, error) {
	if a.IsFutureVisitPlanned(requesterID, now) {
		return visit.Visit{}, ErrVisitConflict
	}
	if !visit.CanCreate(a.IsOwner(requesterID)) {
		return visit.Visit{}, visit.ErrOwnerVisit
	}
	if scheduledTo <= now {
		return visit.Visit{}, ErrSchedulePast
	}
	v := visit.Visit{
		ID:          ident.New(),
		RequesterID: requesterID,
		CreatedAt:   now,
		ScheduledTo: scheduledTo,
		Status:      visit.InitialStatus(),
	}
	a.Visits = append(a.Visits, v)
	return v, nil
}

// UpdateVisit moves a visit to targetStatus and newScheduledTo, both or
// neither. Only the apartment owner or the original requester may act, and
// the status change must be legal for the actor's role. A change that
// would leave the requester holding two live future visits (for example
// rescheduling an expired visit back into the future after booking a new
// one) is rejected, keeping the one-future-visit rule intact on every
// change, not just at creation.
func (a *Apartment) UpdateVisit(visitID, actorID string, targetStatus visit.Status, newScheduledTo, now int64) error {
	i := a.VisitIndex(visitID)
	if i < 0 {
		return ErrVisitNotFound
	}
	v := a.Visits[i]
	if !visit.CanModify(a.OwnerID, v.RequesterID, actorID) {
		return visit.ErrUnauthorized
	}
	if !visit.IsValidTransition(v.Status, targetStatus, a.IsOwner(actorID)) {
		return visit.ErrIllegalTransition
	}
	if targetStatus != visit.CancelationStatus() && newScheduledTo > now &&
		a.hasOtherFutureVisit(v.RequesterID, visitID, now) {
		return ErrVisitConflict
	}
	a.Visits[i].Status = targetStatus
	a.Visits[i].ScheduledTo = newScheduledTo
	return nil
}

// hasOtherFutureVisit reports whether userID holds a non-canceled visit
// other than excludeID scheduled strictly after asOf.
func (a *Apartment) hasOtherFutureVisit(userID, excludeID string, asOf int64) bool {
	for _, v := range a.Visits {
		if v.ID != excludeID && v.RequesterID == userID &&
			v.Status != visit.CancelationStatus() &&
			v.ScheduledTo > asOf {
			return true
		}
	}
	return false
}

// AddComment prepends a comment so the newest appears first.
func (a *Apartment) AddComment(authorID, text string, now int64) error {
	if len(text) < 1 || len(text) > 1000 {
		return ErrInvalidComment
	}
	a.Comments = append([]Comment{{AuthorID: authorID, CreatedAt: now, Text: text}}, a.Comments...)
	return nil
}

// Subscribe adds userID to the listing's notification subscribers.
// Idempotent.
func (a *Apartment) Subscribe(userID string) {
	if a.IsSubscriber(userID) {
		return
	}
	a.Subscribers = append(a.Subscribers, userID)
}

// Unsubscribe removes userID from the listing's notification subscribers.
// Idempotent.
func (a *Apartment) Unsubscribe(userID string) {
	if i := indexOf(a.Subscribers, userID); i >= 0 {
		a.Subscribers = append(a.Subscribers[:i], a.Subscribers[i+1:]...)
	}
}
