package visit

import "errors"

// Common errors
var (
	ErrOwnerVisit        = errors.New("owner cannot book a visit to their own listing")
	ErrUnauthorized      = errors.New("not authorized to modify this visit")
	ErrIllegalTransition = errors.New("illegal visit status transition")
)

// CanCreate reports whether a new visit may be requested. Owners do not
// book visits to their own listing.
func CanCreate(requesterIsOwner bool) bool {
	return !requesterIsOwner
}

// InitialStatus is the status assigned to a freshly created visit.
func InitialStatus() Status {
	return StatusPending
}

// CancelationStatus is the status meaning "canceled"; visits carrying it
// are excluded from future-visit conflict checks.
func CancelationStatus() Status {
	return StatusCanceled
}

// CanModify reports whether actorID may change the visit. Only the
// apartment owner and the original requester may act on it.
func CanModify(ownerID, requesterID, actorID string) bool {
	return actorID == ownerID || actorID == requesterID
}

// IsValidTransition reports whether moving a visit from current to target
// is legal for the actor's role. The matrix is role-asymmetric: the owner
// answers pending requests and may reverse a live decision, the requester
// cancels or re-opens a decided visit. CANCELED is terminal for everyone.
// A no-op transition (current == target) is legal, so an authorized actor
// can reschedule without a status change.
func IsValidTransition(current, target Status, actorIsOwner bool) bool {
	if !IsSupportedStatus(current) || !IsSupportedStatus(target) {
		return false
	}
	if current == StatusCanceled {
		return false
	}
	if current == target {
		return true
	}
	if actorIsOwner {
		switch current {
		case StatusPending:
			return target == StatusAccepted || target == StatusDeclined
		case StatusAccepted:
			return target == StatusDeclined
		case StatusDeclined:
			return target == StatusAccepted
		}
		return false
	}
	switch target {
	case StatusCanceled:
		return true
	case StatusPending:
		// rescheduling a decided visit re-opens owner approval
		return current == StatusAccepted || current == StatusDeclined
	}
	return false
}
