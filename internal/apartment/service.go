package apartment

import (
	"context"
	"errors"
	"time"

	"github.com/roomatch/roomatch/internal/group"
	"github.com/roomatch/roomatch/internal/visit"
	"github.com/roomatch/roomatch/pkg/ident"
)

// saveAttempts bounds the reload-and-retry cycles on a stale write before
// the conflict is reported to the caller.
const saveAttempts = 3

// Service handles apartment business logic. Every mutation is computed
// against a freshly loaded snapshot and committed as one atomic rewrite.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new apartment service
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// NewServiceWithClock creates a service with a fixed clock, for tests
func NewServiceWithClock(store Store, now func() time.Time) *Service {
	return &Service{store: store, now: now}
}

func (s *Service) nowMillis() int64 {
	return s.now().UnixMilli()
}

// Create validates and persists a new listing
func (s *Service) Create(ctx context.Context, ownerID string, req *CreateApartmentRequest) (*Apartment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a := &Apartment{
		ID:                ident.New(),
		OwnerID:           ownerID,
		CreatedAt:         s.nowMillis(),
		Price:             req.Price,
		EntranceDate:      req.EntranceDate,
		Address:           req.Address,
		NumberOfRooms:     req.NumberOfRooms,
		Floor:             req.Floor,
		TotalFloors:       req.TotalFloors,
		Area:              req.Area,
		Description:       req.Description,
		Tags:              req.Tags,
		Images:            req.Images,
		RequiredRoommates: req.RequiredRoommates,
		TotalRoommates:    req.TotalRoommates,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an apartment by its ID
func (s *Service) GetByID(ctx context.Context, id string) (*Apartment, error) {
	return s.store.Load(ctx, id)
}

// List retrieves apartments matching the filter
func (s *Service) List(ctx context.Context, f Filter) ([]*Apartment, error) {
	return s.store.List(ctx, f)
}

// AddInterested marks userID as interested in the apartment
func (s *Service) AddInterested(ctx context.Context, apartmentID, userID string) (*Apartment, error) {
	return s.update(ctx, apartmentID, func(a *Apartment) error {
		a.AddInterestedUser(userID)
		return nil
	})
}

// RemoveInterested withdraws userID's interest, cascading away any group
// the user belongs to.
func (s *Service) RemoveInterested(ctx context.Context, apartmentID, userID string) (*Apartment, error) {
	return s.update(ctx, apartmentID, func(a *Apartment) error {
		a.RemoveInterestedUser(userID)
		return nil
	})
}

// CreateGroup forms a new roommate group, either from an explicit member
// selection or from the anchor-based default matching rule.
func (s *Service) CreateGroup(ctx context.Context, apartmentID string, req *CreateGroupRequest) (*Apartment, error) {
	return s.update(ctx, apartmentID, func(a *Apartment) error {
		var err error
		switch {
		case len(req.Members) > 0 && req.Anchor == "":
			_, err = a.CreateGroup(req.Members)
		case len(req.Members) == 0 && req.Anchor != "":
			_, err = a.CreateGroupByAnchor(req.Anchor)
		default:
			err = ErrGroupCreationFailed
		}
		return err
	})
}

// UpdateMemberStatus records memberID's answer on a group invitation
func (s *Service) UpdateMemberStatus(ctx context.Context, apartmentID, groupID, memberID string, status group.MemberStatus) (*Apartment, error) {
	return s.update(ctx, apartmentID, func(a *Apartment) error {
		return a.UpdateMemberStatus(groupID, memberID, status)
	})
}

// SignGroup finalizes a fully accepted group. Owner only.
func (s *Service) SignGroup(ctx context.Context, apartmentID, groupID, signerID string) (*Apartment, error) {
	return s.update(ctx, apartmentID, func(a *Apartment) error {
		return a.SignGroup(groupID, signerID, s.nowMillis())
	})
}

// AddVisit books a visit request for requesterID
func (s *Service) AddVisit(ctx context.Context, apartmentID, requesterID string, scheduledTo int64) (*Apartment, error) {
	return s.update(ctx, apartmentID, func(a *Apartment) error {
		_, err := a.AddVisit(requesterID, scheduledTo, s.nowMillis())
		return err
	})
}

// UpdateVisit moves a visit to a new status and schedule
func (s *Service) UpdateVisit(ctx context.Context, apartmentID, visitID, actorID string, target visit.Status, scheduledTo int64) (*Apartment, error) {
	return s.update(ctx, apartmentID, func(a *Apartment) error {
		return a.UpdateVisit(visitID, actorID, target, scheduledTo, s.nowMillis())
	})
}

// AddComment posts a comment on the listing
func (s *Service) AddComment(ctx context.Context, apartmentID, authorID, text string) (*Apartment, error) {
	return s.update(ctx, apartmentID, func(a *Apartment) error {
		return a.AddComment(authorID, text, s.nowMillis())
	})
}

// Subscribe adds userID to the listing's notification subscribers
func (s *Service) Subscribe(ctx context.Context, apartmentID, userID string) (*Apartment, error) {
	return s.update(ctx, apartmentID, func(a *Apartment) error {
		a.Subscribe(userID)
		return nil
	})
}

// Unsubscribe removes userID from the listing's notification subscribers
func (s *Service) Unsubscribe(ctx context.Context, apartmentID, userID string) (*Apartment, error) {
	return s.update(ctx, apartmentID, func(a *Apartment) error {
		a.Unsubscribe(userID)
		return nil
	})
}

// update runs one load-decide-save cycle. The aggregate itself never
// retries; this layer re-runs the whole cycle on a stale write, up to
// saveAttempts times, and then surfaces ErrVersionConflict.
func (s *Service) update(ctx context.Context, apartmentID string, mutate func(a *Apartment) error) (*Apartment, error) {
	var lastErr error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		a, err := s.store.Load(ctx, apartmentID)
		if err != nil {
			return nil, err
		}
		if err := mutate(a); err != nil {
			return nil, err
		}
		if _, err := s.store.Save(ctx, a, a.Version); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return a, nil
	}
	return nil, lastErr
}
