package apartment

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roomatch/roomatch/internal/group"
	"github.com/roomatch/roomatch/pkg/ident"
)

// memStore is an in-memory aggregate store for tests. Documents are kept
// as JSON so loads return independent snapshots, like the real store.
// failSaves makes the next N saves report a concurrent modification.
type memStore struct {
	docs      map[string][]byte
	versions  map[string]int64
	failSaves int
	saves     int
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string][]byte), versions: make(map[string]int64)}
}

func (s *memStore) Create(ctx context.Context, a *Apartment) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return err
	}
	s.docs[a.ID] = doc
	s.versions[a.ID] = 1
	a.Version = 1
	return nil
}

func (s *memStore) Load(ctx context.Context, id string) (*Apartment, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrApartmentNotFound
	}
	a := &Apartment{}
	if err := json.Unmarshal(doc, a); err != nil {
		return nil, err
	}
	a.Version = s.versions[id]
	return a, nil
}

func (s *memStore) Save(ctx context.Context, a *Apartment, expectedVersion int64) (int64, error) {
	s.saves++
	current, ok := s.versions[a.ID]
	if !ok {
		return 0, ErrApartmentNotFound
	}
	if s.failSaves > 0 {
		s.failSaves--
		// a concurrent writer got there first
		s.versions[a.ID] = current + 1
		return 0, ErrVersionConflict
	}
	if current != expectedVersion {
		return 0, ErrVersionConflict
	}
	doc, err := json.Marshal(a)
	if err != nil {
		return 0, err
	}
	s.docs[a.ID] = doc
	s.versions[a.ID] = current + 1
	a.Version = current + 1
	return a.Version, nil
}

func (s *memStore) List(ctx context.Context, f Filter) ([]*Apartment, error) {
	var out []*Apartment
	for id := range s.docs {
		a, err := s.Load(context.Background(), id)
		if err != nil {
			return nil, err
		}
		if f.OwnerID != "" && a.OwnerID != f.OwnerID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func validCreateRequest() *CreateApartmentRequest {
	return &CreateApartmentRequest{
		Price:             4200,
		EntranceDate:      1_700_000_000_000,
		Address:           Address{State: "ny", City: "new york", Street: "bedford", Number: 12},
		RequiredRoommates: 2,
	}
}

func TestServiceCreate(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := NewServiceWithClock(store, fixedClock(5000))
	owner := ident.New()

	t.Run("persists a valid listing", func(t *testing.T) {
		a, err := svc.Create(context.Background(), owner, validCreateRequest())
		require.NoError(t, err)
		require.Equal(t, owner, a.OwnerID)
		require.Equal(t, int64(5000), a.CreatedAt)
		require.Equal(t, int64(1), a.Version)

		loaded, err := svc.GetByID(context.Background(), a.ID)
		require.NoError(t, err)
		require.Equal(t, a.ID, loaded.ID)
	})

	t.Run("rejects invalid fields", func(t *testing.T) {
		req := validCreateRequest()
		req.RequiredRoommates = 0

		_, err := svc.Create(context.Background(), owner, req)
		require.ErrorIs(t, err, ErrInvalidListing)
	})

	t.Run("rejects unsupported tag", func(t *testing.T) {
		req := validCreateRequest()
		req.Tags = []int{999}

		_, err := svc.Create(context.Background(), owner, req)
		require.ErrorIs(t, err, ErrInvalidListing)
	})
}

func TestServiceUpdateCycle(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := NewServiceWithClock(store, fixedClock(5000))
	owner := ident.New()

	created, err := svc.Create(context.Background(), owner, validCreateRequest())
	require.NoError(t, err)

	u := ident.New()
	a, err := svc.AddInterested(context.Background(), created.ID, u)
	require.NoError(t, err)
	require.Equal(t, []string{u}, a.Interested)
	require.Equal(t, int64(2), a.Version)

	// the write is visible to subsequent loads
	loaded, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, []string{u}, loaded.Interested)
}

func TestServiceConflictRetry(t *testing.T) {
	t.Parallel()

	t.Run("a stale write is retried against a fresh snapshot", func(t *testing.T) {
		store := newMemStore()
		svc := NewServiceWithClock(store, fixedClock(5000))

		created, err := svc.Create(context.Background(), ident.New(), validCreateRequest())
		require.NoError(t, err)

		store.failSaves = 2
		u := ident.New()
		a, err := svc.AddInterested(context.Background(), created.ID, u)
		require.NoError(t, err)
		require.Equal(t, []string{u}, a.Interested)
		require.Equal(t, 3, store.saves)
	})

	t.Run("persistent conflict is surfaced to the caller", func(t *testing.T) {
		store := newMemStore()
		svc := NewServiceWithClock(store, fixedClock(5000))

		created, err := svc.Create(context.Background(), ident.New(), validCreateRequest())
		require.NoError(t, err)

		store.failSaves = 10
		_, err = svc.AddInterested(context.Background(), created.ID, ident.New())
		require.ErrorIs(t, err, ErrVersionConflict)
	})
}

func TestServiceValidationFailureDoesNotPersist(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := NewServiceWithClock(store, fixedClock(5000))

	created, err := svc.Create(context.Background(), ident.New(), validCreateRequest())
	require.NoError(t, err)
	savesBefore := store.saves

	_, err = svc.CreateGroup(context.Background(), created.ID, &CreateGroupRequest{})
	require.ErrorIs(t, err, ErrGroupCreationFailed)
	require.Equal(t, savesBefore, store.saves)

	loaded, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Empty(t, loaded.Groups)
}

func TestServiceGroupFlow(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := NewServiceWithClock(store, fixedClock(9000))
	ctx := context.Background()
	owner := ident.New()

	created, err := svc.Create(ctx, owner, validCreateRequest())
	require.NoError(t, err)

	uA, uB := ident.New(), ident.New()
	_, err = svc.AddInterested(ctx, created.ID, uA)
	require.NoError(t, err)
	_, err = svc.AddInterested(ctx, created.ID, uB)
	require.NoError(t, err)

	a, err := svc.CreateGroup(ctx, created.ID, &CreateGroupRequest{Anchor: uA})
	require.NoError(t, err)
	require.Len(t, a.Groups, 1)
	groupID := a.Groups[0].ID

	_, err = svc.UpdateMemberStatus(ctx, created.ID, groupID, uA, group.MemberStatusAccepted)
	require.NoError(t, err)
	_, err = svc.UpdateMemberStatus(ctx, created.ID, groupID, uB, group.MemberStatusAccepted)
	require.NoError(t, err)

	a, err = svc.SignGroup(ctx, created.ID, groupID, owner)
	require.NoError(t, err)
	require.True(t, a.Groups[0].Signed)
	require.Equal(t, int64(9000), a.Groups[0].SignedAt)

	// withdrawal cascades the signed group away
	a, err = svc.RemoveInterested(ctx, created.ID, uA)
	require.NoError(t, err)
	require.Empty(t, a.Groups)
	require.Equal(t, []string{uB}, a.Interested)
}

func TestServiceVisitFlow(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := NewServiceWithClock(store, fixedClock(10_000))
	ctx := context.Background()
	owner := ident.New()

	created, err := svc.Create(ctx, owner, validCreateRequest())
	require.NoError(t, err)

	u := ident.New()
	a, err := svc.AddVisit(ctx, created.ID, u, 20_000)
	require.NoError(t, err)
	require.Len(t, a.Visits, 1)
	require.Equal(t, int64(10_000), a.Visits[0].CreatedAt)

	_, err = svc.AddVisit(ctx, created.ID, u, 30_000)
	require.ErrorIs(t, err, ErrVisitConflict)

	_, err = svc.AddVisit(ctx, created.ID, owner, 30_000)
	require.Error(t, err)
}

func TestServiceUnknownApartment(t *testing.T) {
	t.Parallel()

	svc := NewServiceWithClock(newMemStore(), fixedClock(1))

	_, err := svc.GetByID(context.Background(), ident.New())
	require.ErrorIs(t, err, ErrApartmentNotFound)

	_, err = svc.AddInterested(context.Background(), ident.New(), ident.New())
	require.ErrorIs(t, err, ErrApartmentNotFound)
}
