package apartment

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roomatch/roomatch/internal/group"
	"github.com/roomatch/roomatch/internal/visit"
	"github.com/roomatch/roomatch/pkg/ident"
)

func newListing(t *testing.T, requiredRoommates int) *Apartment {
	t.Helper()
	return &Apartment{
		ID:                ident.New(),
		OwnerID:           ident.New(),
		CreatedAt:         1000,
		RequiredRoommates: requiredRoommates,
	}
}

func TestAddInterestedUser(t *testing.T) {
	t.Parallel()

	a := newListing(t, 2)
	u := ident.New()

	a.AddInterestedUser(u)
	require.Equal(t, []string{u}, a.Interested)
	require.True(t, a.IsUserInterested(u))

	// re-adding is a no-op
	a.AddInterestedUser(u)
	require.Equal(t, []string{u}, a.Interested)
}

func TestIsTimeToFormGroup(t *testing.T) {
	t.Parallel()

	a := newListing(t, 2)
	require.False(t, a.IsTimeToFormGroup())

	a.AddInterestedUser(ident.New())
	require.False(t, a.IsTimeToFormGroup())

	a.AddInterestedUser(ident.New())
	require.True(t, a.IsTimeToFormGroup())
}

func TestCreateGroupExplicit(t *testing.T) {
	t.Parallel()

	t.Run("creates a pending group of the exact size", func(t *testing.T) {
		a := newListing(t, 2)
		u1, u2 := ident.New(), ident.New()

		g, err := a.CreateGroup([]string{u1, u2})
		require.NoError(t, err)
		require.Len(t, a.Groups, 1)
		require.Len(t, g.Members, 2)
		require.False(t, g.Signed)
		require.Equal(t, u1, g.Members[0].UserID)
		require.Equal(t, u2, g.Members[1].UserID)
		for _, m := range g.Members {
			require.Equal(t, group.MemberStatusPending, m.Status)
		}
	})

	t.Run("wrong list length", func(t *testing.T) {
		a := newListing(t, 2)

		_, err := a.CreateGroup([]string{ident.New()})
		require.ErrorIs(t, err, ErrGroupCreationFailed)
		require.Empty(t, a.Groups)
	})

	t.Run("malformed id", func(t *testing.T) {
		a := newListing(t, 2)

		_, err := a.CreateGroup([]string{ident.New(), "not-an-id"})
		require.ErrorIs(t, err, ErrGroupCreationFailed)
		require.Empty(t, a.Groups)
	})

	t.Run("duplicate member", func(t *testing.T) {
		a := newListing(t, 2)
		u := ident.New()

		_, err := a.CreateGroup([]string{u, u})
		require.ErrorIs(t, err, ErrGroupCreationFailed)
		require.Empty(t, a.Groups)
	})
}

func TestCreateGroupByAnchor(t *testing.T) {
	t.Parallel()

	t.Run("anchor displaces position zero", func(t *testing.T) {
		a := newListing(t, 2)
		uA, uB, uC := ident.New(), ident.New(), ident.New()
		for _, u := range []string{uA, uB, uC} {
			a.AddInterestedUser(u)
		}

		g, err := a.CreateGroupByAnchor(uA)
		require.NoError(t, err)
		require.Equal(t, uA, g.Members[0].UserID)
		require.Equal(t, uB, g.Members[1].UserID)
	})

	t.Run("anchor need not be interested", func(t *testing.T) {
		a := newListing(t, 2)
		uA, uB := ident.New(), ident.New()
		a.AddInterestedUser(uA)
		a.AddInterestedUser(uB)

		outsider := ident.New()
		g, err := a.CreateGroupByAnchor(outsider)
		require.NoError(t, err)
		require.Equal(t, outsider, g.Members[0].UserID)
		require.Equal(t, uB, g.Members[1].UserID)
	})

	// The default matching rule overwrites position 0 without dedup, so an
	// anchor already sitting in a later slot ends up in the group twice.
	// Kept as-is to match the documented matching behavior.
	t.Run("anchor in a later slot is duplicated", func(t *testing.T) {
		a := newListing(t, 2)
		uA, uB := ident.New(), ident.New()
		a.AddInterestedUser(uA)
		a.AddInterestedUser(uB)

		g, err := a.CreateGroupByAnchor(uB)
		require.NoError(t, err)
		require.Equal(t, uB, g.Members[0].UserID)
		require.Equal(t, uB, g.Members[1].UserID)
	})

	t.Run("not enough interested users", func(t *testing.T) {
		a := newListing(t, 3)
		a.AddInterestedUser(ident.New())

		_, err := a.CreateGroupByAnchor(ident.New())
		require.ErrorIs(t, err, ErrGroupCreationFailed)
		require.Empty(t, a.Groups)
	})

	t.Run("does not mutate the interested list", func(t *testing.T) {
		a := newListing(t, 2)
		uA, uB := ident.New(), ident.New()
		a.AddInterestedUser(uA)
		a.AddInterestedUser(uB)

		_, err := a.CreateGroupByAnchor(ident.New())
		require.NoError(t, err)
		require.Equal(t, []string{uA, uB}, a.Interested)
	})
}

// Full consensus flow: everyone accepts, the owner signs.
func TestGroupConsensusFlow(t *testing.T) {
	t.Parallel()

	a := newListing(t, 2)
	uA, uB, uC := ident.New(), ident.New(), ident.New()
	for _, u := range []string{uA, uB, uC} {
		a.AddInterestedUser(u)
	}

	g, err := a.CreateGroupByAnchor(uA)
	require.NoError(t, err)
	require.Equal(t, []string{uA, uB}, []string{g.Members[0].UserID, g.Members[1].UserID})

	require.NoError(t, a.UpdateMemberStatus(g.ID, uA, group.MemberStatusAccepted))
	require.NoError(t, a.UpdateMemberStatus(g.ID, uB, group.MemberStatusAccepted))

	require.NoError(t, a.SignGroup(g.ID, a.OwnerID, 7777))
	require.True(t, a.Groups[0].Signed)
	require.Equal(t, int64(7777), a.Groups[0].SignedAt)
}

func TestSignGroupFailures(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*Apartment, group.Group, string, string) {
		a := newListing(t, 2)
		uA, uB := ident.New(), ident.New()
		a.AddInterestedUser(uA)
		a.AddInterestedUser(uB)
		g, err := a.CreateGroupByAnchor(uA)
		require.NoError(t, err)
		return a, g, uA, uB
	}

	t.Run("unknown group", func(t *testing.T) {
		a, _, _, _ := setup(t)
		require.ErrorIs(t, a.SignGroup(ident.New(), a.OwnerID, 1), ErrGroupNotFound)
	})

	t.Run("non-owner signer", func(t *testing.T) {
		a, g, uA, uB := setup(t)
		require.NoError(t, a.UpdateMemberStatus(g.ID, uA, group.MemberStatusAccepted))
		require.NoError(t, a.UpdateMemberStatus(g.ID, uB, group.MemberStatusAccepted))

		require.ErrorIs(t, a.SignGroup(g.ID, uB, 1), group.ErrInvalidSigner)
		require.False(t, a.Groups[0].Signed)
	})

	t.Run("pending member", func(t *testing.T) {
		a, g, uA, _ := setup(t)
		require.NoError(t, a.UpdateMemberStatus(g.ID, uA, group.MemberStatusAccepted))

		require.ErrorIs(t, a.SignGroup(g.ID, a.OwnerID, 1), group.ErrSignFailed)
	})
}

func TestUpdateMemberStatus(t *testing.T) {
	t.Parallel()

	a := newListing(t, 2)
	uA, uB := ident.New(), ident.New()
	a.AddInterestedUser(uA)
	a.AddInterestedUser(uB)
	g, err := a.CreateGroupByAnchor(uA)
	require.NoError(t, err)

	t.Run("unknown group", func(t *testing.T) {
		err := a.UpdateMemberStatus(ident.New(), uA, group.MemberStatusAccepted)
		require.ErrorIs(t, err, ErrGroupNotFound)
	})

	t.Run("unknown member", func(t *testing.T) {
		err := a.UpdateMemberStatus(g.ID, ident.New(), group.MemberStatusAccepted)
		require.ErrorIs(t, err, group.ErrMemberNotFound)
	})

	t.Run("unsupported status", func(t *testing.T) {
		err := a.UpdateMemberStatus(g.ID, uA, group.MemberStatus("MAYBE"))
		require.ErrorIs(t, err, ErrUnsupportedStatus)
	})

	t.Run("signed group rejects changes", func(t *testing.T) {
		require.NoError(t, a.UpdateMemberStatus(g.ID, uA, group.MemberStatusAccepted))
		require.NoError(t, a.UpdateMemberStatus(g.ID, uB, group.MemberStatusAccepted))
		require.NoError(t, a.SignGroup(g.ID, a.OwnerID, 1))

		err := a.UpdateMemberStatus(g.ID, uA, group.MemberStatusDeclined)
		require.ErrorIs(t, err, group.ErrGroupSigned)
	})
}

func TestRemoveInterestedUserCascade(t *testing.T) {
	t.Parallel()

	t.Run("removes the user and every group containing them", func(t *testing.T) {
		a := newListing(t, 2)
		uA, uB, uC := ident.New(), ident.New(), ident.New()
		for _, u := range []string{uA, uB, uC} {
			a.AddInterestedUser(u)
		}
		_, err := a.CreateGroup([]string{uA, uB})
		require.NoError(t, err)
		keep, err := a.CreateGroup([]string{uB, uC})
		require.NoError(t, err)

		a.RemoveInterestedUser(uA)

		require.Equal(t, []string{uB, uC}, a.Interested)
		require.Len(t, a.Groups, 1)
		require.Equal(t, keep.ID, a.Groups[0].ID)
	})

	t.Run("a signed group is cascaded away too", func(t *testing.T) {
		a := newListing(t, 2)
		uA, uB := ident.New(), ident.New()
		a.AddInterestedUser(uA)
		a.AddInterestedUser(uB)
		g, err := a.CreateGroupByAnchor(uA)
		require.NoError(t, err)
		require.NoError(t, a.UpdateMemberStatus(g.ID, uA, group.MemberStatusAccepted))
		require.NoError(t, a.UpdateMemberStatus(g.ID, uB, group.MemberStatusAccepted))
		require.NoError(t, a.SignGroup(g.ID, a.OwnerID, 1))

		a.RemoveInterestedUser(uA)

		require.Empty(t, a.Groups)
		require.False(t, a.IsUserInterested(uA))
	})

	t.Run("unknown user is a no-op", func(t *testing.T) {
		a := newListing(t, 2)
		uA := ident.New()
		a.AddInterestedUser(uA)

		a.RemoveInterestedUser(ident.New())
		require.Equal(t, []string{uA}, a.Interested)
	})
}

// Every group member must stay on the interested list after any sequence of
// interest mutations.
func TestGroupMembersStayInterested(t *testing.T) {
	t.Parallel()

	a := newListing(t, 2)
	users := []string{ident.New(), ident.New(), ident.New(), ident.New()}
	for _, u := range users {
		a.AddInterestedUser(u)
	}
	_, err := a.CreateGroup([]string{users[0], users[1]})
	require.NoError(t, err)
	_, err = a.CreateGroup([]string{users[2], users[3]})
	require.NoError(t, err)

	a.RemoveInterestedUser(users[1])
	a.RemoveInterestedUser(users[3])

	for _, g := range a.Groups {
		for _, m := range g.Members {
			require.True(t, a.IsUserInterested(m.UserID))
		}
	}
}

func TestAddVisit(t *testing.T) {
	t.Parallel()

	const now = int64(1_000_000)
	const day = int64(24 * 60 * 60 * 1000)

	t.Run("first booking succeeds with the initial status", func(t *testing.T) {
		a := newListing(t, 2)
		u := ident.New()

		v, err := a.AddVisit(u, now+day, now)
		require.NoError(t, err)
		require.Equal(t, visit.StatusPending, v.Status)
		require.Equal(t, now, v.CreatedAt)
		require.Equal(t, u, v.RequesterID)
		require.Len(t, a.Visits, 1)
	})

	t.Run("second future visit conflicts", func(t *testing.T) {
		a := newListing(t, 2)
		u := ident.New()

		_, err := a.AddVisit(u, now+day, now)
		require.NoError(t, err)

		_, err = a.AddVisit(u, now+2*day, now)
		require.ErrorIs(t, err, ErrVisitConflict)
		require.Len(t, a.Visits, 1)
	})

	t.Run("canceled visit frees the slot", func(t *testing.T) {
		a := newListing(t, 2)
		u := ident.New()

		v, err := a.AddVisit(u, now+day, now)
		require.NoError(t, err)
		require.NoError(t, a.UpdateVisit(v.ID, u, visit.StatusCanceled, v.ScheduledTo, now))

		_, err = a.AddVisit(u, now+2*day, now)
		require.NoError(t, err)
		require.Len(t, a.Visits, 2) // canceled visits are history, not deleted
	})

	t.Run("owner cannot book own listing", func(t *testing.T) {
		a := newListing(t, 2)

		_, err := a.AddVisit(a.OwnerID, now+day, now)
		require.ErrorIs(t, err, visit.ErrOwnerVisit)
	})

	t.Run("past schedule rejected", func(t *testing.T) {
		a := newListing(t, 2)

		_, err := a.AddVisit(ident.New(), now-1, now)
		require.ErrorIs(t, err, ErrSchedulePast)
	})
}

func TestUpdateVisit(t *testing.T) {
	t.Parallel()

	const now = int64(1_000_000)
	const day = int64(24 * 60 * 60 * 1000)

	setup := func(t *testing.T) (*Apartment, visit.Visit, string) {
		a := newListing(t, 2)
		u := ident.New()
		v, err := a.AddVisit(u, now+day, now)
		require.NoError(t, err)
		return a, v, u
	}

	t.Run("owner accepts a pending visit", func(t *testing.T) {
		a, v, _ := setup(t)

		require.NoError(t, a.UpdateVisit(v.ID, a.OwnerID, visit.StatusAccepted, now+2*day, now))
		require.Equal(t, visit.StatusAccepted, a.Visits[0].Status)
		require.Equal(t, now+2*day, a.Visits[0].ScheduledTo)
	})

	t.Run("unrelated user is rejected", func(t *testing.T) {
		a, v, _ := setup(t)

		err := a.UpdateVisit(v.ID, ident.New(), visit.StatusAccepted, v.ScheduledTo, now)
		require.ErrorIs(t, err, visit.ErrUnauthorized)
		require.Equal(t, visit.StatusPending, a.Visits[0].Status)
	})

	t.Run("requester cannot accept their own visit", func(t *testing.T) {
		a, v, u := setup(t)

		err := a.UpdateVisit(v.ID, u, visit.StatusAccepted, v.ScheduledTo, now)
		require.ErrorIs(t, err, visit.ErrIllegalTransition)
	})

	t.Run("status and schedule move together or not at all", func(t *testing.T) {
		a, v, u := setup(t)

		err := a.UpdateVisit(v.ID, u, visit.StatusAccepted, now+5*day, now)
		require.ErrorIs(t, err, visit.ErrIllegalTransition)
		require.Equal(t, now+day, a.Visits[0].ScheduledTo)
		require.Equal(t, visit.StatusPending, a.Visits[0].Status)
	})

	t.Run("unknown visit", func(t *testing.T) {
		a, _, _ := setup(t)

		err := a.UpdateVisit(ident.New(), a.OwnerID, visit.StatusAccepted, now+day, now)
		require.ErrorIs(t, err, ErrVisitNotFound)
	})

	t.Run("rescheduling an expired visit cannot create a second future one", func(t *testing.T) {
		a := newListing(t, 2)
		u := ident.New()

		vA, err := a.AddVisit(u, now+day, now)
		require.NoError(t, err)

		// vA slips into the past, so a new booking is allowed
		later := now + 2*day
		_, err = a.AddVisit(u, later+day, later)
		require.NoError(t, err)

		// pulling vA back into the future would leave two live visits
		err = a.UpdateVisit(vA.ID, u, visit.StatusPending, later+3*day, later)
		require.ErrorIs(t, err, ErrVisitConflict)
		require.Equal(t, now+day, a.Visits[0].ScheduledTo)

		futures := 0
		for _, v := range a.Visits {
			if v.Status != visit.StatusCanceled && v.ScheduledTo > later {
				futures++
			}
		}
		require.Equal(t, 1, futures)
	})

	t.Run("canceling is allowed even with another future visit", func(t *testing.T) {
		a := newListing(t, 2)
		u := ident.New()

		vA, err := a.AddVisit(u, now+day, now)
		require.NoError(t, err)

		later := now + 2*day
		_, err = a.AddVisit(u, later+day, later)
		require.NoError(t, err)

		require.NoError(t, a.UpdateVisit(vA.ID, u, visit.StatusCanceled, vA.ScheduledTo, later))
	})

	t.Run("rescheduling the only live visit is fine", func(t *testing.T) {
		a, v, u := setup(t)

		require.NoError(t, a.UpdateVisit(v.ID, u, visit.StatusPending, now+3*day, now))
		require.Equal(t, now+3*day, a.Visits[0].ScheduledTo)
	})
}

func TestIsFutureVisitPlanned(t *testing.T) {
	t.Parallel()

	const now = int64(1_000_000)
	a := newListing(t, 2)
	u := ident.New()

	v, err := a.AddVisit(u, now+100, now)
	require.NoError(t, err)

	require.True(t, a.IsFutureVisitPlanned(u, now))
	require.False(t, a.IsFutureVisitPlanned(u, now+200))
	require.False(t, a.IsFutureVisitPlanned(ident.New(), now))

	require.NoError(t, a.UpdateVisit(v.ID, u, visit.StatusCanceled, v.ScheduledTo, now))
	require.False(t, a.IsFutureVisitPlanned(u, now))
}

func TestComments(t *testing.T) {
	t.Parallel()

	a := newListing(t, 2)
	u := ident.New()

	require.NoError(t, a.AddComment(u, "first", 100))
	require.NoError(t, a.AddComment(u, "second", 200))

	// newest first
	require.Equal(t, "second", a.Comments[0].Text)
	require.Equal(t, "first", a.Comments[1].Text)

	require.ErrorIs(t, a.AddComment(u, "", 300), ErrInvalidComment)
	require.ErrorIs(t, a.AddComment(u, string(make([]byte, 1001)), 300), ErrInvalidComment)
	require.Len(t, a.Comments, 2)
}

func TestSubscribers(t *testing.T) {
	t.Parallel()

	a := newListing(t, 2)
	u := ident.New()

	a.Subscribe(u)
	a.Subscribe(u)
	require.Equal(t, []string{u}, a.Subscribers)
	require.True(t, a.IsSubscriber(u))

	a.Unsubscribe(u)
	a.Unsubscribe(u)
	require.Empty(t, a.Subscribers)
	require.False(t, a.IsSubscriber(u))
}
