package booking

import (
	"testing"

	"festbook/internal/models"
	"festbook/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s, err := store.Open(":memory:", nil, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewService(s, DefaultGroupLimit, zerolog.Nop()), s
}

func identity(groupID string) models.Identity {
	return models.Identity{ID: groupID, Name: "Group " + groupID, GroupID: groupID, Role: models.RoleLeader}
}

func TestService_Book(t *testing.T) {
	svc, st := newService(t)
	g1 := identity("g1")

	t.Run("books against the default dataset", func(t *testing.T) {
		booked, err := svc.Book("v1", g1, insideWindow)
		require.NoError(t, err)

		assert.Equal(t, "v1", booked.VenueID)
		assert.Equal(t, "主堂 (Main Hall)", booked.VenueName)
		assert.Equal(t, "g1", booked.GroupID)
		assert.Equal(t, insideWindow.UnixMilli(), booked.Timestamp)

		v, _ := st.Venue("v1")
		assert.Equal(t, 1, v.Registered)
		snap := st.Snapshot()
		assert.Len(t, snap.GroupBookings("g1"), 1)
	})

	t.Run("rejects a duplicate venue booking", func(t *testing.T) {
		_, err := svc.Book("v1", g1, insideWindow)
		assert.ErrorIs(t, err, ErrAlreadyBooked)

		v, _ := st.Venue("v1")
		assert.Equal(t, 1, v.Registered)
	})

	t.Run("enforces the per-group cap at commit", func(t *testing.T) {
		_, err := svc.Book("v3", g1, insideWindow)
		require.NoError(t, err)

		extra, err := st.AddVenue(models.Venue{Name: "Extra", Capacity: 10, Status: models.StatusOpen})
		require.NoError(t, err)

		_, err = svc.Book(extra.ID, g1, insideWindow)
		assert.ErrorIs(t, err, ErrGroupLimitReached)
	})

	t.Run("unknown venue", func(t *testing.T) {
		_, err := svc.Book("missing", identity("g2"), insideWindow)
		assert.ErrorIs(t, err, ErrVenueNotFound)
	})

	t.Run("closed window", func(t *testing.T) {
		_, err := svc.Book("v1", identity("g2"), outsideWindow)
		assert.ErrorIs(t, err, ErrSystemClosed)
	})

	t.Run("rejection leaves no booking behind", func(t *testing.T) {
		before := len(st.Bookings())
		_, err := svc.Book("v1", g1, insideWindow)
		require.Error(t, err)
		assert.Len(t, st.Bookings(), before)
	})
}

func TestService_EligibleMatchesBook(t *testing.T) {
	svc, _ := newService(t)
	g1 := identity("g1")

	require.NoError(t, svc.Eligible("v1", g1, insideWindow))
	assert.ErrorIs(t, svc.Eligible("missing", g1, insideWindow), ErrVenueNotFound)

	// An advisory pass does not bind: the venue fills between the check
	// and the commit, and Book re-validates.
	_, err := svc.Book("v3", identity("g9"), insideWindow)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Eligible("v3", g1, insideWindow), ErrVenueFull)
	_, err = svc.Book("v3", g1, insideWindow)
	assert.ErrorIs(t, err, ErrVenueFull)
}

func TestService_Cancel(t *testing.T) {
	svc, st := newService(t)

	booked, err := svc.Book("v1", identity("g1"), insideWindow)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(booked.ID))
	v, _ := st.Venue("v1")
	assert.Equal(t, 0, v.Registered)
	assert.Empty(t, st.Bookings())

	// Unknown ids stay a silent no-op.
	require.NoError(t, svc.Cancel("missing"))
}

func TestService_VenueListings(t *testing.T) {
	svc, st := newService(t)

	hidden, err := st.AddVenue(models.Venue{Name: "Hidden Hall", Category: models.CategoryJoint, Capacity: 5, Status: models.StatusHidden})
	require.NoError(t, err)

	single := svc.SingleVenues()
	require.Len(t, single, 1)
	assert.Equal(t, "v3", single[0].ID)

	joint := svc.JointVenues()
	require.Len(t, joint, 1)
	assert.Equal(t, "v1", joint[0].ID)

	for _, v := range svc.VisibleVenues() {
		assert.NotEqual(t, hidden.ID, v.ID)
	}

	// Booking the single-seat venue removes it from listings.
	_, err = svc.Book("v3", identity("g1"), insideWindow)
	require.NoError(t, err)
	assert.Empty(t, svc.SingleVenues())
}
