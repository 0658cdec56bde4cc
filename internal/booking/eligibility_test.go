package booking

import (
	"testing"
	"time"

	"festbook/internal/models"

	"github.com/stretchr/testify/assert"
)

var (
	testSettings = models.Settings{
		OpenTime:  "2025-12-01T00:00",
		CloseTime: "2025-12-31T23:59",
	}
	insideWindow  = time.Date(2025, 12, 25, 12, 0, 0, 0, time.Local)
	outsideWindow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.Local)
)

func openVenue(id string, capacity, registered int) models.Venue {
	return models.Venue{ID: id, Name: id, Capacity: capacity, Registered: registered, Status: models.StatusOpen}
}

func TestIsVenueVisible(t *testing.T) {
	t.Run("hidden venues never show", func(t *testing.T) {
		v := openVenue("v1", 10, 0)
		v.Status = models.StatusHidden
		assert.False(t, IsVenueVisible(v))
	})

	t.Run("single-seat venue vanishes once filled", func(t *testing.T) {
		v := openVenue("v1", 1, 0)
		assert.True(t, IsVenueVisible(v))

		v.Registered = 1
		assert.False(t, IsVenueVisible(v), "status unchanged but venue must disappear")
	})

	t.Run("full multi-seat venue stays visible", func(t *testing.T) {
		v := openVenue("v1", 10, 10)
		assert.True(t, IsVenueVisible(v))
	})

	t.Run("closed but not hidden stays visible", func(t *testing.T) {
		v := openVenue("v1", 10, 0)
		v.Status = models.StatusClosed
		assert.True(t, IsVenueVisible(v))
	})
}

func TestCanBook(t *testing.T) {
	v := openVenue("v1", 10, 0)

	t.Run("eligible", func(t *testing.T) {
		assert.NoError(t, CanBook(v, "g1", insideWindow, testSettings, nil, DefaultGroupLimit))
	})

	t.Run("system closed", func(t *testing.T) {
		err := CanBook(v, "g1", outsideWindow, testSettings, nil, DefaultGroupLimit)
		assert.ErrorIs(t, err, ErrSystemClosed)
	})

	t.Run("venue not open", func(t *testing.T) {
		hidden := v
		hidden.Status = models.StatusHidden
		assert.ErrorIs(t, CanBook(hidden, "g1", insideWindow, testSettings, nil, DefaultGroupLimit), ErrVenueNotOpen)

		closed := v
		closed.Status = models.StatusClosed
		assert.ErrorIs(t, CanBook(closed, "g1", insideWindow, testSettings, nil, DefaultGroupLimit), ErrVenueNotOpen)
	})

	t.Run("venue full", func(t *testing.T) {
		full := openVenue("v1", 2, 2)
		assert.ErrorIs(t, CanBook(full, "g1", insideWindow, testSettings, nil, DefaultGroupLimit), ErrVenueFull)
	})

	t.Run("over-capacity venue blocks new bookings", func(t *testing.T) {
		over := openVenue("v1", 2, 3)
		assert.ErrorIs(t, CanBook(over, "g1", insideWindow, testSettings, nil, DefaultGroupLimit), ErrVenueFull)
	})

	t.Run("per-group cap counts across venues", func(t *testing.T) {
		bookings := []models.Booking{
			{ID: "b1", GroupID: "g1", VenueID: "v2"},
			{ID: "b2", GroupID: "g1", VenueID: "v3"},
			{ID: "b3", GroupID: "other", VenueID: "v4"},
		}
		assert.ErrorIs(t, CanBook(v, "g1", insideWindow, testSettings, bookings, 2), ErrGroupLimitReached)
		assert.NoError(t, CanBook(v, "g2", insideWindow, testSettings, bookings, 2))
	})

	t.Run("one booking leaves a different venue eligible but not the same one", func(t *testing.T) {
		bookings := []models.Booking{{ID: "b1", GroupID: "g1", VenueID: "v1"}}
		assert.ErrorIs(t, CanBook(v, "g1", insideWindow, testSettings, bookings, 2), ErrAlreadyBooked)

		other := openVenue("v9", 10, 0)
		assert.NoError(t, CanBook(other, "g1", insideWindow, testSettings, bookings, 2))
	})

	t.Run("closed system masks later rules", func(t *testing.T) {
		full := openVenue("v1", 2, 2)
		assert.ErrorIs(t, CanBook(full, "g1", outsideWindow, testSettings, nil, DefaultGroupLimit), ErrSystemClosed)
	})
}

func TestRejectionReason(t *testing.T) {
	assert.Equal(t, "closed", RejectionReason(ErrSystemClosed))
	assert.Equal(t, "venue_full", RejectionReason(ErrVenueFull))
	assert.Equal(t, "group_limit", RejectionReason(ErrGroupLimitReached))
	assert.Equal(t, "already_booked", RejectionReason(ErrAlreadyBooked))
	assert.Equal(t, "unknown", RejectionReason(assert.AnError))
}

func TestIsRejection(t *testing.T) {
	assert.True(t, IsRejection(ErrVenueFull))
	assert.True(t, IsRejection(ErrVenueNotFound))
	assert.False(t, IsRejection(assert.AnError))
	assert.False(t, IsRejection(nil))
}
