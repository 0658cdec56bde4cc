// Package booking holds the eligibility rules gating booking creation and
// the service that commits bookings against the store.
package booking

import (
	"time"

	"festbook/internal/models"
)

// DefaultGroupLimit is the global cap of active bookings per group across
// all venues.
const DefaultGroupLimit = 2

// IsVenueVisible decides whether a venue appears in listings at all.
// Hidden venues never show. A single-seat venue disappears once filled,
// regardless of its nominal status; a full multi-seat venue stays visible
// (it is merely unbookable).
func IsVenueVisible(v models.Venue) bool {
	if v.Status == models.StatusHidden {
		return false
	}
	if v.Capacity == 1 && v.Registered >= 1 {
		return false
	}
	return true
}

// CanBook evaluates the eligibility rules in order, short-circuiting on the
// first failure. It is pure: decisions depend only on the arguments.
//
// Order matters for the message a user sees: a closed system masks a full
// venue, a full venue masks the per-group cap.
func CanBook(v models.Venue, groupID string, now time.Time, settings models.Settings, bookings []models.Booking, limit int) error {
	if !settings.IsOpen(now) {
		return ErrSystemClosed
	}
	if v.Status != models.StatusOpen {
		return ErrVenueNotOpen
	}
	if v.IsFull() {
		return ErrVenueFull
	}

	var mine []models.Booking
	for _, b := range bookings {
		if b.GroupID == groupID {
			mine = append(mine, b)
		}
	}
	if len(mine) >= limit {
		return ErrGroupLimitReached
	}
	for _, b := range mine {
		if b.VenueID == v.ID {
			return ErrAlreadyBooked
		}
	}
	return nil
}

// RejectionReason maps an eligibility error onto a short stable label,
// suitable as a metric dimension.
func RejectionReason(err error) string {
	switch err {
	case ErrSystemClosed:
		return "closed"
	case ErrVenueNotOpen:
		return "venue_not_open"
	case ErrVenueFull:
		return "venue_full"
	case ErrGroupLimitReached:
		return "group_limit"
	case ErrAlreadyBooked:
		return "already_booked"
	case ErrVenueNotFound:
		return "venue_not_found"
	}
	return "unknown"
}
