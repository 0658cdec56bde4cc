package booking

import (
	"time"

	"festbook/internal/events"
	"festbook/internal/metrics"
	"festbook/internal/models"
	"festbook/internal/store"

	"github.com/rs/zerolog"
)

// Service commits bookings against the store. Eligibility is re-validated
// inside the commit, so a stale check across a confirmation step cannot
// slip a booking past the rules.
type Service struct {
	store  *store.Store
	limit  int
	logger zerolog.Logger
}

// NewService creates a booking service. limit is the per-group cap of
// active bookings; values below one fall back to DefaultGroupLimit.
func NewService(st *store.Store, limit int, logger zerolog.Logger) *Service {
	if limit < 1 {
		limit = DefaultGroupLimit
	}
	return &Service{
		store:  st,
		limit:  limit,
		logger: logger.With().Str("component", "booking").Logger(),
	}
}

// Eligible checks whether the acting identity may book the venue right now.
// The result is advisory: Book re-validates at commit time.
func (s *Service) Eligible(venueID string, identity models.Identity, now time.Time) error {
	snap := s.store.Snapshot()
	v := snap.Venue(venueID)
	if v == nil {
		return ErrVenueNotFound
	}
	return CanBook(*v, identity.GroupID, now, snap.Settings, snap.Bookings, s.limit)
}

// Book re-validates eligibility against the committed state and, when it
// still holds, constructs and persists the booking in the same serialized
// commit. The venue name is denormalised at booking time.
func (s *Service) Book(venueID string, identity models.Identity, now time.Time) (models.Booking, error) {
	var booked models.Booking
	err := s.store.Transact(func(snap *models.Snapshot) error {
		v := snap.Venue(venueID)
		if v == nil {
			return ErrVenueNotFound
		}
		if err := CanBook(*v, identity.GroupID, now, snap.Settings, snap.Bookings, s.limit); err != nil {
			return err
		}
		booked = models.Booking{
			ID:        models.NewBookingID(),
			VenueID:   v.ID,
			VenueName: v.Name,
			UserID:    identity.ID,
			UserName:  identity.Name,
			GroupID:   identity.GroupID,
			Timestamp: now.UnixMilli(),
		}
		store.ApplyBooking(snap, booked)
		return nil
	})
	if err != nil {
		if IsRejection(err) {
			metrics.IncBookingRejected(RejectionReason(err))
			s.logger.Info().
				Str("venue_id", venueID).
				Str("group_id", identity.GroupID).
				Str("reason", RejectionReason(err)).
				Msg("booking rejected")
		}
		return models.Booking{}, err
	}

	s.store.Bus().Publish(events.Event{Type: events.TypeBookingCreated, Payload: booked})
	metrics.IncBookingCreated()
	s.logger.Info().
		Str("booking_id", booked.ID).
		Str("venue_id", venueID).
		Str("group_id", identity.GroupID).
		Msg("booking committed")
	return booked, nil
}

// Cancel deletes a booking through the store; unknown ids stay a silent
// no-op.
func (s *Service) Cancel(bookingID string) error {
	if err := s.store.DeleteBooking(bookingID); err != nil {
		return err
	}
	metrics.IncBookingDeleted()
	return nil
}

// VisibleVenues returns the venues that should appear in listings,
// filtered through the visibility rule.
func (s *Service) VisibleVenues() []models.Venue {
	var out []models.Venue
	for _, v := range s.store.Venues() {
		if IsVenueVisible(v) {
			out = append(out, v)
		}
	}
	return out
}

// SingleVenues returns the visible venues in the Single category.
func (s *Service) SingleVenues() []models.Venue {
	return s.visibleByCategory(models.CategorySingle)
}

// JointVenues returns the visible venues in the Joint category.
func (s *Service) JointVenues() []models.Venue {
	return s.visibleByCategory(models.CategoryJoint)
}

func (s *Service) visibleByCategory(category string) []models.Venue {
	var out []models.Venue
	for _, v := range s.store.Venues() {
		if models.NormalizeCategory(v.Category) == category && IsVenueVisible(v) {
			out = append(out, v)
		}
	}
	return out
}
