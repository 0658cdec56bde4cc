package booking

import "errors"

// Eligibility rejections. These are business-rule signals, not system
// errors: the caller shows them to the user and carries on.
var (
	// ErrSystemClosed is returned outside the global booking window.
	ErrSystemClosed = errors.New("booking: reservation system is closed")

	// ErrVenueNotOpen is returned when the venue status is not Open.
	ErrVenueNotOpen = errors.New("booking: venue is not open")

	// ErrVenueFull is returned when the venue has no remaining capacity.
	ErrVenueFull = errors.New("booking: venue is full")

	// ErrGroupLimitReached is returned when the acting group already holds
	// the maximum number of active bookings across all venues.
	ErrGroupLimitReached = errors.New("booking: group booking limit reached")

	// ErrAlreadyBooked is returned when the acting group already booked
	// this venue.
	ErrAlreadyBooked = errors.New("booking: group already booked this venue")

	// ErrVenueNotFound is returned when the requested venue id does not
	// exist at commit time.
	ErrVenueNotFound = errors.New("booking: venue not found")
)

// IsRejection reports whether err is an eligibility rejection rather than a
// system error.
func IsRejection(err error) bool {
	for _, rejection := range []error{
		ErrSystemClosed, ErrVenueNotOpen, ErrVenueFull,
		ErrGroupLimitReached, ErrAlreadyBooked, ErrVenueNotFound,
	} {
		if errors.Is(err, rejection) {
			return true
		}
	}
	return false
}
