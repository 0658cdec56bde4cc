// Package models defines the persisted booking domain: venues, groups,
// bookings and the global settings window, plus the snapshot document that
// holds all of them. JSON field names follow the snapshot wire format, so
// previously exported snapshots load unchanged.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Venue categories. Bilingual aliases are accepted on input and normalised
// to the canonical English form.
const (
	CategorySingle = "Single"
	CategoryJoint  = "Joint"
)

// Venue statuses.
const (
	StatusOpen   = "Open"
	StatusHidden = "Hidden"
	StatusClosed = "Closed"
)

// SettingsTimeLayout is the minute-resolution layout used for the global
// booking window bounds.
const SettingsTimeLayout = "2006-01-02T15:04"

// Venue is a bookable slot-bearing resource with fixed capacity.
// Registered is derived: it must track the count of live bookings
// referencing the venue.
type Venue struct {
	ID         string `json:"id"`
	ShortName  string `json:"shortName"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	Category   string `json:"category"`
	Capacity   int    `json:"capacity"`
	Registered int    `json:"registered"`
	Status     string `json:"status"`
	Remark     string `json:"remark"`
}

// IsFull reports whether the venue has no remaining capacity.
func (v *Venue) IsFull() bool {
	return v.Registered >= v.Capacity
}

// OverCapacity reports whether administrative edits shrank capacity below
// the live registration count. The state is surfaced, never auto-corrected;
// it blocks new bookings only.
func (v *Venue) OverCapacity() bool {
	return v.Registered > v.Capacity
}

// Group is the booking identity unit. Its id doubles as the login
// credential; leaders are informational free text.
type Group struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Leader1 string `json:"leader1"`
	Leader2 string `json:"leader2"`
}

// Booking consumes one unit of a venue's capacity on behalf of a group.
// VenueName is a snapshot at booking time and is not re-synced on rename.
// Timestamp is the creation instant in Unix milliseconds.
type Booking struct {
	ID        string `json:"id"`
	VenueID   string `json:"venueId"`
	VenueName string `json:"venueName"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	GroupID   string `json:"groupId"`
	Timestamp int64  `json:"timestamp"`
}

// Time returns the creation instant.
func (b *Booking) Time() time.Time {
	return time.UnixMilli(b.Timestamp)
}

// Settings holds the global booking window. Both bounds use
// SettingsTimeLayout in local time.
type Settings struct {
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
}

// IsOpen reports whether now falls inside the booking window, inclusive on
// both bounds. A missing or unparsable bound leaves the system open.
func (s *Settings) IsOpen(now time.Time) bool {
	openAt, err := parseSettingsTime(s.OpenTime)
	if err != nil {
		return true
	}
	closeAt, err := parseSettingsTime(s.CloseTime)
	if err != nil {
		return true
	}
	return !now.Before(openAt) && !now.After(closeAt)
}

// HasLegacyWindow reports whether the open bound still carries the retired
// 2023 defaults and needs rewriting on load.
func (s *Settings) HasLegacyWindow() bool {
	return strings.Contains(s.OpenTime, "2023-")
}

func parseSettingsTime(value string) (time.Time, error) {
	if t, err := time.ParseInLocation(SettingsTimeLayout, value, time.Local); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.RFC3339, value, time.Local)
}

// Snapshot is the full persisted state: everything the store owns,
// serialized as one JSON document.
type Snapshot struct {
	Venues   []Venue   `json:"venues"`
	Groups   []Group   `json:"groups"`
	Bookings []Booking `json:"bookings"`
	Settings Settings  `json:"settings"`
}

// Clone returns a deep copy of the snapshot. Empty collections stay empty
// rather than nil, so the persisted document always carries [] for them.
func (s *Snapshot) Clone() Snapshot {
	out := Snapshot{
		Settings: s.Settings,
		Venues:   make([]Venue, len(s.Venues)),
		Groups:   make([]Group, len(s.Groups)),
		Bookings: make([]Booking, len(s.Bookings)),
	}
	copy(out.Venues, s.Venues)
	copy(out.Groups, s.Groups)
	copy(out.Bookings, s.Bookings)
	return out
}

// Venue returns a pointer to the venue with the given id inside this
// snapshot, or nil.
func (s *Snapshot) Venue(id string) *Venue {
	for i := range s.Venues {
		if s.Venues[i].ID == id {
			return &s.Venues[i]
		}
	}
	return nil
}

// Group returns a pointer to the group with the given id inside this
// snapshot, or nil.
func (s *Snapshot) Group(id string) *Group {
	for i := range s.Groups {
		if s.Groups[i].ID == id {
			return &s.Groups[i]
		}
	}
	return nil
}

// GroupBookings returns the bookings held by the given group id.
func (s *Snapshot) GroupBookings(groupID string) []Booking {
	var out []Booking
	for _, b := range s.Bookings {
		if b.GroupID == groupID {
			out = append(out, b)
		}
	}
	return out
}

// Identity is the acting session identity resolved from a group login.
// It is the one record session storage holds.
type Identity struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	GroupID string `json:"groupId"`
	Role    string `json:"role"`
}

// RoleLeader is the role assigned to group-leader logins.
const RoleLeader = "leader"

// NormalizeCategory maps bilingual category variants onto the canonical
// constants. Unknown values pass through unchanged.
func NormalizeCategory(category string) string {
	switch strings.TrimSpace(category) {
	case CategorySingle, "個別":
		return CategorySingle
	case CategoryJoint, "合辦":
		return CategoryJoint
	}
	return strings.TrimSpace(category)
}

// NewVenueID generates a fresh venue id.
func NewVenueID() string {
	return "v_" + uuid.NewString()
}

// NewBookingID generates a fresh booking id.
func NewBookingID() string {
	return "b_" + uuid.NewString()
}

// DefaultOpenTime and DefaultCloseTime bound the seeded booking window.
const (
	DefaultOpenTime  = "2025-12-01T00:00"
	DefaultCloseTime = "2025-12-31T23:59"
)

// DefaultSnapshot returns the seed dataset used when no snapshot exists yet:
// two venues, no groups or bookings, and the default December window.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Venues: []Venue{
			{
				ID:        "v1",
				ShortName: "A",
				Name:      "主堂 (Main Hall)",
				Date:      "2025-12-25",
				Category:  CategoryJoint,
				Capacity:  100,
				Status:    StatusOpen,
			},
			{
				ID:        "v3",
				ShortName: "C",
				Name:      "禱告室 (Prayer Room)",
				Date:      "2025-12-25",
				Category:  CategorySingle,
				Capacity:  1,
				Status:    StatusOpen,
				Remark:    "Single person only",
			},
		},
		Groups:   []Group{},
		Bookings: []Booking{},
		Settings: Settings{
			OpenTime:  DefaultOpenTime,
			CloseTime: DefaultCloseTime,
		},
	}
}
