// Package store owns the durable booking state: one snapshot document
// holding venues, groups, bookings and settings, persisted under a single
// well-known key in SQLite. Every mutating operation rewrites the whole
// snapshot synchronously before returning, so readers always observe the
// latest committed state.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"festbook/internal/events"
	"festbook/internal/models"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// SnapshotKey is the well-known key the snapshot document lives under.
// It is kept from the original storage format so existing data loads.
const SnapshotKey = "christmas_booking_data"

// ErrNoChange aborts a Transact without persisting. Mutations targeting a
// non-existent id return it internally; callers of the public operations
// observe a silent no-op, which is the documented contract.
var ErrNoChange = errors.New("store: no change")

// Store is the single owner of all persisted entities. Callers hold a
// reference; there is no ambient global. Read accessors return copies,
// never live internal slices.
type Store struct {
	db     *sql.DB
	path   string
	bus    *events.Bus
	logger zerolog.Logger

	mu   sync.Mutex
	snap models.Snapshot
}

// Open opens (or creates) the snapshot database at path, seeds the default
// dataset when no snapshot exists, and runs forward-migrations on whatever
// was loaded. The bus may be nil. Pass ":memory:" for an ephemeral store.
func Open(path string, bus *events.Bus, logger zerolog.Logger) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// One writer, one snapshot row; a second connection would only race
	// the serialized commit below.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:     db,
		path:   path,
		bus:    bus,
		logger: logger.With().Str("component", "store").Logger(),
	}
	if err := s.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info().
		Str("path", path).
		Int("venues", len(s.snap.Venues)).
		Int("groups", len(s.snap.Groups)).
		Int("bookings", len(s.snap.Bookings)).
		Msg("store opened")
	return s, nil
}

func (s *Store) createTable() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		key        TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create snapshots table: %w", err)
	}
	return nil
}

func (s *Store) load() error {
	var data string
	err := s.db.QueryRow(`SELECT data FROM snapshots WHERE key = ?`, SnapshotKey).Scan(&data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.snap = models.DefaultSnapshot()
		s.logger.Info().Msg("no snapshot found, seeding default dataset")
	case err != nil:
		return fmt.Errorf("failed to load snapshot: %w", err)
	default:
		if err := json.Unmarshal([]byte(data), &s.snap); err != nil {
			return fmt.Errorf("failed to decode snapshot: %w", err)
		}
		migrate(&s.snap, &s.logger)
	}
	return s.persistLocked()
}

// migrate runs the forward-migrations unconditionally; each is idempotent.
func migrate(snap *models.Snapshot, logger *zerolog.Logger) {
	if snap.Groups == nil {
		snap.Groups = []models.Group{}
		logger.Debug().Msg("migration: added empty groups list")
	}
	for i := range snap.Venues {
		if snap.Venues[i].Category == "" {
			snap.Venues[i].Category = models.CategorySingle
			logger.Debug().Str("venue_id", snap.Venues[i].ID).Msg("migration: defaulted venue category")
		}
	}
	if snap.Settings.HasLegacyWindow() {
		snap.Settings.OpenTime = models.DefaultOpenTime
		snap.Settings.CloseTime = models.DefaultCloseTime
		logger.Info().Msg("migration: rewrote legacy booking window")
	}
	if snap.Bookings == nil {
		snap.Bookings = []models.Booking{}
	}
}

// persistLocked writes the current snapshot under SnapshotKey. Caller holds
// the lock (or is still single-threaded in Open).
func (s *Store) persistLocked() error {
	data, err := json.Marshal(&s.snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO snapshots (key, data, updated_at) VALUES (?, ?, ?)`,
		SnapshotKey, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}

// Transact runs fn over a working copy of the snapshot under the store
// lock, then persists and commits the copy if fn returns nil. Returning
// ErrNoChange leaves the committed state untouched and reports success.
// This is the single serialization point for every read-decide-commit
// sequence; nothing is applied in memory unless the write succeeded.
func (s *Store) Transact(fn func(snap *models.Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.snap.Clone()
	if err := fn(&work); err != nil {
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}

	committed := s.snap
	s.snap = work
	if err := s.persistLocked(); err != nil {
		s.snap = committed
		return err
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Bus returns the event bus the store publishes on; may be nil.
func (s *Store) Bus() *events.Bus {
	return s.bus
}

// Snapshot returns a deep copy of the committed state.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Venues returns a copy of all venues.
func (s *Store) Venues() []models.Venue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Venue(nil), s.snap.Venues...)
}

// Venue looks a venue up by id.
func (s *Store) Venue(id string) (models.Venue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v := s.snap.Venue(id); v != nil {
		return *v, true
	}
	return models.Venue{}, false
}

// Groups returns a copy of all groups.
func (s *Store) Groups() []models.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Group(nil), s.snap.Groups...)
}

// Group looks a group up by id.
func (s *Store) Group(id string) (models.Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g := s.snap.Group(id); g != nil {
		return *g, true
	}
	return models.Group{}, false
}

// Bookings returns a copy of all bookings.
func (s *Store) Bookings() []models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Booking(nil), s.snap.Bookings...)
}

// Settings returns the current settings singleton.
func (s *Store) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Settings
}

// AddVenue appends a new venue, generating an id when none is set, and
// returns the stored venue.
func (s *Store) AddVenue(v models.Venue) (models.Venue, error) {
	if v.ID == "" {
		v.ID = models.NewVenueID()
	}
	v.Category = models.NormalizeCategory(v.Category)
	err := s.Transact(func(snap *models.Snapshot) error {
		snap.Venues = append(snap.Venues, v)
		return nil
	})
	if err != nil {
		return models.Venue{}, err
	}
	s.logger.Info().Str("venue_id", v.ID).Str("name", v.Name).Msg("venue added")
	return v, nil
}

// UpdateVenue replaces the venue with the same id. Unknown ids are a silent
// no-op by contract.
func (s *Store) UpdateVenue(v models.Venue) error {
	v.Category = models.NormalizeCategory(v.Category)
	return s.Transact(func(snap *models.Snapshot) error {
		existing := snap.Venue(v.ID)
		if existing == nil {
			return ErrNoChange
		}
		*existing = v
		return nil
	})
}

// DeleteVenue removes the venue with the given id; unknown ids are a
// silent no-op.
func (s *Store) DeleteVenue(id string) error {
	return s.Transact(func(snap *models.Snapshot) error {
		for i := range snap.Venues {
			if snap.Venues[i].ID == id {
				snap.Venues = append(snap.Venues[:i], snap.Venues[i+1:]...)
				return nil
			}
		}
		return ErrNoChange
	})
}

// DeleteAllVenues clears the venue catalogue.
func (s *Store) DeleteAllVenues() error {
	return s.Transact(func(snap *models.Snapshot) error {
		snap.Venues = []models.Venue{}
		return nil
	})
}

// AddGroup appends a group. A group whose id is already present is
// silently ignored, not overwritten.
func (s *Store) AddGroup(g models.Group) error {
	return s.Transact(func(snap *models.Snapshot) error {
		if snap.Group(g.ID) != nil {
			return ErrNoChange
		}
		snap.Groups = append(snap.Groups, g)
		return nil
	})
}

// UpdateGroup replaces the group with the same id; unknown ids are a
// silent no-op.
func (s *Store) UpdateGroup(g models.Group) error {
	return s.Transact(func(snap *models.Snapshot) error {
		existing := snap.Group(g.ID)
		if existing == nil {
			return ErrNoChange
		}
		*existing = g
		return nil
	})
}

// DeleteGroup removes the group with the given id; unknown ids are a
// silent no-op.
func (s *Store) DeleteGroup(id string) error {
	return s.Transact(func(snap *models.Snapshot) error {
		for i := range snap.Groups {
			if snap.Groups[i].ID == id {
				snap.Groups = append(snap.Groups[:i], snap.Groups[i+1:]...)
				return nil
			}
		}
		return ErrNoChange
	})
}

// DeleteAllGroups clears the group roster.
func (s *Store) DeleteAllGroups() error {
	return s.Transact(func(snap *models.Snapshot) error {
		snap.Groups = []models.Group{}
		return nil
	})
}

// AddBooking appends the booking, then increments the target venue's
// registered count. The increment is silently skipped if the venue no
// longer exists; the booking is still stored.
func (s *Store) AddBooking(b models.Booking) error {
	err := s.Transact(func(snap *models.Snapshot) error {
		ApplyBooking(snap, b)
		return nil
	})
	if err != nil {
		return err
	}
	s.bus.Publish(events.Event{Type: events.TypeBookingCreated, Payload: b})
	s.logger.Info().
		Str("booking_id", b.ID).
		Str("venue_id", b.VenueID).
		Str("group_id", b.GroupID).
		Msg("booking added")
	return nil
}

// ApplyBooking appends b to the snapshot and bumps the referenced venue's
// registered count when the venue still exists. Exposed for callers that
// commit a booking inside their own Transact.
func ApplyBooking(snap *models.Snapshot, b models.Booking) {
	snap.Bookings = append(snap.Bookings, b)
	if v := snap.Venue(b.VenueID); v != nil {
		v.Registered++
	}
}

// DeleteBooking removes the booking and decrements the referenced venue's
// registered count, never below zero. Deleting an unknown id is a silent
// no-op; a deletion is irreversible.
func (s *Store) DeleteBooking(id string) error {
	var deleted models.Booking
	err := s.Transact(func(snap *models.Snapshot) error {
		for i := range snap.Bookings {
			if snap.Bookings[i].ID != id {
				continue
			}
			deleted = snap.Bookings[i]
			if v := snap.Venue(deleted.VenueID); v != nil && v.Registered > 0 {
				v.Registered--
			}
			snap.Bookings = append(snap.Bookings[:i], snap.Bookings[i+1:]...)
			return nil
		}
		return ErrNoChange
	})
	if err != nil {
		return err
	}
	if deleted.ID != "" {
		s.bus.Publish(events.Event{Type: events.TypeBookingDeleted, Payload: deleted})
		s.logger.Info().Str("booking_id", id).Msg("booking deleted")
	}
	return nil
}

// DeleteAllBookings clears all bookings and force-resets every venue's
// registered count to zero, regardless of prior value.
func (s *Store) DeleteAllBookings() error {
	return s.Transact(func(snap *models.Snapshot) error {
		for i := range snap.Venues {
			snap.Venues[i].Registered = 0
		}
		snap.Bookings = []models.Booking{}
		return nil
	})
}

// UpdateSettings replaces the settings singleton.
func (s *Store) UpdateSettings(settings models.Settings) error {
	return s.Transact(func(snap *models.Snapshot) error {
		snap.Settings = settings
		return nil
	})
}

// Reset restores the default seed dataset, discarding everything else.
func (s *Store) Reset() error {
	err := s.Transact(func(snap *models.Snapshot) error {
		*snap = models.DefaultSnapshot()
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Warn().Msg("store reset to default dataset")
	return nil
}
