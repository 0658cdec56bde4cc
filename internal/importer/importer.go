// Package importer bulk-loads venues and groups from newline-delimited,
// tab-separated text, the contract spreadsheet exports must honor.
package importer

import (
	"strconv"
	"strings"

	"festbook/internal/metrics"
	"festbook/internal/models"
	"festbook/internal/store"

	"github.com/rs/zerolog"
)

// Minimum tab-field counts per record kind. Lines with fewer fields are
// dropped silently.
const (
	minVenueFields = 5
	minGroupFields = 2
)

// Importer parses bulk text and merges it into the store. Each import is a
// single committed snapshot write.
type Importer struct {
	store  *store.Store
	logger zerolog.Logger
}

// New creates an importer bound to the store.
func New(st *store.Store, logger zerolog.Logger) *Importer {
	return &Importer{
		store:  st,
		logger: logger.With().Str("component", "importer").Logger(),
	}
}

// ImportVenues appends one freshly-identified venue per well-formed line
// and returns the number added. Import never merges into existing venues.
func (i *Importer) ImportVenues(text string) (int, error) {
	venues := ParseVenues(text)
	if len(venues) == 0 {
		return 0, nil
	}
	err := i.store.Transact(func(snap *models.Snapshot) error {
		snap.Venues = append(snap.Venues, venues...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	metrics.AddImported("venues", len(venues))
	i.logger.Info().Int("count", len(venues)).Msg("venues imported")
	return len(venues), nil
}

// ImportGroups merges group lines by id presence: a line whose id already
// exists in the store is skipped, not updated. Returns the number of groups
// actually inserted.
func (i *Importer) ImportGroups(text string) (int, error) {
	groups := ParseGroups(text)
	added := 0
	err := i.store.Transact(func(snap *models.Snapshot) error {
		for _, g := range groups {
			if snap.Group(g.ID) != nil {
				continue
			}
			snap.Groups = append(snap.Groups, g)
			added++
		}
		if added == 0 {
			return store.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if added > 0 {
		metrics.AddImported("groups", added)
	}
	i.logger.Info().Int("count", added).Int("lines", len(groups)).Msg("groups imported")
	return added, nil
}

// ParseVenues parses venue records: shortName, name, date, category,
// capacity, then optional status (default Open) and remark. An invalid
// capacity defaults to 1. Each record gets a fresh id and zero
// registrations.
func ParseVenues(text string) []models.Venue {
	var out []models.Venue
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < minVenueFields {
			continue
		}
		capacity, err := strconv.Atoi(strings.TrimSpace(parts[4]))
		if err != nil || capacity <= 0 {
			capacity = 1
		}
		v := models.Venue{
			ID:        models.NewVenueID(),
			ShortName: strings.TrimSpace(parts[0]),
			Name:      strings.TrimSpace(parts[1]),
			Date:      strings.TrimSpace(parts[2]),
			Category:  models.NormalizeCategory(parts[3]),
			Capacity:  capacity,
			Status:    models.StatusOpen,
		}
		if len(parts) > 5 && strings.TrimSpace(parts[5]) != "" {
			v.Status = strings.TrimSpace(parts[5])
		}
		if len(parts) > 6 {
			v.Remark = strings.TrimSpace(parts[6])
		}
		out = append(out, v)
	}
	return out
}

// ParseGroups parses group records: id, name, then optional leader1 and
// leader2. Duplicates are not dropped here; the merge into the store dedups
// by id presence, so the first occurrence of an id wins.
func ParseGroups(text string) []models.Group {
	var out []models.Group
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < minGroupFields {
			continue
		}
		g := models.Group{
			ID:   strings.TrimSpace(parts[0]),
			Name: strings.TrimSpace(parts[1]),
		}
		if len(parts) > 2 {
			g.Leader1 = strings.TrimSpace(parts[2])
		}
		if len(parts) > 3 {
			g.Leader2 = strings.TrimSpace(parts[3])
		}
		out = append(out, g)
	}
	return out
}
