// Package session resolves group logins into an acting identity and keeps
// at most one identity record in session-scoped storage.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"festbook/internal/metrics"
	"festbook/internal/models"
	"festbook/internal/store"

	"github.com/rs/zerolog"
)

var (
	// ErrEmptyID is returned when the submitted group id is blank.
	ErrEmptyID = errors.New("session: group id is required")

	// ErrGroupNotFound is returned when the roster is non-empty and the
	// submitted id matches none of it.
	ErrGroupNotFound = errors.New("session: group id not found")
)

// Manager owns the session-scoped identity. The identity is persisted as a
// single JSON record so a restarted process restores the logged-in session.
type Manager struct {
	path     string
	store    *store.Store
	logger   zerolog.Logger
	identity *models.Identity
}

// NewManager creates a session manager backed by the file at path and
// restores a previously stored identity if one exists.
func NewManager(path string, st *store.Store, logger zerolog.Logger) *Manager {
	m := &Manager{
		path:   path,
		store:  st,
		logger: logger.With().Str("component", "session").Logger(),
	}
	m.restore()
	return m
}

func (m *Manager) restore() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return
	}
	var identity models.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		m.logger.Warn().Err(err).Msg("discarding unreadable session record")
		os.Remove(m.path)
		return
	}
	m.identity = &identity
	m.logger.Debug().Str("group_id", identity.GroupID).Msg("session restored")
}

// Login resolves the submitted id into an acting identity. When the group
// roster is non-empty the id must match an existing group; an empty roster
// means open enrollment, and any non-empty id becomes a valid transient
// identity. The identity is persisted before Login returns.
func (m *Manager) Login(submittedID string) (models.Identity, error) {
	id := strings.TrimSpace(submittedID)
	if id == "" {
		metrics.IncLogin("rejected")
		return models.Identity{}, ErrEmptyID
	}

	groups := m.store.Groups()
	group, found := m.store.Group(id)
	if len(groups) > 0 && !found {
		metrics.IncLogin("not_found")
		m.logger.Info().Str("group_id", id).Msg("login rejected: unknown group")
		return models.Identity{}, ErrGroupNotFound
	}

	name := fmt.Sprintf("Group %s", id)
	if found {
		name = group.Name
	}
	identity := models.Identity{
		ID:      id,
		Name:    name,
		GroupID: id,
		Role:    models.RoleLeader,
	}
	if err := m.persist(identity); err != nil {
		return models.Identity{}, err
	}
	m.identity = &identity

	metrics.IncLogin("ok")
	m.logger.Info().Str("group_id", id).Str("name", name).Msg("logged in")
	return identity, nil
}

func (m *Manager) persist(identity models.Identity) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session record: %w", err)
	}
	return nil
}

// Logout clears the session-scoped identity.
func (m *Manager) Logout() {
	m.identity = nil
	os.Remove(m.path)
	m.logger.Info().Msg("logged out")
}

// Current returns the acting identity, if any.
func (m *Manager) Current() (models.Identity, bool) {
	if m.identity == nil {
		return models.Identity{}, false
	}
	return *m.identity, true
}
