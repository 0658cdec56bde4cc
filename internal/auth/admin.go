// Package auth implements the admin credential gate: a static shared-secret
// check against two precomputed SHA-256 digests. There is no lockout,
// rate limiting or rotation; this is not a user-management system.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// ErrInvalidCredentials is the only failure the gate surfaces; no further
// detail is leaked.
var ErrInvalidCredentials = errors.New("auth: invalid account or password")

// Gate grants admin access when the SHA-256 digests of both submitted
// values exactly match the configured hex digests.
type Gate struct {
	accountHash  string
	passwordHash string
	logger       zerolog.Logger
}

// NewGate creates a gate for the given hex digests.
func NewGate(accountHash, passwordHash string, logger zerolog.Logger) *Gate {
	return &Gate{
		accountHash:  strings.ToLower(accountHash),
		passwordHash: strings.ToLower(passwordHash),
		logger:       logger.With().Str("component", "auth").Logger(),
	}
}

// Authenticate checks the plaintext account and password. Inputs are
// trimmed before hashing, matching how they were originally captured.
func (g *Gate) Authenticate(account, password string) error {
	accountOK := digestMatches(strings.TrimSpace(account), g.accountHash)
	passwordOK := digestMatches(strings.TrimSpace(password), g.passwordHash)
	if !accountOK || !passwordOK {
		g.logger.Info().Msg("admin login rejected")
		return ErrInvalidCredentials
	}
	g.logger.Info().Msg("admin login accepted")
	return nil
}

func digestMatches(value, wantHex string) bool {
	sum := sha256.Sum256([]byte(value))
	got := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(got), []byte(wantHex)) == 1
}
