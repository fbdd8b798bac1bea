package sessions

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Session is the server-side record binding an issued token to a principal.
// It is created exactly once per successful login, mutated only by activity
// touches, and logically destroyed when ExpiresAt passes or on explicit
// revocation. The registry lookup is authoritative: a cryptographically
// valid token whose session is gone must be denied.
type Session struct {
	ID           uuid.UUID
	SubjectID    uuid.UUID
	TokenRef     string // SHA-256 digest of the issued token, not the token itself
	IssuedAt     time.Time
	ExpiresAt    time.Time
	LastActivity time.Time
	RevokedAt    *time.Time
}

// Valid reports whether the session exists unrevoked with expiry in the
// future, compared against the supplied clock rather than a cached one.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.RevokedAt != nil {
		return false
	}
	return s.ExpiresAt.After(now)
}

// TokenRef derives the opaque registry reference stored for an issued
// token. Storing a digest keeps raw bearer tokens out of the datastore.
func TokenRef(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}
