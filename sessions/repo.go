package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Registry defines the server-side session store. It enables revocation
// independent of token expiry.
type Registry interface {
	// Create inserts the session record for a successful login. It is a
	// single atomic insert, performed only after password verification and
	// token minting have both succeeded.
	Create(ctx context.Context, subjectID uuid.UUID, tokenRef string, issuedAt time.Time, ttl time.Duration) (*Session, error)

	// FindValid returns the session for tokenRef when it exists, is not
	// revoked, and expires after now. Returns nil, ErrSessionNotFound
	// otherwise.
	FindValid(ctx context.Context, tokenRef string, now time.Time) (*Session, error)

	// Touch updates LastActivity. Concurrent touches are idempotent and
	// commutative: last-writer-wins on LastActivity. ExpiresAt moves only
	// when slide > 0 (sliding expiry explicitly configured).
	Touch(ctx context.Context, sessionID uuid.UUID, now time.Time, slide time.Duration) error

	// Revoke invalidates a single session. Idempotent.
	Revoke(ctx context.Context, sessionID uuid.UUID, now time.Time) error

	// RevokeAllForSubject invalidates every live session of a principal.
	RevokeAllForSubject(ctx context.Context, subjectID uuid.UUID, now time.Time) error

	// ListForSubject returns sessions belonging to a principal, newest first.
	ListForSubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*Session, error)

	// DeleteExpired removes sessions whose expiry passed before cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
