// Package sessionhint caches a small {role, expiry} mirror of a session so
// a client can decide whether to render a loading state before its first
// server round trip. It is never the source of truth: the access guard does
// not read it, and every hint is superseded by a server-side check.
package sessionhint

import (
	"time"

	"github.com/odrpress/go-session-server/principals"
)

// Hint is the cached, non-authoritative mirror of a session.
type Hint struct {
	Role      principals.RoleType `json:"role"`
	ExpiresAt time.Time           `json:"expires_at"`
	CachedAt  time.Time           `json:"cached_at"`
}

// Fresh reports whether the hint may still be shown. A hint older than
// maxAge, or one whose mirrored expiry has passed, is treated as logged out.
func (h *Hint) Fresh(now time.Time, maxAge time.Duration) bool {
	if h == nil || h.Role == "" {
		return false
	}
	if now.Sub(h.CachedAt) >= maxAge {
		return false
	}
	return h.ExpiresAt.After(now)
}
