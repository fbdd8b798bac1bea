package sessionhint

import (
	"testing"
	"time"

	"github.com/odrpress/go-session-server/principals"
	"github.com/stretchr/testify/require"
)

func TestHintFresh(t *testing.T) {
	now := time.Now()
	hint := &Hint{
		Role:      principals.RoleClient,
		ExpiresAt: now.Add(time.Hour),
		CachedAt:  now,
	}

	require.True(t, hint.Fresh(now.Add(time.Minute), 5*time.Minute))

	// Older than the configured max age: treated as logged out
	require.False(t, hint.Fresh(now.Add(5*time.Minute), 5*time.Minute))

	// Mirrored expiry passed: treated as logged out even if recently cached
	hint.ExpiresAt = now.Add(30 * time.Second)
	require.False(t, hint.Fresh(now.Add(time.Minute), 5*time.Minute))
}

func TestHintFreshMalformedShapes(t *testing.T) {
	now := time.Now()

	var missing *Hint
	require.False(t, missing.Fresh(now, 5*time.Minute))

	// A hint without a role is malformed, never shown
	empty := &Hint{ExpiresAt: now.Add(time.Hour), CachedAt: now}
	require.False(t, empty.Fresh(now, 5*time.Minute))
}

func TestHintRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	raw, err := marshalHint(Hint{Role: principals.RoleAdmin, ExpiresAt: now.Add(time.Hour), CachedAt: now})
	require.NoError(t, err)

	hint, err := unmarshalHint(raw)
	require.NoError(t, err)
	require.Equal(t, principals.RoleAdmin, hint.Role)
	require.Equal(t, now.Add(time.Hour).Unix(), hint.ExpiresAt.Unix())
}

func TestUnmarshalHintMalformed(t *testing.T) {
	_, err := unmarshalHint([]byte("{not json"))
	require.Error(t, err)
}

func TestStoreTTLBoundedBySessionExpiry(t *testing.T) {
	now := time.Now()

	// Session outlives the max age: TTL is the max age
	hint := Hint{ExpiresAt: now.Add(time.Hour), CachedAt: now}
	require.Equal(t, 5*time.Minute, storeTTL(hint, now, 5*time.Minute))

	// Session expires first: TTL shrinks to match
	hint.ExpiresAt = now.Add(time.Minute)
	ttl := storeTTL(hint, now, 5*time.Minute)
	require.LessOrEqual(t, ttl, time.Minute)
	require.Greater(t, ttl, time.Duration(0))

	// Already-expired session still gets a positive TTL so the key ages out
	hint.ExpiresAt = now.Add(-time.Minute)
	require.Equal(t, time.Second, storeTTL(hint, now, 5*time.Minute))
}
