package sessionhint

import (
	"context"
	"encoding/json"
	"time"
)

// Store holds hints keyed by the session's opaque token reference, so a
// lookup needs no registry round trip. Implementations are caches: a miss
// is never an error, and malformed entries are cleared on read.
type Store interface {
	Put(ctx context.Context, tokenRef string, hint Hint) error
	Get(ctx context.Context, tokenRef string) (*Hint, error)
	Clear(ctx context.Context, tokenRef string) error
}

func marshalHint(hint Hint) ([]byte, error) {
	return json.Marshal(hint)
}

func unmarshalHint(raw []byte) (*Hint, error) {
	var hint Hint
	if err := json.Unmarshal(raw, &hint); err != nil {
		return nil, err
	}
	return &hint, nil
}

func storeTTL(hint Hint, now time.Time, maxAge time.Duration) time.Duration {
	ttl := maxAge
	if until := hint.ExpiresAt.Sub(now); until > 0 && until < ttl {
		ttl = until
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return ttl
}
