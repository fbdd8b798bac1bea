package sessionhint

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:hint:"

// RedisStore keeps hints in Redis with a TTL bounded by both the configured
// hint max-age and the mirrored session expiry.
type RedisStore struct {
	client  *redis.Client
	maxAge  time.Duration
	nowTime func() time.Time
}

// NewRedisStore creates a hint cache backed by the given Redis client.
func NewRedisStore(client *redis.Client, maxAge time.Duration) *RedisStore {
	return &RedisStore{
		client:  client,
		maxAge:  maxAge,
		nowTime: time.Now,
	}
}

func (s *RedisStore) Put(ctx context.Context, tokenRef string, hint Hint) error {
	raw, err := marshalHint(hint)
	if err != nil {
		return err
	}
	ttl := storeTTL(hint, s.nowTime(), s.maxAge)
	return s.client.Set(ctx, keyPrefix+tokenRef, raw, ttl).Err()
}

// Get returns nil on a miss. A malformed entry is deleted and reported as a
// miss rather than surfaced: the cache treats it as logged out.
func (s *RedisStore) Get(ctx context.Context, tokenRef string) (*Hint, error) {
	raw, err := s.client.Get(ctx, keyPrefix+tokenRef).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	hint, err := unmarshalHint(raw)
	if err != nil {
		_ = s.client.Del(ctx, keyPrefix+tokenRef).Err()
		return nil, nil
	}
	return hint, nil
}

func (s *RedisStore) Clear(ctx context.Context, tokenRef string) error {
	return s.client.Del(ctx, keyPrefix+tokenRef).Err()
}

var _ Store = (*RedisStore)(nil)
