// Package redis stores rate limit windows in Redis so that limits hold
// across daemon replicas
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wrale/wrale-panels/internal/wpaneld/ratelimit"
)

// Store implements ratelimit.Store using Redis
type Store struct {
	client redis.Cmdable
	prefix string
}

// NewStore creates a new Redis-backed rate limit store
func NewStore(client redis.Cmdable) *Store {
	return &Store{client: client, prefix: "wpanel:rate"}
}

// keyStr converts a LimitKey to a Redis key
func (s *Store) keyStr(key ratelimit.LimitKey) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s",
		s.prefix,
		key.Type,
		key.Token,
		key.RemoteIP,
		key.Endpoint,
	)
}

// Increment implements ratelimit.Store. The window starts with the first
// increment and ends when the key expires.
func (s *Store) Increment(ctx context.Context, key ratelimit.LimitKey, limit ratelimit.Limit) (int, time.Time, error) {
	redisKey := s.keyStr(key)

	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: %v", ratelimit.ErrStoreError, err)
	}

	remaining := ttl.Val()
	if remaining < 0 {
		// New key, or one left without expiry by an interrupted caller
		if err := s.client.PExpire(ctx, redisKey, limit.Period).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("%w: %v", ratelimit.ErrStoreError, err)
		}
		remaining = limit.Period
	}

	return int(incr.Val()), time.Now().Add(remaining), nil
}

// Reset implements ratelimit.Store
func (s *Store) Reset(ctx context.Context, key ratelimit.LimitKey) error {
	if err := s.client.Del(ctx, s.keyStr(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ratelimit.ErrStoreError, err)
	}
	return nil
}

// GetCount returns the current count for a key without side effects.
// Missing keys count as zero.
func (s *Store) GetCount(ctx context.Context, key ratelimit.LimitKey) (int, error) {
	n, err := s.client.Get(ctx, s.keyStr(key)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ratelimit.ErrStoreError, err)
	}
	return n, nil
}
