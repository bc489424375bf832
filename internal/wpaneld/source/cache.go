package source

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	werrors "github.com/wrale/wrale-panels/internal/wpaneld/errors"
	"github.com/wrale/wrale-panels/internal/wpaneld/rotation"
)

// DefaultSnapshotTTL is how long a snapshot survives without a refresh
const DefaultSnapshotTTL = 24 * time.Hour

const snapshotPrefix = "wpanel:snapshot:"

// snapshotStore is the subset of redis.Cmdable the cache uses
type snapshotStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// SnapshotCache keeps the last successful fetch of each source in Redis so
// a restart during a backend outage still has content to show
type SnapshotCache struct {
	store  snapshotStore
	ttl    time.Duration
	logger *slog.Logger
}

// NewSnapshotCache creates a cache. A non-positive ttl uses
// DefaultSnapshotTTL.
func NewSnapshotCache(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotCache{store: client, ttl: ttl, logger: logger}
}

// Key derives the Redis key for a source description
func (c *SnapshotCache) Key(source string) string {
	return snapshotPrefix + strconv.FormatUint(xxhash.Sum64String(source), 16)
}

// Load returns the snapshot stored under key. ok is false when there is
// none.
func (c *SnapshotCache) Load(ctx context.Context, key string) (content rotation.Content, ok bool, err error) {
	const op = "source.SnapshotCache.Load"

	data, err := c.store.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return rotation.Content{}, false, nil
	}
	if err != nil {
		return rotation.Content{}, false, werrors.NewError("UNAVAILABLE", "snapshot read failed", op, errors.Join(werrors.ErrUnavailable, err))
	}
	if err := json.Unmarshal(data, &content); err != nil {
		return rotation.Content{}, false, werrors.NewError("INTERNAL", "corrupt snapshot", op, err)
	}
	return content, true, nil
}

// Store saves content under key
func (c *SnapshotCache) Store(ctx context.Context, key string, content rotation.Content) error {
	const op = "source.SnapshotCache.Store"

	data, err := json.Marshal(content)
	if err != nil {
		return werrors.NewError("INTERNAL", "snapshot encoding failed", op, err)
	}
	if err := c.store.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return werrors.NewError("UNAVAILABLE", "snapshot write failed", op, errors.Join(werrors.ErrUnavailable, err))
	}
	return nil
}

// Wrap stores every successful fetch of src and answers failed fetches
// from the last snapshot. The original error is returned when no snapshot
// exists. Cancellation is never masked.
func (c *SnapshotCache) Wrap(key string, src Fetcher) Fetcher {
	return FetcherFunc(func(ctx context.Context) (rotation.Content, error) {
		content, err := src.Fetch(ctx)
		if err == nil {
			if serr := c.Store(ctx, key, content); serr != nil {
				c.logger.Warn("failed to store snapshot", "key", key, "error", serr)
			}
			return content, nil
		}
		if ctx.Err() != nil {
			return rotation.Content{}, err
		}

		cached, ok, lerr := c.Load(ctx, key)
		if lerr != nil {
			c.logger.Warn("failed to load snapshot", "key", key, "error", lerr)
			return rotation.Content{}, err
		}
		if !ok {
			return rotation.Content{}, err
		}
		c.logger.Info("serving cached snapshot",
			"key", key,
			"actions", len(cached.Actions),
			"error", err,
		)
		return cached, nil
	})
}
