package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/freeplay/yourleague-service/internal/storage"
	"github.com/freeplay/yourleague-service/internal/types"
	"github.com/freeplay/yourleague-service/internal/types/media"
)

// Cache key patterns
const (
	MatchVideosKey = "videos:match:%s" // videos:match:matchID
	MatchGenKey    = "videos:gen:%s"   // videos:gen:matchID, bumped by every append
)

// fillScript stores a listing only if no append bumped the generation since
// the listing was read.
var fillScript = redis.NewScript(`
	local gen = redis.call('GET', KEYS[2]) or '0'
	if gen ~= ARGV[1] then
		return 0
	end
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
	return 1
`)

// DefaultTTL keeps a match listing hot for a short while; appends invalidate it.
const DefaultTTL = 30 * time.Second

// CatalogCache wraps catalog storage with a Redis read-through cache for
// per-match listings.
type CatalogCache struct {
	storage storage.Storage
	redis   *redis.Client
	ttl     time.Duration
}

// NewCatalogCache creates a new cache service
func NewCatalogCache(storage storage.Storage, redisClient *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CatalogCache{
		storage: storage,
		redis:   redisClient,
		ttl:     ttl,
	}
}

// Append writes through to storage, then bumps the match generation and drops
// the cached listing. A failed invalidation is returned: the record is stored
// but a stale listing may still be served.
func (c *CatalogCache) Append(ctx context.Context, rec media.VideoRecord) error {
	if err := c.storage.Append(ctx, rec); err != nil {
		return err
	}
	return c.InvalidateMatch(ctx, rec.MatchID)
}

// ListByMatch returns cached records or fetches from storage
func (c *CatalogCache) ListByMatch(ctx context.Context, matchID string) ([]media.VideoRecord, error) {
	key := fmt.Sprintf(MatchVideosKey, matchID)
	genKey := fmt.Sprintf(MatchGenKey, matchID)

	// Try cache first
	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var records []media.VideoRecord
		if err := json.Unmarshal([]byte(cached), &records); err == nil && records != nil {
			return records, nil
		}
	}

	// The generation is read before storage so a concurrent append is seen.
	gen, genErr := c.redis.Get(ctx, genKey).Result()
	if genErr == redis.Nil {
		gen, genErr = "0", nil
	}

	// Cache miss - fetch from storage
	records, err := c.storage.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return records, nil
	}

	data, err := json.Marshal(records)
	if err == nil {
		err = fillScript.Run(ctx, c.redis, []string{key, genKey}, gen, data, c.ttl.Milliseconds()).Err()
		if err != nil {
			slog.Warn("Failed to cache match videos",
				slog.String("match_id", matchID),
				slog.String("error", err.Error()))
		}
	}

	return records, nil
}

// InvalidateMatch bumps the match generation and clears its cached listing.
func (c *CatalogCache) InvalidateMatch(ctx context.Context, matchID string) error {
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, fmt.Sprintf(MatchGenKey, matchID))
		pipe.Del(ctx, fmt.Sprintf(MatchVideosKey, matchID))
		return nil
	})
	if err != nil {
		slog.Warn("Failed to invalidate match videos cache",
			slog.String("match_id", matchID),
			slog.String("error", err.Error()))
		return types.Wrap(types.ErrStorage, fmt.Errorf("invalidate match %s cache: %w", matchID, err))
	}
	return nil
}

// All is not cached; it only serves maintenance jobs.
func (c *CatalogCache) All(ctx context.Context) ([]media.VideoRecord, error) {
	return c.storage.All(ctx)
}

func (c *CatalogCache) Close() error {
	return c.storage.Close()
}
