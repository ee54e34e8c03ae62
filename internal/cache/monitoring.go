package cache

import (
	"net/http"

	"github.com/go-redis/redis/v8"

	"github.com/freeplay/yourleague-service/internal/utils/response"
)

// matchVideosPattern matches every cached match listing.
const matchVideosPattern = "videos:match:*"

// CacheStats represents cache statistics
type CacheStats struct {
	RedisConnected bool     `json:"redis_connected"`
	CachedMatches  []string `json:"cached_matches_sample"`
	KeyCount       int      `json:"total_keys"`
}

// GetCacheStats returns cache statistics
func GetCacheStats(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stats := CacheStats{RedisConnected: true}

		// Test Redis connection
		if err := redisClient.Ping(ctx).Err(); err != nil {
			stats.RedisConnected = false
			response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
			return
		}

		// Get cached match listings (sample)
		keys := redisClient.Keys(ctx, matchVideosPattern)
		if keys.Err() == nil {
			stats.CachedMatches = keys.Val()
			if len(stats.CachedMatches) > 10 {
				stats.CachedMatches = stats.CachedMatches[:10] // Show only first 10
			}
		}

		// Get total key count
		dbSize := redisClient.DBSize(ctx)
		if dbSize.Err() == nil {
			stats.KeyCount = int(dbSize.Val())
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache stats retrieved", stats))
	}
}

// ClearCache drops every cached match listing.
func ClearCache(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		keys := redisClient.Keys(ctx, matchVideosPattern)
		if keys.Err() != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(keys.Err()))
			return
		}

		if len(keys.Val()) == 0 {
			result := map[string]interface{}{
				"pattern":      matchVideosPattern,
				"deleted_keys": 0,
			}
			response.WriteJSON(w, http.StatusOK, response.RequestOK("No cache keys to clear", result))
			return
		}

		deleted := redisClient.Del(ctx, keys.Val()...)
		if deleted.Err() != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(deleted.Err()))
			return
		}

		result := map[string]interface{}{
			"pattern":      matchVideosPattern,
			"deleted_keys": deleted.Val(),
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Cache cleared successfully", result))
	}
}
