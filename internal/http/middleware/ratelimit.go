package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/freeplay/yourleague-service/internal/config"
	"github.com/freeplay/yourleague-service/internal/metrics"
	"github.com/freeplay/yourleague-service/internal/ratelimit"
	"github.com/freeplay/yourleague-service/internal/utils/response"
)

const (
	ActionNotify = "notify"
	ActionPush   = "push"
)

var actionChannel = map[string]string{
	ActionNotify: metrics.ChannelEmail,
	ActionPush:   metrics.ChannelPush,
}

type RateLimitConfig struct {
	limiters map[string]*ratelimit.TokenBucket
	resolver *IPResolver
}

// NewRateLimitConfig builds the per-action limiters keyed by the address
// resolver returns. A nil client disables rate limiting.
func NewRateLimitConfig(redisClient *redis.Client, cfg config.RateLimit, resolver *IPResolver) *RateLimitConfig {
	rlc := &RateLimitConfig{
		limiters: make(map[string]*ratelimit.TokenBucket),
		resolver: resolver,
	}
	if redisClient == nil {
		return rlc
	}

	// POST /notify and POST /send-cart-confirmation share one bucket per client
	if cfg.NotifyPerMinute > 0 {
		rlc.limiters[ActionNotify] = ratelimit.NewTokenBucket(redisClient, cfg.NotifyPerMinute, cfg.NotifyPerMinute)
	}

	// POST /push
	if cfg.PushPerMinute > 0 {
		rlc.limiters[ActionPush] = ratelimit.NewTokenBucket(redisClient, cfg.PushPerMinute, cfg.PushPerMinute)
	}

	return rlc
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limiter, exists := rlc.limiters[action]
		if !exists {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := rlc.resolver.ClientIP(r)

			allowed, remaining, err := limiter.Allow(r.Context(), clientID, action)
			if err != nil {
				// Fail open.
				slog.Warn("Rate limit check failed, allowing request",
					slog.String("action", action),
					slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limiter.Capacity(), 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(limiter.Window().Seconds())))

			if !allowed {
				metrics.NotificationRejectedTotal.WithLabelValues(actionChannel[action], "rate_limited").Inc()
				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					fmt.Errorf("rate limit exceeded for %s", action)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitedHandler wraps a handler with rate limiting for a specific action
func (rlc *RateLimitConfig) RateLimitedHandler(action string, handler http.HandlerFunc) http.Handler {
	return rlc.RateLimitMiddleware(action)(handler)
}
