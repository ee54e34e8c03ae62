// Package ratelimit implements a Redis-backed token bucket shared by every
// gateway replica.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "rate_limit"

// allowScript refills the bucket for the elapsed time and takes one token.
var allowScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
		last_refill = now
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return {allowed, tokens}
`)

// remainingScript reports the refilled token count without consuming one.
var remainingScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
	end
	return tokens
`)

// TokenBucket represents a token bucket rate limiter
type TokenBucket struct {
	redis    *redis.Client
	capacity int64         // Maximum number of tokens
	refill   int64         // Number of tokens to refill per window
	window   time.Duration // Time window for refilling
	now      func() time.Time
}

// NewTokenBucket creates a limiter that allows capacity requests at once and
// refills refillRate tokens per minute.
func NewTokenBucket(redisClient *redis.Client, capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		redis:    redisClient,
		capacity: capacity,
		refill:   refillRate,
		window:   time.Minute,
		now:      time.Now,
	}
}

// Capacity returns the bucket size.
func (tb *TokenBucket) Capacity() int64 { return tb.capacity }

// Window returns the refill window.
func (tb *TokenBucket) Window() time.Duration { return tb.window }

func key(clientID, action string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, action, clientID)
}

// Allow takes one token for the client's action. It returns whether the
// request may proceed and the tokens left afterwards.
func (tb *TokenBucket) Allow(ctx context.Context, clientID, action string) (bool, int64, error) {
	result, err := allowScript.Run(ctx, tb.redis, []string{key(clientID, action)},
		tb.capacity, tb.refill, int64(tb.window.Seconds()), tb.now().Unix()).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("unexpected result type from rate limit script")
	}
	allowed, ok1 := values[0].(int64)
	remaining, ok2 := values[1].(int64)
	if !ok1 || !ok2 {
		return false, 0, fmt.Errorf("unexpected result type from rate limit script")
	}

	return allowed == 1, remaining, nil
}

// GetRemaining returns the number of remaining tokens for a client action
func (tb *TokenBucket) GetRemaining(ctx context.Context, clientID, action string) (int64, error) {
	result, err := remainingScript.Run(ctx, tb.redis, []string{key(clientID, action)},
		tb.capacity, tb.refill, int64(tb.window.Seconds()), tb.now().Unix()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get remaining tokens: %w", err)
	}

	remaining, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected result type from remaining tokens script")
	}

	return remaining, nil
}

// Reset clears the rate limit for a specific client action
func (tb *TokenBucket) Reset(ctx context.Context, clientID, action string) error {
	return tb.redis.Del(ctx, key(clientID, action)).Err()
}
