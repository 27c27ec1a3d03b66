// Package ratelimit provides a Redis-backed sliding window rate limiter
// used to throttle login attempts per client.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result contains the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Limit     int
}

// Limiter checks whether a request identified by key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// Config holds the window parameters for a limiter.
type Config struct {
	Limit  int
	Window time.Duration
}

// RedisLimiter implements sliding window rate limiting using Redis.
// A sorted set tracks request timestamps; a Lua script keeps the
// trim-count-add sequence atomic.
type RedisLimiter struct {
	client    *redis.Client
	config    Config
	keyPrefix string
}

// NewRedisLimiter creates a new rate limiter with a Redis backend.
func NewRedisLimiter(client *redis.Client, config Config, keyPrefix string) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		config:    config,
		keyPrefix: keyPrefix,
	}
}

// Uses an INCR counter to generate unique member values so two requests
// landing on the same millisecond don't collapse into one entry.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	-- Remove expired entries
	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	-- Count current requests in window
	local current = redis.call('ZCARD', key)

	if current < limit then
		local counter = redis.call('INCR', key .. ':counter')
		redis.call('ZADD', key, now, now .. ':' .. counter)
		local expire_seconds = math.ceil(window_ms / 1000)
		redis.call('EXPIRE', key, expire_seconds)
		redis.call('EXPIRE', key .. ':counter', expire_seconds)
		return {1, limit - current - 1, 0}
	else
		-- Oldest entry determines when the window frees up
		local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
		local reset_at = 0
		if oldest and #oldest >= 2 then
			reset_at = tonumber(oldest[2]) + window_ms
		end
		return {0, 0, reset_at}
	end
`)

// Allow checks if a request is allowed under the rate limit.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := time.Now()
	windowStart := now.Add(-l.config.Window)
	redisKey := l.keyPrefix + key

	result, err := slidingWindowScript.Run(ctx, l.client, []string{redisKey},
		now.UnixMilli(),
		windowStart.UnixMilli(),
		l.config.Limit,
		l.config.Window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis script error: %w", err)
	}

	if len(result) != 3 {
		return nil, fmt.Errorf("unexpected Redis response length: %d", len(result))
	}

	allowed := result[0] == 1
	remaining := int(result[1])
	resetAtMs := result[2]

	var resetAt time.Time
	if resetAtMs > 0 {
		resetAt = time.UnixMilli(resetAtMs)
	} else {
		resetAt = now.Add(l.config.Window)
	}

	return &Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   resetAt,
		Limit:     l.config.Limit,
	}, nil
}

// Reset clears the rate limit for a specific key.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	redisKey := l.keyPrefix + key
	return l.client.Del(ctx, redisKey, redisKey+":counter").Err()
}
