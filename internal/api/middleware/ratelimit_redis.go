package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims the sorted set to the window, then admits the
// request if there is room. Returns {allowed, remaining, reset_at_ms}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local current = redis.call('ZCARD', key)
	if current < limit then
		local counter = redis.call('INCR', key .. ':seq')
		redis.call('ZADD', key, now, now .. ':' .. counter)
		redis.call('PEXPIRE', key, window_ms)
		redis.call('PEXPIRE', key .. ':seq', window_ms)
		local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
		return {1, limit - current - 1, tonumber(oldest[2]) + window_ms}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local reset_at = now + window_ms
	if #oldest >= 2 then
		reset_at = tonumber(oldest[2]) + window_ms
	end
	return {0, 0, reset_at}
`)

// RedisLimiter is a sliding window limiter shared by every API instance.
type RedisLimiter struct {
	client   redis.Scripter
	prefix   string
	requests int
	window   time.Duration
}

func NewRedisLimiter(client redis.Scripter, prefix string, requests int, window time.Duration) *RedisLimiter {
	if requests <= 0 {
		requests = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		client:   client,
		prefix:   prefix,
		requests: requests,
		window:   window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (LimitResult, error) {
	now := time.Now()

	res, err := slidingWindowScript.Run(ctx, l.client, []string{l.prefix + key},
		now.UnixMilli(),
		now.Add(-l.window).UnixMilli(),
		l.requests,
		l.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return LimitResult{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 3 {
		return LimitResult{}, fmt.Errorf("unexpected rate limit response length: %d", len(res))
	}

	return LimitResult{
		Allowed:   res[0] == 1,
		Limit:     l.requests,
		Remaining: int(res[1]),
		ResetAt:   time.UnixMilli(res[2]),
	}, nil
}
