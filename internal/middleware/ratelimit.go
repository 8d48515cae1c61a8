package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/bookmarks/internal/apperror"
)

// Decision is the outcome of one Limiter.Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter takes one token from the bucket named by key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// tokenBucket refills refill tokens every interval_ms, up to capacity, and
// takes one token per call. State lives in a hash so concurrent servers
// share a bucket. Returns {allowed, tokens_left, retry_after_ms}.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if interval_ms > 0 and refill > 0 then
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + intervals * refill)
		last_refill = last_refill + intervals * interval_ms
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// RedisLimiter is a token bucket stored in Redis. It refills one token per
// interval.
type RedisLimiter struct {
	rdb      redis.Scripter
	capacity int
	interval time.Duration
	prefix   string
	now      func() time.Time
}

func NewRedisLimiter(rdb redis.Scripter, capacity int, interval time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:      rdb,
		capacity: capacity,
		interval: interval,
		prefix:   "bookmarks:ratelimit:",
		now:      time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	// A bucket idle long enough to refill completely is the same as no bucket.
	ttl := int64(math.Ceil((time.Duration(l.capacity) * l.interval).Seconds())) + 1

	vals, err := tokenBucket.Run(ctx, l.rdb, []string{l.prefix + key},
		l.now().UnixMilli(),
		l.capacity,
		1,
		l.interval.Milliseconds(),
		ttl,
	).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script: %w", err)
	}
	return parseResult(vals)
}

func parseResult(vals any) (Decision, error) {
	arr, ok := vals.([]any)
	if !ok || len(arr) != 3 {
		return Decision{}, fmt.Errorf("rate limit script: unexpected result %#v", vals)
	}
	allowed, ok1 := asInt64(arr[0])
	remaining, ok2 := asInt64(arr[1])
	retryMs, ok3 := asInt64(arr[2])
	if !ok1 || !ok2 || !ok3 {
		return Decision{}, fmt.Errorf("rate limit script: unexpected result %#v", vals)
	}
	return Decision{
		Allowed:    allowed == 1,
		Remaining:  remaining,
		RetryAfter: time.Duration(retryMs) * time.Millisecond,
	}, nil
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// RateLimit keys buckets by client IP, method and path. A nil limiter
// disables it. If the limiter errors, the request is let through.
func RateLimit(limiter Limiter, capacity int, logger *slog.Logger, fail func(http.ResponseWriter, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r) + ":" + r.Method + ":" + r.URL.Path

			d, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(capacity))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))

			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				logger.Info("rate limited", slog.String("key", key), slog.Int("retry_after", secs))
				fail(w, apperror.RateLimited())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. chimiddleware.RealIP has already
// replaced it with the forwarded address when one was present.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	return r.RemoteAddr
}
