package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/brift-backend/internal/logger"
	"github.com/AnshRaj112/brift-backend/pkg/clientip"
)

const (
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
)

// RedisRateLimiter is a fixed-window counter per client IP shared by every instance. An IP that
// exceeds the limit is blocked for BlockFor. Redis failures let the request through.
type RedisRateLimiter struct {
	Client   *redis.Client
	Limit    int
	Window   time.Duration
	BlockFor time.Duration
	Log      *logger.Logger
}

// NewRedisRateLimiter uses 120 requests per minute and a 15 minute block.
func NewRedisRateLimiter(client *redis.Client, log *logger.Logger) *RedisRateLimiter {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisRateLimiter{
		Client:   client,
		Limit:    120,
		Window:   time.Minute,
		BlockFor: 15 * time.Minute,
		Log:      log.WithComponent(logger.ComponentHTTP),
	}
}

// Allow counts one request for ip and reports whether it is within the limit, with the
// remaining budget of the current window.
func (l *RedisRateLimiter) Allow(ctx context.Context, ip string) (bool, int, error) {
	blocked, err := l.Client.Exists(ctx, BlockedIPKeyPrefix+ip).Result()
	if err != nil {
		return true, l.Limit, err
	}
	if blocked > 0 {
		return false, 0, nil
	}

	key := RateLimitKeyPrefix + ip
	n, err := l.Client.Incr(ctx, key).Result()
	if err != nil {
		return true, l.Limit, err
	}
	if n == 1 {
		// First request of the window starts the clock.
		if err := l.Client.Expire(ctx, key, l.Window).Err(); err != nil {
			return true, l.Limit, err
		}
	}
	count := int(n)
	if count > l.Limit {
		if err := l.Client.Set(ctx, BlockedIPKeyPrefix+ip, "1", l.BlockFor).Err(); err != nil {
			return false, 0, err
		}
		return false, 0, nil
	}
	return true, l.Limit - count, nil
}

// Middleware applies the limiter. A nil limiter or client passes everything through.
func (l *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil || l.Client == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.RealClientIP(r)
		ok, remaining, err := l.Allow(r.Context(), ip)
		if err != nil {
			l.Log.WarnContext(r.Context(), "rate limiter unavailable", logger.FieldClientIP, ip, logger.FieldError, err)
		}
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.BlockFor.Seconds())))
			tooManyRequests(w, l.Limit, "Rate limit exceeded. Please try again later.")
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		next.ServeHTTP(w, r)
	})
}

// UnblockIP removes an IP from the blocked list.
func (l *RedisRateLimiter) UnblockIP(ctx context.Context, ip string) error {
	return l.Client.Del(ctx, BlockedIPKeyPrefix+ip).Err()
}
