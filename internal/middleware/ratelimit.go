package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/blog-backend/pkg/clientip"
	"github.com/AnshRaj112/blog-backend/pkg/retcode"
	"github.com/redis/go-redis/v9"
)

const (
	// RateLimitWindow is 120 seconds
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the maximum number of requests allowed in the window
	RateLimitMaxRequests = 120
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked
	BlockedIPDuration = 15 * time.Minute
)

// RedisRateLimiter counts requests per IP in a fixed Redis window and blocks
// IPs that exceed it. Counters are shared by every instance.
type RedisRateLimiter struct {
	rdb    redis.Cmdable
	max    int
	window time.Duration
	block  time.Duration
	logger *slog.Logger
}

func NewRedisRateLimiter(rdb redis.Cmdable, logger *slog.Logger) *RedisRateLimiter {
	return &RedisRateLimiter{
		rdb:    rdb,
		max:    RateLimitMaxRequests,
		window: RateLimitWindow,
		block:  BlockedIPDuration,
		logger: logger,
	}
}

// Middleware provides rate limiting with IP blocking. Redis failures let the
// request through.
func (l *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ipAddress := clientip.RealClientIP(r)

		blockedKey := BlockedIPKeyPrefix + ipAddress
		isBlocked, err := l.rdb.Exists(ctx, blockedKey).Result()
		if err == nil && isBlocked > 0 {
			retcode.Write(w, http.StatusTooManyRequests, retcode.New(retcode.ThrottlingErr,
				"Your IP has been temporarily blocked due to excessive requests. Please try again later."))
			return
		}

		rateLimitKey := RateLimitKeyPrefix + ipAddress
		count, err := l.rdb.Incr(ctx, rateLimitKey).Result()
		if err != nil {
			l.logger.Warn("rate limit counter unavailable", "err", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			l.rdb.Expire(ctx, rateLimitKey, l.window)
		}

		if count > int64(l.max) {
			if err := l.rdb.Set(ctx, blockedKey, "1", l.block).Err(); err != nil {
				l.logger.Warn("failed to block ip", "ip", ipAddress, "err", err)
			}
			retcode.Write(w, http.StatusTooManyRequests, retcode.New(retcode.ThrottlingErr,
				fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", int(l.block.Seconds()))))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.max))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(l.max)-count, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(l.window).Unix(), 10))

		next.ServeHTTP(w, r)
	})
}
