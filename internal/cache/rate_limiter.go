package cache

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter counts events per key inside a rolling window. A nil limiter
// or a Redis error fails open: payment initiation must not break because
// the cache is down.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	logger *log.Logger
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration, logger *log.Logger) *RateLimiter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &RateLimiter{client: client, limit: int64(limit), window: window, logger: logger}
}

// Allow increments the counter for key and reports whether the count is
// still within the limit.
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, "ratelimit:"+key)
	pipe.Expire(ctx, "ratelimit:"+key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Printf("rate limit check failed for %s: %v", key, err)
		return true
	}
	return incr.Val() <= l.limit
}
