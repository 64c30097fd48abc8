package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter is a Redis-backed fixed-window counter. It guards verification
// code checks against brute force across all service instances.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *zap.Logger
}

// New constructs a limiter.
func New(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) *Limiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &Limiter{client: client, limit: limit, window: window, logger: logger}
}

// Allow records an attempt under key and reports whether it is within the
// window limit. Redis being unreachable fails open with a warning: losing the
// brute-force guard is preferable to locking every caller out.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("rate limiter unavailable", zap.Error(err))
		return true
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.Warn("rate limiter expire failed", zap.Error(err))
		}
	}
	return count <= int64(l.limit)
}
