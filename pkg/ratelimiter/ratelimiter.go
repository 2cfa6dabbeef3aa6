package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitError is returned once the attempts for a key are exhausted.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// Limiter is a fixed-window attempt counter kept in Redis. A nil client
// disables limiting.
type Limiter struct {
	rdb    *redis.Client
	prefix string
	max    int64
	window time.Duration
}

func New(rdb *redis.Client, prefix string, max int, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, prefix: prefix, max: int64(max), window: window}
}

func (l *Limiter) key(id string) string {
	return fmt.Sprintf("rate_limit:%s:%s", l.prefix, id)
}

// Check returns a *RateLimitError when id already reached the limit.
func (l *Limiter) Check(ctx context.Context, id string) error {
	if l == nil || l.rdb == nil {
		return nil
	}

	count, err := l.rdb.Get(ctx, l.key(id)).Int64()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	if count >= l.max {
		ttl, err := l.rdb.TTL(ctx, l.key(id)).Result()
		if err != nil || ttl < 0 {
			ttl = l.window
		}
		return &RateLimitError{
			Message:    "Trop de tentatives, réessayez plus tard",
			RetryAfter: ttl,
		}
	}
	return nil
}

// Hit records one attempt for id, starting the window on the first one.
func (l *Limiter) Hit(ctx context.Context, id string) error {
	if l == nil || l.rdb == nil {
		return nil
	}

	pipe := l.rdb.TxPipeline()
	pipe.Incr(ctx, l.key(id))
	pipe.ExpireNX(ctx, l.key(id), l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record attempt in redis: %w", err)
	}
	return nil
}

// Reset clears the attempts of id.
func (l *Limiter) Reset(ctx context.Context, id string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, l.key(id)).Err()
}
