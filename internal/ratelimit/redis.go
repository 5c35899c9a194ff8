package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "login_attempts:"

var _ LoginLimiter = (*RedisLimiter)(nil)

// RedisLimiter shares attempt counters between replicas through Redis.
// INCR is atomic, so concurrent failures for the same key cannot lose an
// increment; the key TTL implements the block window from first failure.
type RedisLimiter struct {
	client      redis.UniversalClient
	maxAttempts int
	window      time.Duration
}

// NewRedisLimiter creates a Redis-backed login limiter.
func NewRedisLimiter(client redis.UniversalClient, maxAttempts int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

func (r *RedisLimiter) IsBlocked(ctx context.Context, key string) (bool, error) {
	val, err := r.client.Get(ctx, redisKeyPrefix+key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read attempt counter: %w", err)
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return false, fmt.Errorf("parse attempt counter: %w", err)
	}
	return count >= r.maxAttempts, nil
}

func (r *RedisLimiter) RecordFailure(ctx context.Context, key string) error {
	count, err := r.client.Incr(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return fmt.Errorf("increment attempt counter: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, redisKeyPrefix+key, r.window).Err(); err != nil {
			return fmt.Errorf("set attempt window: %w", err)
		}
	}
	return nil
}

func (r *RedisLimiter) RecordSuccess(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("clear attempt counter: %w", err)
	}
	return nil
}
