package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	logger "github.com/studiohub/studiohub/middleware/log"
)

// Limiter gates message sends per user. The Redis implementation shares
// counters across gateway nodes.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Reset(ctx context.Context, key string) error
}

// TokenBucketLimiter counts requests in fixed Redis windows. With fallback
// enabled the limiter fails open: losing Redis must not silence the chat.
type TokenBucketLimiter struct {
	client   *redis.Client
	log      *logger.Logger
	fallback bool
}

func NewTokenBucketLimiter(client *redis.Client, log *logger.Logger, fallback bool) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		client:   client,
		log:      log,
		fallback: fallback,
	}
}

// Allow consumes one token from the key's bucket.
func (l *TokenBucketLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	bucketKey := l.bucketKey(key, time.Now(), window)

	pipe := l.client.Pipeline()
	incrCmd := pipe.Incr(ctx, bucketKey)
	pipe.Expire(ctx, bucketKey, window+time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		if l.fallback {
			l.log.Warn("rate limit check failed, allowing request",
				zap.String("key", key),
				zap.Error(err),
			)
			return true, nil
		}
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	count := incrCmd.Val()
	allowed := count <= int64(limit)
	if !allowed {
		l.log.Warn("rate limit exceeded",
			zap.String("key", key),
			zap.Int64("count", count),
			zap.Int("limit", limit),
		)
	}
	return allowed, nil
}

// Reset clears the current and previous minute buckets for a key.
func (l *TokenBucketLimiter) Reset(ctx context.Context, key string) error {
	now := time.Now()
	keys := []string{
		l.bucketKey(key, now, time.Minute),
		l.bucketKey(key, now.Add(-time.Minute), time.Minute),
	}
	if err := l.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit for key %s: %w", key, err)
	}
	return nil
}

func (l *TokenBucketLimiter) bucketKey(key string, now time.Time, window time.Duration) string {
	bucket := now.Unix() / int64(window.Seconds())
	return fmt.Sprintf("ratelimit:%s:%d", key, bucket)
}
