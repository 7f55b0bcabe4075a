package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	logger "github.com/studiohub/studiohub/middleware/log"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return client, mr
}

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func TestTokenBucketLimiter_Allow(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	limiter := NewTokenBucketLimiter(client, testLogger(), false)

	ctx := context.Background()
	key := "messages:user:123"
	limit := 5

	for i := range limit {
		allowed, err := limiter.Allow(ctx, key, limit, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, key, limit, time.Minute)
	assert.NoError(t, err)
	assert.False(t, allowed, "request should be denied after limit exceeded")
}

func TestTokenBucketLimiter_KeysAreIndependent(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	limiter := NewTokenBucketLimiter(client, testLogger(), false)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "messages:user:1", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "messages:user:1", 1, time.Minute)
	require.NoError(t, err)
	require.False(t, allowed)

	// Another user's bucket is untouched.
	allowed, err = limiter.Allow(ctx, "messages:user:2", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestTokenBucketLimiter_Reset(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	limiter := NewTokenBucketLimiter(client, testLogger(), false)
	ctx := context.Background()
	key := "messages:user:123"

	allowed, err := limiter.Allow(ctx, key, 1, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, key, 1, time.Minute)
	require.NoError(t, err)
	require.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, key))

	allowed, err = limiter.Allow(ctx, key, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestTokenBucketLimiter_FailOpen(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close() // Redis is down from the start.
	defer client.Close()

	ctx := context.Background()

	open := NewTokenBucketLimiter(client, testLogger(), true)
	allowed, err := open.Allow(ctx, "messages:user:123", 1, time.Minute)
	assert.NoError(t, err)
	assert.True(t, allowed, "fail-open limiter allows when redis is gone")

	closed := NewTokenBucketLimiter(client, testLogger(), false)
	_, err = closed.Allow(ctx, "messages:user:123", 1, time.Minute)
	assert.Error(t, err, "fail-closed limiter surfaces the outage")
}
