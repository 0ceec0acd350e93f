package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisRequestGuard_AcquireOnce(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	guard := NewRedisRequestGuard(client, time.Minute)
	key := uuid.NewString()
	defer client.Del(ctx, requestKeyPrefix+key)

	ok, err := guard.Acquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.Acquire(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := client.TTL(ctx, requestKeyPrefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisRequestGuard_ReleaseAllowsRetry(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	guard := NewRedisRequestGuard(client, time.Minute)
	key := uuid.NewString()
	defer client.Del(ctx, requestKeyPrefix+key)

	ok, err := guard.Acquire(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, guard.Release(ctx, key))

	ok, err = guard.Acquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNoopRequestGuard(t *testing.T) {
	var guard NoopRequestGuard
	for i := 0; i < 2; i++ {
		ok, err := guard.Acquire(context.Background(), "same")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.NoError(t, guard.Release(context.Background(), "same"))
}
