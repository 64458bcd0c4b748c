package ratelimiter_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/ratelimiter"
)

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL is not set")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	store := ratelimiter.NewRedisStore(client)
	cfg := ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Minute}
	key := "test:attempts:" + uuid.NewString()
	start := time.UnixMilli(1_700_000_000_000)

	take := func(at time.Time) ratelimiter.Result {
		res, err := store.Take(ctx, key, 1, at, cfg)
		require.NoError(t, err)
		return res
	}

	first := take(start)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)
	assert.Equal(t, start.Add(time.Minute), first.ResetAt)

	assert.True(t, take(start).Allowed)
	assert.False(t, take(start.Add(time.Second)).Allowed)
	assert.True(t, take(start.Add(time.Minute)).Allowed)

	ttl, err := client.PTTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Reset(ctx, key))
	exists, err := client.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
