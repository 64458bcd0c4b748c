package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Refill(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Minute}
	ms := NewMemoryStore(WithCleanupInterval(0))
	t.Cleanup(ms.Close)

	start := time.Unix(10_000, 0)
	take := func(at time.Time) Result {
		res, err := ms.Take(ctx, "k", 1, at, cfg)
		require.NoError(t, err)
		return res
	}

	assert.True(t, take(start).Allowed)
	assert.True(t, take(start).Allowed)

	denied := take(start.Add(30 * time.Second))
	assert.False(t, denied.Allowed)
	assert.Equal(t, start.Add(time.Minute), denied.ResetAt)

	// A rejected attempt consumed nothing: one refill gives exactly one token.
	assert.True(t, take(start.Add(time.Minute)).Allowed)
	assert.False(t, take(start.Add(time.Minute)).Allowed)

	// Long idle periods refill up to capacity only.
	res := take(start.Add(24 * time.Hour))
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func TestMemoryStore_RemoveStale(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute}
	ms := NewMemoryStore(WithCleanupInterval(0))
	t.Cleanup(ms.Close)

	now := time.Unix(10_000, 0)
	_, err := ms.Take(ctx, "old", 1, now, cfg)
	require.NoError(t, err)
	_, err = ms.Take(ctx, "fresh", 1, now.Add(2*time.Hour), cfg)
	require.NoError(t, err)

	ms.removeStale(now.Add(2 * time.Hour))

	ms.mu.Lock()
	defer ms.mu.Unlock()
	assert.NotContains(t, ms.buckets, "old")
	assert.Contains(t, ms.buckets, "fresh")
}

func TestMemoryStore_CloseTwice(t *testing.T) {
	t.Parallel()
	ms := NewMemoryStore(WithCleanupInterval(time.Millisecond))
	ms.Close()
	ms.Close()
}
