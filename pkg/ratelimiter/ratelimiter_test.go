package ratelimiter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/ratelimiter"
)

func testConfig() ratelimiter.Config {
	return ratelimiter.Config{
		Capacity:       3,
		RefillRate:     1,
		RefillInterval: time.Minute,
	}
}

func newLimiter(t *testing.T, cfg ratelimiter.Config) *ratelimiter.Limiter {
	t.Helper()
	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	t.Cleanup(store.Close)

	l, err := ratelimiter.New(store, cfg)
	require.NoError(t, err)
	return l
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  ratelimiter.Config
	}{
		{"zero capacity", ratelimiter.Config{RefillRate: 1, RefillInterval: time.Second}},
		{"zero refill rate", ratelimiter.Config{Capacity: 1, RefillInterval: time.Second}},
		{"zero refill interval", ratelimiter.Config{Capacity: 1, RefillRate: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ratelimiter.New(ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0)), tt.cfg)
			assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
		})
	}
}

func TestLimiter_Allow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("allows up to capacity", func(t *testing.T) {
		t.Parallel()
		l := newLimiter(t, testConfig())

		for i := range 3 {
			res, err := l.Allow(ctx, "alice")
			require.NoError(t, err)
			assert.True(t, res.Allowed)
			assert.Equal(t, 2-i, res.Remaining)
			assert.Equal(t, 3, res.Limit)
		}

		res, err := l.Allow(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Zero(t, res.Remaining)
		assert.Positive(t, res.RetryAfter(time.Now()))
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()
		l := newLimiter(t, testConfig())

		_, err := l.AllowN(ctx, "alice", 3)
		require.NoError(t, err)

		res, err := l.Allow(ctx, "bob")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("reset refills", func(t *testing.T) {
		t.Parallel()
		l := newLimiter(t, testConfig())

		_, err := l.AllowN(ctx, "alice", 3)
		require.NoError(t, err)
		require.NoError(t, l.Reset(ctx, "alice"))

		res, err := l.Allow(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("rejects non-positive counts", func(t *testing.T) {
		t.Parallel()
		l := newLimiter(t, testConfig())

		_, err := l.AllowN(ctx, "alice", 0)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
	})

	t.Run("store failures are wrapped", func(t *testing.T) {
		t.Parallel()
		l, err := ratelimiter.New(brokenStore{}, testConfig())
		require.NoError(t, err)

		_, err = l.Allow(ctx, "alice")
		assert.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)
		assert.ErrorIs(t, l.Reset(ctx, "alice"), ratelimiter.ErrStoreUnavailable)
	})
}

var errBroken = errors.New("broken")

type brokenStore struct{}

func (brokenStore) Take(context.Context, string, int, time.Time, ratelimiter.Config) (ratelimiter.Result, error) {
	return ratelimiter.Result{}, errBroken
}

func (brokenStore) Reset(context.Context, string) error { return errBroken }

func TestResult_RetryAfter(t *testing.T) {
	t.Parallel()
	now := time.Unix(1000, 0)

	assert.Zero(t, ratelimiter.Result{Allowed: true, ResetAt: now.Add(time.Minute)}.RetryAfter(now))
	assert.Zero(t, ratelimiter.Result{ResetAt: now.Add(-time.Second)}.RetryAfter(now))
	assert.Equal(t, time.Minute, ratelimiter.Result{ResetAt: now.Add(time.Minute)}.RetryAfter(now))
}
