package secondfactor_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/secondfactor"
	"github.com/dmitrymomot/twofactor/pkg/totp"
)

func TestEnroller_Begin(t *testing.T) {
	t.Parallel()

	store := secondfactor.NewMemoryStore()
	e := secondfactor.NewEnroller(store)

	c, err := e.Begin("alice", "Acme")
	require.NoError(t, err)
	assert.Len(t, c.Secret, 32)
	assert.Regexp(t, totp.ValidateSecretKeyRegex, c.Secret)
	assert.Equal(t, "otpauth://totp/alice?secret="+c.Secret+"&period=30&issuer=Acme", c.URI)
	assert.Zero(t, store.Count(), "candidate must not be persisted")

	other, err := e.Begin("alice", "Acme")
	require.NoError(t, err)
	assert.NotEqual(t, c.Secret, other.Secret)

	_, err = e.Begin("", "Acme")
	require.ErrorIs(t, err, totp.ErrMissingAccountName)
	_, err = e.Begin("alice", "")
	require.ErrorIs(t, err, totp.ErrMissingIssuer)
}

func TestEnroller_Confirm(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid code stores factor and authenticates", func(t *testing.T) {
		store := secondfactor.NewMemoryStore()
		storage := newMemoryStorage()
		tracker := secondfactor.NewTracker(storage)
		e := secondfactor.NewEnroller(store)

		c, err := e.Begin("alice", "Acme")
		require.NoError(t, err)
		now := time.Now()
		code, err := totp.ComputeCode(c.Secret, now)
		require.NoError(t, err)

		ok, err := e.Confirm(ctx, tracker, "alice", c.Secret, code, now)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, tracker.IsAuthenticated(ctx))

		factors, err := store.FindByAccount(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, factors, 1)
		assert.Equal(t, c.Secret, factors[0].Secret)
		assert.Equal(t, secondfactor.KindTOTP, factors[0].Kind)

		matched, err := secondfactor.NewMatcher(store).MatchesAny(ctx, "alice", code, now)
		require.NoError(t, err)
		assert.True(t, matched)
	})

	t.Run("wrong code changes nothing", func(t *testing.T) {
		store := secondfactor.NewMemoryStore()
		storage := newMemoryStorage()
		tracker := secondfactor.NewTracker(storage)

		ok, err := secondfactor.NewEnroller(store).Confirm(ctx, tracker, "alice", testSecret, "123456", at59)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, store.Count())
		assert.Zero(t, storage.sets)
		assert.False(t, tracker.IsAuthenticated(ctx))
	})

	t.Run("second factor can be added", func(t *testing.T) {
		store, _ := storeWith(t, "alice", otherSecret)
		tracker := secondfactor.NewTracker(newMemoryStorage())

		ok, err := secondfactor.NewEnroller(store).Confirm(ctx, tracker, "alice", testSecret, "996554", at59)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 2, store.Count())
	})

	t.Run("missing session", func(t *testing.T) {
		store := secondfactor.NewMemoryStore()
		ok, err := secondfactor.NewEnroller(store).Confirm(ctx, nil, "alice", testSecret, "996554", at59)
		require.ErrorIs(t, err, secondfactor.ErrSessionNotAvailable)
		assert.False(t, ok)
		assert.Zero(t, store.Count())
	})

	t.Run("session write failure propagates", func(t *testing.T) {
		storage := newMemoryStorage()
		storage.setErr = errStorageDown

		ok, err := secondfactor.NewEnroller(secondfactor.NewMemoryStore()).
			Confirm(ctx, secondfactor.NewTracker(storage), "alice", testSecret, "996554", at59)
		require.ErrorIs(t, err, secondfactor.ErrSessionNotAvailable)
		assert.False(t, ok)
	})

	t.Run("store failure leaves session untouched", func(t *testing.T) {
		store := &storeMock{}
		store.On("Add", mock.Anything, mock.MatchedBy(func(f secondfactor.Factor) bool {
			return f.AccountID == "alice" && f.Secret == testSecret && f.Kind == secondfactor.KindTOTP
		})).Return(errStorageDown).Once()
		tracker := secondfactor.NewTracker(newMemoryStorage())

		ok, err := secondfactor.NewEnroller(store).Confirm(ctx, tracker, "alice", testSecret, "996554", at59)
		require.ErrorIs(t, err, errStorageDown)
		assert.False(t, ok)
		assert.False(t, tracker.IsAuthenticated(ctx))
		store.AssertExpectations(t)
	})

	t.Run("invalid candidate secret", func(t *testing.T) {
		tracker := secondfactor.NewTracker(newMemoryStorage())
		_, err := secondfactor.NewEnroller(secondfactor.NewMemoryStore()).
			Confirm(ctx, tracker, "alice", strings.Repeat("1", 16), "996554", at59)
		require.ErrorIs(t, err, totp.ErrInvalidSecret)
	})

	t.Run("custom digits", func(t *testing.T) {
		e := secondfactor.NewEnroller(secondfactor.NewMemoryStore(),
			secondfactor.WithEnrollerTOTPOptions(totp.WithDigits(8)))

		c, err := e.Begin("alice", "Acme")
		require.NoError(t, err)
		assert.Contains(t, c.URI, "&digits=8")

		code, err := totp.ComputeCode(c.Secret, at59, totp.WithDigits(8))
		require.NoError(t, err)
		ok, err := e.Confirm(ctx, secondfactor.NewTracker(newMemoryStorage()), "alice", c.Secret, code, at59)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestEnroller_ReplayGuard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("confirmed code cannot pass the challenge again", func(t *testing.T) {
		t.Parallel()
		store := secondfactor.NewMemoryStore()
		guard := secondfactor.NewMemoryReplayGuard(secondfactor.ReplayWindow(30, 1))
		e := secondfactor.NewEnroller(store, secondfactor.WithEnrollerReplayGuard(guard))
		m := secondfactor.NewMatcher(store, secondfactor.WithReplayGuard(guard))

		ok, err := e.Confirm(ctx, secondfactor.NewTracker(newMemoryStorage()), "alice", testSecret, "996554", at59)
		require.NoError(t, err)
		require.True(t, ok)

		matched, err := m.MatchesAny(ctx, "alice", "996554", at59)
		require.NoError(t, err)
		assert.False(t, matched)

		// the next step is still accepted
		matched, err = m.MatchesAny(ctx, "alice", "602287", at59.Add(30*time.Second))
		require.NoError(t, err)
		assert.True(t, matched)
	})

	t.Run("earlier accepted step does not block a new secret", func(t *testing.T) {
		t.Parallel()
		store, _ := storeWith(t, "alice", otherSecret)
		guard := secondfactor.NewMemoryReplayGuard(secondfactor.ReplayWindow(30, 1))
		_, err := guard.Accept(ctx, "alice", 1)
		require.NoError(t, err)

		e := secondfactor.NewEnroller(store, secondfactor.WithEnrollerReplayGuard(guard))
		ok, err := e.Confirm(ctx, secondfactor.NewTracker(newMemoryStorage()), "alice", testSecret, "996554", at59)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 2, store.Count())
	})

	t.Run("guard failure aborts enrollment", func(t *testing.T) {
		t.Parallel()
		store := secondfactor.NewMemoryStore()
		tracker := secondfactor.NewTracker(newMemoryStorage())
		guard := replayGuardFunc(func(context.Context, string, int64) (bool, error) {
			return false, errStorageDown
		})

		ok, err := secondfactor.NewEnroller(store, secondfactor.WithEnrollerReplayGuard(guard)).
			Confirm(ctx, tracker, "alice", testSecret, "996554", at59)
		require.ErrorIs(t, err, errStorageDown)
		assert.False(t, ok)
		assert.Zero(t, store.Count())
		assert.False(t, tracker.IsAuthenticated(ctx))
	})
}
