package secondfactor_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/secondfactor"
	"github.com/dmitrymomot/twofactor/pkg/totp"
)

var at59 = time.Unix(59, 0)

func storeWith(t *testing.T, accountID string, secrets ...string) (*secondfactor.MemoryStore, []secondfactor.Factor) {
	t.Helper()
	store := secondfactor.NewMemoryStore()
	factors := make([]secondfactor.Factor, 0, len(secrets))
	for _, s := range secrets {
		f := secondfactor.NewFactor(accountID, secondfactor.KindTOTP, s, at59)
		require.NoError(t, store.Add(context.Background(), f))
		factors = append(factors, f)
	}
	return store, factors
}

func TestMatcher_MatchesAny(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("account without factors never matches", func(t *testing.T) {
		m := secondfactor.NewMatcher(secondfactor.NewMemoryStore())
		ok, err := m.MatchesAny(ctx, "alice", "996554", at59)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("single factor", func(t *testing.T) {
		store, _ := storeWith(t, "alice", testSecret)
		m := secondfactor.NewMatcher(store)

		ok, err := m.MatchesAny(ctx, "alice", "996554", at59)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = m.MatchesAny(ctx, "alice", "123456", at59)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = m.MatchesAny(ctx, "bob", "996554", at59)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("any of many factors", func(t *testing.T) {
		store, _ := storeWith(t, "alice", otherSecret, testSecret)
		m := secondfactor.NewMatcher(store)

		ok, err := m.MatchesAny(ctx, "alice", "996554", at59)
		require.NoError(t, err)
		assert.True(t, ok)

		code, err := totp.ComputeCode(otherSecret, at59)
		require.NoError(t, err)
		ok, err = m.MatchesAny(ctx, "alice", code, at59)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("malformed codes are a mismatch", func(t *testing.T) {
		store, _ := storeWith(t, "alice", testSecret)
		m := secondfactor.NewMatcher(store)

		for _, code := range []string{"", "99655", "9965540", "abcdef", "99 655"} {
			ok, err := m.MatchesAny(ctx, "alice", code, at59)
			require.NoError(t, err, code)
			assert.False(t, ok, code)
		}
	})
}

func TestMatcher_Match(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("reports the matching factor and step", func(t *testing.T) {
		store, factors := storeWith(t, "alice", otherSecret, testSecret)
		m := secondfactor.NewMatcher(store)

		v, err := m.Match(ctx, "alice", "602287", at59)
		require.NoError(t, err)
		require.True(t, v.OK())
		assert.Equal(t, "alice", v.AccountID())
		assert.Equal(t, factors[1].ID, v.FactorID())
		assert.Equal(t, int64(2), v.Step())
	})

	t.Run("failed match is the zero verification", func(t *testing.T) {
		store, _ := storeWith(t, "alice", testSecret)
		v, err := secondfactor.NewMatcher(store).Match(ctx, "alice", "000000", at59)
		require.NoError(t, err)
		assert.False(t, v.OK())
		assert.Equal(t, uuid.Nil, v.FactorID())
	})

	t.Run("skips factors of other kinds", func(t *testing.T) {
		store := secondfactor.NewMemoryStore()
		require.NoError(t, store.Add(ctx, secondfactor.NewFactor("alice", secondfactor.Kind("webauthn"), testSecret, at59)))

		ok, err := secondfactor.NewMatcher(store).MatchesAny(ctx, "alice", "996554", at59)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("honours engine options", func(t *testing.T) {
		store, _ := storeWith(t, "alice", testSecret)
		m := secondfactor.NewMatcher(store, secondfactor.WithMatcherTOTPOptions(totp.WithSkew(0)))

		ok, err := m.MatchesAny(ctx, "alice", "282760", at59)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = m.MatchesAny(ctx, "alice", "996554", at59)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestMatcher_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("store failure", func(t *testing.T) {
		store := &storeMock{}
		store.On("FindByAccount", mock.Anything, "alice").Return(nil, errStorageDown).Once()

		ok, err := secondfactor.NewMatcher(store).MatchesAny(ctx, "alice", "996554", at59)
		require.ErrorIs(t, err, errStorageDown)
		assert.False(t, ok)
		store.AssertExpectations(t)
	})

	t.Run("undecodable stored secret", func(t *testing.T) {
		id := uuid.New()
		store := &storeMock{}
		store.On("FindByAccount", mock.Anything, "alice").Return([]secondfactor.Factor{
			{ID: id, AccountID: "alice", Kind: secondfactor.KindTOTP, Secret: "not base32!"},
		}, nil).Once()

		buf := &bytes.Buffer{}
		m := secondfactor.NewMatcher(store, secondfactor.WithMatcherLogger(logger.New(logger.WithOutput(buf))))

		_, err := m.Match(ctx, "alice", "996554", at59)
		require.ErrorIs(t, err, totp.ErrInvalidSecret)
		assert.Contains(t, buf.String(), id.String())
		store.AssertExpectations(t)
	})

	t.Run("timestamp before epoch", func(t *testing.T) {
		store, _ := storeWith(t, "alice", testSecret)
		_, err := secondfactor.NewMatcher(store).Match(ctx, "alice", "996554", time.Unix(-1, 0))
		require.ErrorIs(t, err, totp.ErrInvalidTimestamp)
	})
}

func TestMatcher_ReplayGuard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, _ := storeWith(t, "alice", testSecret)
	guard := secondfactor.NewMemoryReplayGuard(secondfactor.ReplayWindow(30, 1))
	m := secondfactor.NewMatcher(store, secondfactor.WithReplayGuard(guard))

	v, err := m.Match(ctx, "alice", "996554", at59)
	require.NoError(t, err)
	require.True(t, v.OK())

	v, err = m.Match(ctx, "alice", "996554", at59)
	require.NoError(t, err)
	assert.False(t, v.OK(), "same code must not be accepted twice")

	v, err = m.Match(ctx, "alice", "282760", at59)
	require.NoError(t, err)
	assert.False(t, v.OK(), "older step must be rejected")

	v, err = m.Match(ctx, "alice", "602287", at59)
	require.NoError(t, err)
	assert.True(t, v.OK(), "newer step is accepted")
}
