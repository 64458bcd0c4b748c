package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/logger"
)

func TestGroup(t *testing.T) {
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	assert.True(t, logger.Errors(nil).Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestAccountID(t *testing.T) {
	attr := logger.AccountID("alice")
	require.Equal(t, "account_id", attr.Key)
	assert.Equal(t, "alice", attr.Value.String())

	assert.True(t, logger.AccountID("").Equal(slog.Attr{}))
}

func TestFactorID(t *testing.T) {
	id := uuid.New()
	attr := logger.FactorID(id)
	require.Equal(t, "factor_id", attr.Key)
	assert.Equal(t, id, attr.Value.Any())

	assert.True(t, logger.FactorID(nil).Equal(slog.Attr{}))
}

func TestSessionAndRequestID(t *testing.T) {
	assert.Equal(t, "session_id", logger.SessionID("s1").Key)
	assert.Equal(t, "request_id", logger.RequestID("r1").Key)
	assert.True(t, logger.RequestID(nil).Equal(slog.Attr{}))
}
