package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/twofactor/pkg/session"
)

func TestSession(t *testing.T) {
	t.Parallel()

	s := session.NewSession("token", "", time.Now().Add(time.Hour))
	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.IsExpired())

	s.Set("k", "v")
	got, ok := s.GetString("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	s.Set("n", 1)
	_, ok = s.GetString("n")
	assert.False(t, ok)

	s.Delete("k")
	_, ok = s.Get("k")
	assert.False(t, ok)

	s.Clear()
	assert.Empty(t, s.Data)

	s.AccountID = "alice"
	assert.True(t, s.IsAuthenticated())

	expired := session.NewSession("t", "", time.Now().Add(-time.Second))
	assert.True(t, expired.IsExpired())
}

func TestNilSession(t *testing.T) {
	t.Parallel()

	var s *session.Session
	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.IsExpired())
	_, ok := s.Get("k")
	assert.False(t, ok)
	assert.NotPanics(t, func() {
		s.Set("k", "v")
		s.Delete("k")
		s.Clear()
		s.Touch()
	})
}
