package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/cookie"
	"github.com/dmitrymomot/twofactor/pkg/session"
)

func setupManager(t *testing.T, opts ...session.Option) (*session.Manager, *session.MemoryStore) {
	t.Helper()

	cookieMgr, err := cookie.New([]string{"test-secret-key-that-is-long-enough"})
	require.NoError(t, err)

	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	base := []session.Option{
		session.WithStore(store),
		session.WithCookieManager(cookieMgr),
		session.WithConfig(session.Config{
			CookieName:      "test-sid",
			AnonIdleTimeout: 30 * time.Minute,
			AnonMaxLifetime: 24 * time.Hour,
			AuthIdleTimeout: 2 * time.Hour,
			AuthMaxLifetime: 30 * 24 * time.Hour,
		}),
	}
	return session.New(append(base, opts...)...), store
}

// follow builds a request carrying the cookies set on rec.
func follow(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}
