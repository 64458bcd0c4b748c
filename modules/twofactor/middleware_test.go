package twofactor_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireSecondFactor(t *testing.T) {
	t.Parallel()

	t.Run("no account", func(t *testing.T) {
		t.Parallel()
		b := newTestApp(t).browser(t)

		rec := b.do(http.MethodGet, "/dashboard", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("account without factors goes to setup", func(t *testing.T) {
		t.Parallel()
		b := newTestApp(t).browser(t)
		b.login("alice")

		rec := b.do(http.MethodGet, "/dashboard", nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/second-factor/setup", rec.Header().Get("Location"))
	})

	t.Run("enrolled account goes to the challenge", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		app.enroll(t, "alice", testSecret)
		b := app.browser(t)
		b.login("alice")

		rec := b.do(http.MethodGet, "/dashboard", nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/second-factor", rec.Header().Get("Location"))
	})

	t.Run("non-GET requests are not resumed", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		app.enroll(t, "alice", testSecret)
		b := app.browser(t)
		b.login("alice")

		rec := b.do(http.MethodPost, "/dashboard", nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)

		rec = b.submitOTP("/second-factor", codeAt(t, testSecret, testNow))
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("passes once authenticated", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		b := app.browser(t)
		b.login("alice")

		body := decode[setupBody](t, b.do(http.MethodGet, "/second-factor/setup", nil)).Data
		require.Equal(t, http.StatusSeeOther, b.submitOTP("/second-factor/setup", codeAt(t, body.Secret, testNow)).Code)

		rec := b.do(http.MethodPost, "/dashboard", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
