package twofactor_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/modules/twofactor"
	"github.com/dmitrymomot/twofactor/pkg/cookie"
	"github.com/dmitrymomot/twofactor/pkg/secondfactor"
	"github.com/dmitrymomot/twofactor/pkg/session"
	"github.com/dmitrymomot/twofactor/pkg/totp"
)

const testSecret = "JBSWY3DPEHPK3PXP"

var testNow = time.Unix(1_700_000_000, 0)

type testApp struct {
	handler  http.Handler
	store    *secondfactor.MemoryStore
	sessions *session.MemoryStore
}

func newTestApp(t *testing.T, opts ...twofactor.ServiceOption) *testApp {
	t.Helper()

	cookieMgr, err := cookie.New([]string{"test-secret-key-that-is-long-enough"}, cookie.WithSecure(false))
	require.NoError(t, err)

	sessionStore := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = sessionStore.Close() })

	sessions := session.New(
		session.WithStore(sessionStore),
		session.WithCookieManager(cookieMgr),
		session.WithConfig(session.Config{
			CookieName:      "test-sid",
			AnonIdleTimeout: 30 * time.Minute,
			AnonMaxLifetime: 24 * time.Hour,
			AuthIdleTimeout: 2 * time.Hour,
			AuthMaxLifetime: 30 * 24 * time.Hour,
		}),
	)

	store := secondfactor.NewMemoryStore()
	guard := secondfactor.NewMemoryReplayGuard(time.Minute)
	svc := twofactor.NewService(
		twofactor.DefaultConfig(),
		sessions,
		store,
		secondfactor.NewMatcher(store, secondfactor.WithReplayGuard(guard)),
		secondfactor.NewEnroller(store, secondfactor.WithEnrollerReplayGuard(guard)),
		append([]twofactor.ServiceOption{twofactor.WithClock(func() time.Time { return testNow })}, opts...)...,
	)

	r := chi.NewRouter()
	r.Use(sessions.Middleware)
	r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
		if _, err := sessions.Authenticate(r.Context(), w, r, r.PostFormValue("account")); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Mount("/second-factor", svc.Handle())
	r.With(svc.RequireSecondFactor).Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("dashboard"))
	})
	r.With(svc.RequireSecondFactor).Post("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return &testApp{handler: r, store: store, sessions: sessionStore}
}

// enroll stores a factor for accountID directly, bypassing the HTTP flow.
func (a *testApp) enroll(t *testing.T, accountID, secret string) {
	t.Helper()
	f := secondfactor.NewFactor(accountID, secondfactor.KindTOTP, secret, testNow)
	require.NoError(t, a.store.Add(context.Background(), f))
}

// browser replays the cookies set by earlier responses.
type browser struct {
	t       *testing.T
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) browser(t *testing.T) *browser {
	return &browser{t: t, app: a, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	b.app.handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) login(accountID string) {
	b.t.Helper()
	rec := b.do(http.MethodPost, "/login", url.Values{"account": {accountID}})
	require.Equal(b.t, http.StatusNoContent, rec.Code)
}

func (b *browser) submitOTP(target, code string) *httptest.ResponseRecorder {
	b.t.Helper()
	return b.do(http.MethodPost, target, url.Values{"otp": {code}})
}

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.ComputeCode(secret, at)
	require.NoError(t, err)
	return code
}

type envelope[T any] struct {
	Data  T `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var body envelope[T]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

type setupBody struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
	QRCode string `json:"qr_code"`
}

type challengeBody struct {
	Account string `json:"account"`
	Issuer  string `json:"issuer"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
