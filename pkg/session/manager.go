package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/twofactor/pkg/cookie"
	"github.com/dmitrymomot/twofactor/pkg/logger"
)

// Manager ties a Transport to a Store and handles the session life-cycle.
type Manager struct {
	store         Store
	transport     Transport
	config        Config
	cookieManager *cookie.Manager
	cookieOptions []cookie.Option
	logger        *slog.Logger
}

// New creates a manager. Without WithStore sessions live in a MemoryStore.
// It panics when neither a transport nor a cookie manager is configured.
func New(opts ...Option) *Manager {
	m := &Manager{
		config: DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore(m.config.CleanupInterval)
	}

	if m.transport == nil {
		if m.cookieManager == nil {
			panic("session: cookie manager is required when using default cookie transport")
		}
		m.transport = NewCookieTransport(m.cookieManager, m.config.CookieName, m.cookieOptions...)
	}

	return m
}

// Load returns the session referenced by the request, or ErrSessionNotFound.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}

	session, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	return session, nil
}

// Ensure returns the request's session, starting an anonymous one when there
// is none.
func (m *Manager) Ensure(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	session, err := m.Load(ctx, r)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrSessionExpired) {
		return nil, err
	}

	return m.start(ctx, w, "")
}

// Save persists changes to session data.
func (m *Manager) Save(ctx context.Context, session *Session) error {
	session.Touch()
	return m.store.Update(ctx, session)
}

// Authenticate binds accountID to the request's session and rotates its
// token. Data is kept when the same account logs in again and dropped when
// the account changes, so state such as a passed second factor never carries
// over to another account.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request, accountID string) (*Session, error) {
	if accountID == "" {
		return nil, ErrEmptyAccountID
	}

	session, err := m.Load(ctx, r)
	if err != nil {
		return m.start(ctx, w, accountID)
	}

	if session.AccountID != accountID {
		session.Clear()
	}
	session.AccountID = accountID

	idle, lifetime := m.config.Timeouts(true)
	session.ExpiresAt = expiry(session.CreatedAt, time.Now(), idle, lifetime)

	if err := m.Rotate(ctx, w, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Rotate issues a new token for session, keeping its ID and data, and
// invalidates the old token. Call it whenever the session gains privileges.
func (m *Manager) Rotate(ctx context.Context, w http.ResponseWriter, session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}

	oldToken := session.Token
	token, err := generateToken()
	if err != nil {
		return err
	}
	session.Token = token
	session.Touch()

	if err := m.store.Create(ctx, session); err != nil {
		session.Token = oldToken
		return err
	}
	if err := m.store.Delete(ctx, oldToken); err != nil {
		m.logger.WarnContext(ctx, "failed to delete rotated session", logger.SessionID(session.ID), logger.Error(err))
	}

	idle, _ := m.config.Timeouts(session.IsAuthenticated())
	return m.transport.SetToken(w, session.Token, idle)
}

// Destroy deletes the session and clears the token on the client.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if token, err := m.transport.GetToken(r); err == nil {
		if err := m.store.Delete(ctx, token); err != nil {
			return err
		}
	}
	return m.transport.ClearToken(w)
}

func (m *Manager) start(ctx context.Context, w http.ResponseWriter, accountID string) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	idle, lifetime := m.config.Timeouts(accountID != "")
	now := time.Now()
	session := NewSession(token, accountID, expiry(now, now, idle, lifetime))

	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := m.transport.SetToken(w, session.Token, idle); err != nil {
		_ = m.store.Delete(ctx, session.Token)
		return nil, err
	}

	m.logger.DebugContext(ctx, "session started", logger.SessionID(session.ID), logger.AccountID(accountID))
	return session, nil
}

// expiry is the earlier of the idle deadline and the lifetime deadline.
func expiry(createdAt, now time.Time, idle, lifetime time.Duration) time.Time {
	idleExpiry := now.Add(idle)
	maxExpiry := createdAt.Add(lifetime)
	if maxExpiry.Before(idleExpiry) {
		return maxExpiry
	}
	return idleExpiry
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
