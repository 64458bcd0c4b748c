package session

import (
	"context"
	"errors"
	"net/http"
)

// Scope is the session of a single request exposed as a key/value store.
// Reads never create a session; the first write starts one when needed, which
// sets the session cookie on the response. A Scope is not safe for
// concurrent use.
type Scope struct {
	manager *Manager
	w       http.ResponseWriter
	r       *http.Request
	session *Session
	loaded  bool
}

// Scope returns the request scope. A session already placed in the request
// context by Middleware is reused.
func (m *Manager) Scope(w http.ResponseWriter, r *http.Request) *Scope {
	s := &Scope{manager: m, w: w, r: r}
	if session, ok := FromContext(r.Context()); ok {
		s.session = session
		s.loaded = true
	}
	return s
}

// Session returns the loaded session, or nil when the request has none.
func (s *Scope) Session(ctx context.Context) *Session {
	s.load(ctx)
	return s.session
}

func (s *Scope) Get(ctx context.Context, key string) (any, bool) {
	s.load(ctx)
	return s.session.Get(key)
}

// GetString is Get for string values.
func (s *Scope) GetString(ctx context.Context, key string) (string, bool) {
	s.load(ctx)
	return s.session.GetString(key)
}

func (s *Scope) Set(ctx context.Context, key string, value any) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}
	s.session.Set(key, value)
	return s.manager.Save(ctx, s.session)
}

func (s *Scope) Delete(ctx context.Context, key string) error {
	s.load(ctx)
	if s.session == nil {
		return nil
	}
	if _, ok := s.session.Get(key); !ok {
		return nil
	}
	s.session.Delete(key)
	return s.manager.Save(ctx, s.session)
}

func (s *Scope) load(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true

	session, err := s.manager.Load(ctx, s.r)
	if err == nil {
		s.session = session
	}
}

func (s *Scope) ensure(ctx context.Context) error {
	s.load(ctx)
	if s.session != nil {
		return nil
	}

	session, err := s.manager.start(ctx, s.w, "")
	if err != nil {
		return errors.Join(ErrSessionNotFound, err)
	}
	s.session = session
	return nil
}

// Rotate issues a new token for the request's session. See Manager.Rotate.
func (s *Scope) Rotate(ctx context.Context) error {
	s.load(ctx)
	if s.session == nil {
		return ErrSessionNotFound
	}
	return s.manager.Rotate(ctx, s.w, s.session)
}
