package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is the server-side state behind a session token. AccountID is set
// once the primary login has identified the account.
type Session struct {
	ID             uuid.UUID      `json:"id"`
	Token          string         `json:"token"`
	AccountID      string         `json:"account_id,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	ExpiresAt      time.Time      `json:"expires_at"`
	LastActivityAt time.Time      `json:"last_activity_at"`
	CreatedAt      time.Time      `json:"created_at"`
}

// NewSession creates a session that expires at expiresAt.
func NewSession(token, accountID string, expiresAt time.Time) *Session {
	now := time.Now()
	return &Session{
		ID:             uuid.New(),
		Token:          token,
		AccountID:      accountID,
		Data:           make(map[string]any),
		ExpiresAt:      expiresAt,
		LastActivityAt: now,
		CreatedAt:      now,
	}
}

// IsAuthenticated reports whether an account is bound to the session.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.AccountID != ""
}

func (s *Session) IsExpired() bool {
	return s != nil && time.Now().After(s.ExpiresAt)
}

func (s *Session) Get(key string) (any, bool) {
	if s == nil || s.Data == nil {
		return nil, false
	}
	val, ok := s.Data[key]
	return val, ok
}

func (s *Session) GetString(key string) (string, bool) {
	val, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

func (s *Session) Set(key string, value any) {
	if s == nil {
		return
	}
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
}

func (s *Session) Delete(key string) {
	if s == nil || s.Data == nil {
		return
	}
	delete(s.Data, key)
}

// Clear drops all session data.
func (s *Session) Clear() {
	if s == nil {
		return
	}
	s.Data = make(map[string]any)
}

func (s *Session) Touch() {
	if s == nil {
		return
	}
	s.LastActivityAt = time.Now()
}

// clone returns a copy that shares no map with s.
func (s *Session) clone() *Session {
	c := *s
	if s.Data != nil {
		c.Data = make(map[string]any, len(s.Data))
		for k, v := range s.Data {
			c.Data[k] = v
		}
	}
	return &c
}
