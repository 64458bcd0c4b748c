package secondfactor

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind tags the type of an enrolled factor.
type Kind string

const (
	KindTOTP Kind = "totp"
)

// Factor is a credential enrolled for an account. Secret is immutable once stored.
type Factor struct {
	ID        uuid.UUID `json:"id"`
	AccountID string    `json:"account_id"`
	Kind      Kind      `json:"kind"`
	Secret    string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFactor returns a factor with a fresh ID.
func NewFactor(accountID string, kind Kind, secret string, createdAt time.Time) Factor {
	return Factor{
		ID:        uuid.New(),
		AccountID: accountID,
		Kind:      kind,
		Secret:    secret,
		CreatedAt: createdAt.UTC(),
	}
}

// Validate checks the fields every store requires.
func (f Factor) Validate() error {
	if f.ID == uuid.Nil || strings.TrimSpace(f.AccountID) == "" || f.Kind == "" || f.Secret == "" {
		return ErrInvalidFactor
	}
	return nil
}
