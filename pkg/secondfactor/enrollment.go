package secondfactor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/totp"
)

// Candidate is a freshly generated secret awaiting confirmation. It must not be
// persisted as a factor until Confirm succeeds.
type Candidate struct {
	Secret string
	URI    string
}

// Enroller registers new TOTP factors.
type Enroller struct {
	store    Store
	totpOpts []totp.Option
	guard    ReplayGuard
	logger   *slog.Logger
}

// EnrollerOption configures an Enroller.
type EnrollerOption func(*Enroller)

// WithEnrollerLogger sets the logger.
func WithEnrollerLogger(l *slog.Logger) EnrollerOption {
	return func(e *Enroller) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEnrollerTOTPOptions sets the engine parameters for provisioning and confirmation.
func WithEnrollerTOTPOptions(opts ...totp.Option) EnrollerOption {
	return func(e *Enroller) { e.totpOpts = opts }
}

// WithEnrollerReplayGuard records the step of a confirmed enrollment code so
// the same code cannot also pass the challenge. Share the matcher's guard.
func WithEnrollerReplayGuard(g ReplayGuard) EnrollerOption {
	return func(e *Enroller) { e.guard = g }
}

// NewEnroller creates an enroller writing factors to store.
func NewEnroller(store Store, opts ...EnrollerOption) *Enroller {
	e := &Enroller{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Begin generates a candidate secret and its provisioning URI.
func (e *Enroller) Begin(accountID, issuer string) (Candidate, error) {
	secret, err := totp.GenerateSecret()
	if err != nil {
		return Candidate{}, err
	}

	uri, err := totp.ProvisioningURI(accountID, secret, issuer, e.totpOpts...)
	if err != nil {
		return Candidate{}, err
	}

	return Candidate{Secret: secret, URI: uri}, nil
}

// Confirm checks code against the candidate secret. On success it stores a new
// TOTP factor and marks the session authenticated. A wrong code returns false
// and leaves both the store and the session untouched.
func (e *Enroller) Confirm(ctx context.Context, tracker *Tracker, accountID, candidateSecret, code string, now time.Time) (bool, error) {
	if tracker == nil {
		return false, ErrSessionNotAvailable
	}

	step, ok, err := totp.MatchStep(candidateSecret, code, now, e.totpOpts...)
	if err != nil {
		return false, err
	}
	if !ok {
		e.logger.InfoContext(ctx, "enrollment code rejected", logger.AccountID(accountID))
		return false, nil
	}

	// The secret is new, so an older step recorded for the account does not
	// make this code a replay; only the record matters.
	if e.guard != nil {
		if _, err := e.guard.Accept(ctx, accountID, step); err != nil {
			return false, fmt.Errorf("record accepted step: %w", err)
		}
	}

	factor := NewFactor(accountID, KindTOTP, candidateSecret, now)
	if err := e.store.Add(ctx, factor); err != nil {
		return false, fmt.Errorf("add second factor: %w", err)
	}

	proof := Verification{
		verified:  true,
		accountID: accountID,
		factorID:  factor.ID,
		step:      step,
	}
	if err := tracker.Authenticate(ctx, proof); err != nil {
		return false, err
	}

	e.logger.InfoContext(ctx, "second factor enrolled",
		logger.AccountID(accountID),
		logger.FactorID(factor.ID),
	)
	return true, nil
}
