package secondfactor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/totp"
)

// Verification is the outcome of checking a code. The zero value is a failed
// verification; only Matcher and Enroller produce successful ones, which makes
// it the proof Tracker.Authenticate requires.
type Verification struct {
	verified  bool
	accountID string
	factorID  uuid.UUID
	step      int64
}

// OK reports whether the code was accepted.
func (v Verification) OK() bool { return v.verified }

// AccountID returns the account the code was verified for.
func (v Verification) AccountID() string { return v.accountID }

// FactorID returns the matched factor. It is uuid.Nil for enrollment proofs.
func (v Verification) FactorID() uuid.UUID { return v.factorID }

// Step returns the TOTP counter value the code matched.
func (v Verification) Step() int64 { return v.step }

// Matcher checks submitted codes against every factor enrolled for an account.
type Matcher struct {
	store    Store
	guard    ReplayGuard
	totpOpts []totp.Option
	logger   *slog.Logger
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithMatcherLogger sets the logger.
func WithMatcherLogger(l *slog.Logger) MatcherOption {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithReplayGuard rejects codes whose step is not newer than the last accepted
// step of the account.
func WithReplayGuard(g ReplayGuard) MatcherOption {
	return func(m *Matcher) { m.guard = g }
}

// WithMatcherTOTPOptions sets the engine parameters used for verification.
func WithMatcherTOTPOptions(opts ...totp.Option) MatcherOption {
	return func(m *Matcher) { m.totpOpts = opts }
}

// NewMatcher creates a matcher reading factors from store.
func NewMatcher(store Store, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MatchesAny reports whether code is valid for any factor of the account.
// An account without factors never matches.
func (m *Matcher) MatchesAny(ctx context.Context, accountID, code string, now time.Time) (bool, error) {
	v, err := m.Match(ctx, accountID, code, now)
	if err != nil {
		return false, err
	}
	return v.OK(), nil
}

// Match checks code against the account's factors in store order and stops at
// the first match. Factors of unknown kinds are skipped. Store failures and
// undecodable secrets are returned as errors; a wrong code is not.
func (m *Matcher) Match(ctx context.Context, accountID, code string, now time.Time) (Verification, error) {
	factors, err := m.store.FindByAccount(ctx, accountID)
	if err != nil {
		return Verification{}, fmt.Errorf("find second factors: %w", err)
	}

	for _, f := range factors {
		if f.Kind != KindTOTP {
			continue
		}

		step, ok, err := totp.MatchStep(f.Secret, code, now, m.totpOpts...)
		if err != nil {
			m.logger.ErrorContext(ctx, "second factor cannot be verified",
				logger.AccountID(accountID),
				logger.FactorID(f.ID),
				logger.Error(err),
			)
			return Verification{}, fmt.Errorf("verify second factor %s: %w", f.ID, err)
		}
		if !ok {
			continue
		}

		if m.guard != nil {
			accepted, err := m.guard.Accept(ctx, accountID, step)
			if err != nil {
				return Verification{}, fmt.Errorf("record accepted step: %w", err)
			}
			if !accepted {
				m.logger.WarnContext(ctx, "one-time code replayed",
					logger.AccountID(accountID),
					logger.FactorID(f.ID),
				)
				return Verification{}, nil
			}
		}

		return Verification{
			verified:  true,
			accountID: accountID,
			factorID:  f.ID,
			step:      step,
		}, nil
	}

	m.logger.DebugContext(ctx, "one-time code did not match",
		logger.AccountID(accountID),
		slog.Int("factors", len(factors)),
	)
	return Verification{}, nil
}
