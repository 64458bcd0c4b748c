package totp

import (
	"errors"
	"fmt"
)

const (
	DefaultDigits = 6  // Standard 6-digit codes
	DefaultPeriod = 30 // 30-second step (RFC 6238 recommendation)
	DefaultSkew   = 1  // One step either side of the current one

	MinDigits = 6
	MaxDigits = 8
	MaxPeriod = 300
	MaxSkew   = 10
)

// Option tunes code computation and verification.
type Option func(*params)

type params struct {
	period uint32
	digits uint8
	skew   uint32
}

// WithPeriod sets the step size in seconds.
func WithPeriod(seconds uint32) Option {
	return func(p *params) { p.period = seconds }
}

// WithDigits sets the number of decimal digits in a code.
func WithDigits(digits uint8) Option {
	return func(p *params) { p.digits = digits }
}

// WithSkew sets how many steps before and after the current one are accepted.
func WithSkew(steps uint32) Option {
	return func(p *params) { p.skew = steps }
}

func newParams(opts []Option) (params, error) {
	p := params{
		period: DefaultPeriod,
		digits: DefaultDigits,
		skew:   DefaultSkew,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&p)
		}
	}
	if err := p.validate(); err != nil {
		return params{}, err
	}
	return p, nil
}

func (p params) validate() error {
	if p.digits < MinDigits || p.digits > MaxDigits {
		return errors.Join(ErrInvalidParameters, fmt.Errorf("digits must be within [%d, %d], got %d", MinDigits, MaxDigits, p.digits))
	}
	if p.period == 0 || p.period > MaxPeriod {
		return errors.Join(ErrInvalidParameters, fmt.Errorf("period must be within [1, %d] seconds, got %d", MaxPeriod, p.period))
	}
	if p.skew > MaxSkew {
		return errors.Join(ErrInvalidParameters, fmt.Errorf("skew must not exceed %d steps, got %d", MaxSkew, p.skew))
	}
	return nil
}
