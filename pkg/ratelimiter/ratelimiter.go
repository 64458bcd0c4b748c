package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Limiter throttles attempts per key with a token bucket.
type Limiter struct {
	store  Store
	config Config
	now    func() time.Time
}

// New validates cfg and returns a limiter backed by store.
func New(store Store, cfg Config) (*Limiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Limiter{store: store, config: cfg, now: time.Now}, nil
}

// Allow consumes one attempt for key.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	return l.AllowN(ctx, key, 1)
}

// AllowN consumes n attempts for key. A rejected call consumes nothing.
func (l *Limiter) AllowN(ctx context.Context, key string, n int) (Result, error) {
	if n <= 0 {
		return Result{}, fmt.Errorf("%w: must be positive, got %d", ErrInvalidTokenCount, n)
	}

	res, err := l.store.Take(ctx, l.config.KeyPrefix+key, n, l.now(), l.config)
	if err != nil {
		return Result{}, errors.Join(ErrStoreUnavailable, err)
	}
	return res, nil
}

// Reset refills key's bucket, e.g. after a successful verification.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if err := l.store.Reset(ctx, l.config.KeyPrefix+key); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}
