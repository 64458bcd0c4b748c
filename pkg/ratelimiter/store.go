package ratelimiter

import (
	"context"
	"time"
)

// Store keeps bucket state. Take must refill and consume atomically.
type Store interface {
	// Take removes n tokens from key's bucket when at least n are left.
	Take(ctx context.Context, key string, n int, now time.Time, cfg Config) (Result, error)

	// Reset forgets key's bucket, refilling it.
	Reset(ctx context.Context, key string) error
}
