package secondfactor

import (
	"context"
	"sync"
	"time"
)

// ReplayGuard remembers the last accepted TOTP step per account.
type ReplayGuard interface {
	// Accept records step for accountID and reports false when step is not
	// newer than the last accepted one.
	Accept(ctx context.Context, accountID string, step int64) (bool, error)
}

// ReplayWindow is how long an accepted step must be remembered: the full
// verification window of (2*skew + 1) steps.
func ReplayWindow(period, skew uint32) time.Duration {
	return time.Duration(2*int64(skew)+1) * time.Duration(period) * time.Second
}

type acceptedStep struct {
	step      int64
	expiresAt time.Time
}

// MemoryReplayGuard implements ReplayGuard in process memory.
type MemoryReplayGuard struct {
	mu    sync.Mutex
	ttl   time.Duration
	steps map[string]acceptedStep
	now   func() time.Time
}

// NewMemoryReplayGuard creates a guard that forgets an account's step after ttl.
func NewMemoryReplayGuard(ttl time.Duration) *MemoryReplayGuard {
	return &MemoryReplayGuard{
		ttl:   ttl,
		steps: make(map[string]acceptedStep),
		now:   time.Now,
	}
}

func (g *MemoryReplayGuard) Accept(ctx context.Context, accountID string, step int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, ok := g.steps[accountID]; ok && now.Before(last.expiresAt) && step <= last.step {
		return false, nil
	}

	g.steps[accountID] = acceptedStep{step: step, expiresAt: now.Add(g.ttl)}
	g.sweep(now)
	return true, nil
}

// sweep drops expired entries once the map grows.
func (g *MemoryReplayGuard) sweep(now time.Time) {
	if len(g.steps) < 1024 {
		return
	}
	for id, s := range g.steps {
		if !now.Before(s.expiresAt) {
			delete(g.steps, id)
		}
	}
}
