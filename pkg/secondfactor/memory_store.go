package secondfactor

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore implements Store in process memory, preserving insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	factors map[string][]Factor
}

// NewMemoryStore creates an empty in-memory factor store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		factors: make(map[string][]Factor),
	}
}

func (s *MemoryStore) FindByAccount(ctx context.Context, accountID string) ([]Factor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.factors[accountID]), nil
}

func (s *MemoryStore) Add(ctx context.Context, factor Factor) error {
	if err := factor.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.factors[factor.AccountID] {
		if existing.ID == factor.ID {
			return ErrFactorExists
		}
	}

	s.factors[factor.AccountID] = append(s.factors[factor.AccountID], factor)
	return nil
}

// Count returns the number of factors across all accounts.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, factors := range s.factors {
		total += len(factors)
	}
	return total
}
