package secondfactor

import "context"

// Store persists enrolled factors. Implementations must return factors of an
// account in a stable order and make a write visible to subsequent reads in the
// same transaction or request.
type Store interface {
	// FindByAccount lists all factors of an account. No factors is not an error.
	FindByAccount(ctx context.Context, accountID string) ([]Factor, error)

	// Add stores a new factor.
	Add(ctx context.Context, factor Factor) error
}
