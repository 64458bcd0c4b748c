package secondfactor

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/twofactor/pkg/pg"
)

// Migrations holds the goose migrations for the second_factors table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// DB is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// SecretSealer encrypts secrets before they reach the database.
// *secretbox.Box implements it.
type SecretSealer interface {
	Seal(plainText, scope string) (string, error)
	Open(cipherText, scope string) (string, error)
}

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db     DB
	sealer SecretSealer
}

// NewPostgresStore creates a store over db. When sealer is nil secrets are stored as-is.
func NewPostgresStore(db DB, sealer SecretSealer) *PostgresStore {
	return &PostgresStore{db: db, sealer: sealer}
}

// WithTx returns a store bound to tx, sharing the sealer.
func (s *PostgresStore) WithTx(tx pgx.Tx) *PostgresStore {
	return &PostgresStore{db: tx, sealer: s.sealer}
}

type factorRow struct {
	ID        uuid.UUID `db:"id"`
	AccountID string    `db:"account_id"`
	Kind      string    `db:"kind"`
	Secret    string    `db:"secret"`
	CreatedAt time.Time `db:"created_at"`
}

const findByAccountQuery = `
SELECT id, account_id, kind, secret, created_at
FROM second_factors
WHERE account_id = $1
ORDER BY created_at, id`

func (s *PostgresStore) FindByAccount(ctx context.Context, accountID string) ([]Factor, error) {
	rows, err := s.db.Query(ctx, findByAccountQuery, accountID)
	if err != nil {
		return nil, fmt.Errorf("query second factors: %w", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[factorRow])
	if err != nil {
		return nil, fmt.Errorf("scan second factors: %w", err)
	}

	factors := make([]Factor, 0, len(records))
	for _, r := range records {
		secret := r.Secret
		if s.sealer != nil {
			secret, err = s.sealer.Open(r.Secret, r.AccountID)
			if err != nil {
				return nil, fmt.Errorf("open secret of second factor %s: %w", r.ID, err)
			}
		}
		factors = append(factors, Factor{
			ID:        r.ID,
			AccountID: r.AccountID,
			Kind:      Kind(r.Kind),
			Secret:    secret,
			CreatedAt: r.CreatedAt,
		})
	}

	return factors, nil
}

const insertFactorQuery = `
INSERT INTO second_factors (id, account_id, kind, secret, created_at)
VALUES ($1, $2, $3, $4, $5)`

func (s *PostgresStore) Add(ctx context.Context, factor Factor) error {
	if err := factor.Validate(); err != nil {
		return err
	}

	secret := factor.Secret
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(factor.Secret, factor.AccountID)
		if err != nil {
			return fmt.Errorf("seal secret of second factor %s: %w", factor.ID, err)
		}
		secret = sealed
	}

	createdAt := factor.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if _, err := s.db.Exec(ctx, insertFactorQuery, factor.ID, factor.AccountID, string(factor.Kind), secret, createdAt); err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrFactorExists
		}
		return fmt.Errorf("insert second factor: %w", err)
	}

	return nil
}
