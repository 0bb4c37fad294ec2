package cursor

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type dbStore struct {
	pool *pgxpool.Pool
}

// NewDBStore creates a Postgres-backed cursor store over the index_cursor
// table. The caller is responsible for closing the pool.
func NewDBStore(pool *pgxpool.Pool) Store {
	return &dbStore{pool: pool}
}

func (s *dbStore) Load(ctx context.Context, domain string) (int64, bool, error) {
	var position int64
	err := s.pool.QueryRow(ctx,
		`SELECT position FROM index_cursor WHERE domain = $1`,
		domain,
	).Scan(&position)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to load cursor for domain %s: %w", domain, err)
	}
	return position, true, nil
}

func (s *dbStore) Advance(ctx context.Context, domain string, position int64) error {
	// The WHERE clause on the conflict update enforces monotonicity at
	// the database, not just in process memory.
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO index_cursor (domain, position, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (domain) DO UPDATE
		 SET position = EXCLUDED.position, updated_at = now()
		 WHERE index_cursor.position < EXCLUDED.position`,
		domain, position,
	)
	if err != nil {
		return fmt.Errorf("failed to advance cursor for domain %s: %w", domain, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cursor for domain %s at or past %d: %w", domain, position, ErrRegression)
	}
	return nil
}

func (s *dbStore) Seed(ctx context.Context, domain string, position int64) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO index_cursor (domain, position, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (domain) DO NOTHING`,
		domain, position,
	)
	if err != nil {
		return false, fmt.Errorf("failed to seed cursor for domain %s: %w", domain, err)
	}
	return tag.RowsAffected() > 0, nil
}
