package registry

import (
	"context"
	"database/sql"
	"errors"
)

// PGCounterStore implements CounterStore on the counters table. Every
// operation is a single statement, so no explicit transaction is needed.
type PGCounterStore struct {
	DB *sql.DB
}

func (s *PGCounterStore) Increment(ctx context.Context, key string) (int64, error) {
	const query = `
UPDATE counters SET seq = seq + 1, updated_at = now()
WHERE id = $1
RETURNING seq`
	var seq int64
	if err := s.DB.QueryRowContext(ctx, query, key).Scan(&seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCounterMissing
		}
		return 0, err
	}
	return seq, nil
}

func (s *PGCounterStore) Seed(ctx context.Context, key string, value int64) error {
	const query = `
INSERT INTO counters (id, seq, updated_at) VALUES ($1, $2, now())
ON CONFLICT (id) DO NOTHING`
	_, err := s.DB.ExecContext(ctx, query, key, value)
	return err
}

func (s *PGCounterStore) Get(ctx context.Context, key string) (int64, error) {
	var seq int64
	err := s.DB.QueryRowContext(ctx, `SELECT seq FROM counters WHERE id = $1`, key).Scan(&seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCounterMissing
		}
		return 0, err
	}
	return seq, nil
}

func (s *PGCounterStore) Set(ctx context.Context, key string, value int64) error {
	const query = `
INSERT INTO counters (id, seq, updated_at) VALUES ($1, $2, now())
ON CONFLICT (id) DO UPDATE SET seq = EXCLUDED.seq, updated_at = now()`
	_, err := s.DB.ExecContext(ctx, query, key, value)
	return err
}

var _ CounterStore = (*PGCounterStore)(nil)
