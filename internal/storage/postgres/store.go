package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"heimdahl/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	kind        TEXT        NOT NULL,
	pattern     TEXT        NOT NULL,
	seq         INTEGER     NOT NULL,
	body        JSONB       NOT NULL,
	fetched_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (kind, pattern, fetched_at, seq)
);
CREATE TABLE IF NOT EXISTS fetch_state (
	kind        TEXT        NOT NULL,
	pattern     TEXT        NOT NULL,
	last_count  INTEGER     NOT NULL,
	fetched_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (kind, pattern)
);`

// Store persists fetched records in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Storage = (*Store)(nil)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables the store writes to.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// PutBatch inserts every record of the batch. List fetches are also recorded
// in fetch_state; stream frames are not. Re-inserting the same batch is a
// no-op.
func (s *Store) PutBatch(ctx context.Context, b storage.Batch) error {
	if len(b.Records) == 0 {
		return nil
	}
	fetchedAt := b.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	batch := queueBatch(b, fetchedAt)
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert %s records: %w", b.Kind, err)
		}
	}
	return nil
}

func queueBatch(b storage.Batch, fetchedAt time.Time) *pgx.Batch {
	batch := &pgx.Batch{}
	for i, record := range b.Records {
		batch.Queue(`
			INSERT INTO records (kind, pattern, seq, body, fetched_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (kind, pattern, fetched_at, seq) DO NOTHING
		`,
			b.Kind,
			b.Pattern,
			i,
			string(record),
			fetchedAt,
		)
	}
	if storage.IsStreamKind(b.Kind) {
		return batch
	}
	batch.Queue(`
		INSERT INTO fetch_state (kind, pattern, last_count, fetched_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (kind, pattern) DO UPDATE
		SET last_count = EXCLUDED.last_count,
			fetched_at = EXCLUDED.fetched_at,
			updated_at = now()
	`, b.Kind, b.Pattern, len(b.Records), fetchedAt)
	return batch
}

// LoadState returns when a pattern was last fetched and how many records
// that fetch produced.
func (s *Store) LoadState(ctx context.Context, kind, pattern string) (time.Time, int, bool, error) {
	if kind == "" || pattern == "" {
		return time.Time{}, 0, false, fmt.Errorf("state key required")
	}
	var (
		fetchedAt time.Time
		count     int
	)
	row := s.pool.QueryRow(ctx, `SELECT fetched_at, last_count FROM fetch_state WHERE kind=$1 AND pattern=$2`, kind, pattern)
	if err := row.Scan(&fetchedAt, &count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, 0, false, nil
		}
		return time.Time{}, 0, false, err
	}
	return fetchedAt, count, true, nil
}
