// Package postgres is the Postgres storage backend, registered under kind
// "postgres".
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"scraperengine/internal/engine"
	"scraperengine/internal/storage"
)

// Store implements storage.Store backed by a pgx connection pool.
//
// Idempotency uses ON CONFLICT (fingerprint) DO NOTHING; a re-saved
// document inserts nothing and writes no pairs.
type Store struct {
	pool *pgxpool.Pool
}

func init() {
	storage.Register("postgres", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS extractions (
	id            BIGSERIAL PRIMARY KEY,
	fingerprint   TEXT NOT NULL UNIQUE,
	vendor        TEXT NOT NULL,
	canonical_url TEXT NOT NULL DEFAULT '',
	extracted_at  TEXT NOT NULL,
	stats         JSONB NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS extraction_pairs (
	id            BIGSERIAL PRIMARY KEY,
	extraction_id BIGINT NOT NULL REFERENCES extractions(id),
	section       TEXT NOT NULL,
	key           TEXT NOT NULL,
	position      INT NOT NULL DEFAULT 0,
	value         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_extraction_pairs_extraction
	ON extraction_pairs(extraction_id);
`

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, fingerprint string, rec *engine.Record) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO extractions (fingerprint, vendor, canonical_url, extracted_at, stats)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (fingerprint) DO NOTHING
		 RETURNING id`,
		fingerprint, rec.Vendor, rec.Metadata.CanonicalURL,
		rec.Metadata.ExtractionTimestamp, storage.MarshalStats(rec),
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, tx.Commit(ctx)
	}
	if err != nil {
		return 0, fmt.Errorf("insert extraction: %w", err)
	}

	for _, p := range storage.Flatten(rec) {
		if _, err := tx.Exec(ctx,
			`INSERT INTO extraction_pairs (extraction_id, section, key, position, value)
			 VALUES ($1, $2, $3, $4, $5)`,
			id, p.Section, p.Key, p.Position, p.Value,
		); err != nil {
			return 0, fmt.Errorf("insert pair %s/%s: %w", p.Section, p.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}
