// Package sqlite is the SQLite storage backend, registered under kind
// "sqlite". Suited to single-process batch runs and tests (":memory:").
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"scraperengine/internal/engine"
	"scraperengine/internal/storage"
)

// Store implements storage.Store for SQLite.
//
// Idempotency relies on INSERT OR IGNORE against the fingerprint UNIQUE
// constraint: a re-saved document inserts nothing and writes no pairs.
type Store struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() { _ = s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS extractions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	fingerprint  TEXT NOT NULL UNIQUE,
	vendor       TEXT NOT NULL,
	canonical_url TEXT NOT NULL DEFAULT '',
	extracted_at TEXT NOT NULL,
	stats        TEXT NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS extraction_pairs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	extraction_id INTEGER NOT NULL REFERENCES extractions(id),
	section       TEXT NOT NULL,
	key           TEXT NOT NULL,
	position      INTEGER NOT NULL DEFAULT 0,
	value         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_extraction_pairs_extraction
	ON extraction_pairs(extraction_id);
`

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, fingerprint string, rec *engine.Record) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO extractions (fingerprint, vendor, canonical_url, extracted_at, stats)
		 VALUES (?, ?, ?, ?, ?)`,
		fingerprint, rec.Vendor, rec.Metadata.CanonicalURL,
		rec.Metadata.ExtractionTimestamp, storage.MarshalStats(rec),
	)
	if err != nil {
		return 0, fmt.Errorf("insert extraction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, tx.Commit()
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, p := range storage.Flatten(rec) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO extraction_pairs (extraction_id, section, key, position, value)
			 VALUES (?, ?, ?, ?, ?)`,
			id, p.Section, p.Key, p.Position, p.Value,
		); err != nil {
			return 0, fmt.Errorf("insert pair %s/%s: %w", p.Section, p.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}
