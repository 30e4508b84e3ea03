// Package mssql is the SQL Server storage backend, registered under kind
// "mssql".
//
// This package intentionally does NOT blank-import a SQL Server driver.
// The application must register the "sqlserver" driver elsewhere; if it
// does not, sql.Open fails here with a clear error.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"scraperengine/internal/engine"
	"scraperengine/internal/storage"
)

// Store implements storage.Store for Microsoft SQL Server.
//
// Idempotency uses a NOT EXISTS guard on the fingerprint: a re-saved
// document inserts nothing and writes no pairs.
type Store struct {
	db *sql.DB
}

func init() {
	storage.Register("mssql", New)
}

// New validates connectivity via PingContext.
func New(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
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

var ddl = []string{
	`IF OBJECT_ID('extractions', 'U') IS NULL
	CREATE TABLE extractions (
		id            BIGINT IDENTITY(1,1) PRIMARY KEY,
		fingerprint   NVARCHAR(128) NOT NULL UNIQUE,
		vendor        NVARCHAR(255) NOT NULL,
		canonical_url NVARCHAR(2048) NOT NULL DEFAULT '',
		extracted_at  NVARCHAR(32) NOT NULL,
		stats         NVARCHAR(MAX) NOT NULL DEFAULT '{}'
	)`,
	`IF OBJECT_ID('extraction_pairs', 'U') IS NULL
	CREATE TABLE extraction_pairs (
		id            BIGINT IDENTITY(1,1) PRIMARY KEY,
		extraction_id BIGINT NOT NULL REFERENCES extractions(id),
		section       NVARCHAR(255) NOT NULL,
		[key]         NVARCHAR(255) NOT NULL,
		position      INT NOT NULL DEFAULT 0,
		value         NVARCHAR(MAX) NOT NULL
	)`,
}

func (s *Store) Init(ctx context.Context) error {
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

func (s *Store) Save(ctx context.Context, fingerprint string, rec *engine.Record) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO extractions (fingerprint, vendor, canonical_url, extracted_at, stats)
		 OUTPUT INSERTED.id
		 SELECT @p1, @p2, @p3, @p4, @p5
		 WHERE NOT EXISTS (SELECT 1 FROM extractions WHERE fingerprint = @p1)`,
		fingerprint, rec.Vendor, rec.Metadata.CanonicalURL,
		rec.Metadata.ExtractionTimestamp, storage.MarshalStats(rec),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, tx.Commit()
	}
	if err != nil {
		return 0, fmt.Errorf("insert extraction: %w", err)
	}

	for _, p := range storage.Flatten(rec) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO extraction_pairs (extraction_id, section, [key], position, value)
			 VALUES (@p1, @p2, @p3, @p4, @p5)`,
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
