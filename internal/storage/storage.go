// Package storage persists extraction results. Backends register themselves
// by kind; callers open a store through the registry and never import a
// backend package directly (except for its blank-import registration).
package storage

import (
	"context"
	"fmt"
	"sync"

	"scraperengine/internal/engine"
)

// Config selects and configures a backend.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is
//     backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// Store is the backend-agnostic persistence interface for extraction
// records.
//
// IMPORTANT: this interface is intentionally minimal. Each backend
// implements idempotent saves in its own idiomatic way (Postgres ON
// CONFLICT, SQLite OR IGNORE, SQL Server NOT EXISTS).
type Store interface {
	// Init creates tables as needed. Safe to call on every startup;
	// backends implement create-if-not-exists semantics.
	Init(ctx context.Context) error

	// Save persists one record under a caller-supplied document
	// fingerprint and returns the new row id. Saving the same fingerprint
	// again is a no-op returning id 0, so batch reprocessing stays
	// idempotent.
	Save(ctx context.Context, fingerprint string, rec *engine.Record) (int64, error)

	// Close releases backend resources. Treat as "call once".
	Close()
}

type factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
//
// Call Register from an init() function in a backend package. Registering
// the same kind twice panics; failing fast beats ambiguous backend
// selection.
//
// Panics:
//   - If kind is empty.
//   - If f is nil.
//   - If kind is already registered.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// Open constructs a Store using the registered backend factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty or unsupported.
//   - Returns whatever error the registered factory returns.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing Kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
