// Package engine orchestrates one extraction pass: vendor detection, spec
// dispatch through the extractor registry, accumulation, and result
// normalization into a Record.
package engine

import (
	"errors"
	"fmt"
	"time"

	"scraperengine/internal/extract"
	"scraperengine/internal/htmlutil"
	"scraperengine/internal/profile"
)

// timestampLayout is the fixed dd/mm/yyyy HH:MM:SS record timestamp format.
const timestampLayout = "02/01/2006 15:04:05"

// Logger is the minimal logging dependency. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Engine runs extraction passes against a fixed profile set. Profiles are
// read-only after construction, so one Engine is safe for concurrent use
// across documents.
type Engine struct {
	profiles []profile.Profile
	logger   Logger

	// timestamp is fixed at construction, the Engine's single clock read,
	// so repeated passes over the same document yield identical records.
	timestamp string
}

// New builds an Engine over an already-loaded, priority-sorted profile set.
// An empty set is a configuration error and fatal here rather than per-call.
func New(profiles []profile.Profile, logger Logger) (*Engine, error) {
	if len(profiles) == 0 {
		return nil, errors.New("engine: no vendor profiles loaded")
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Engine{
		profiles:  profiles,
		logger:    logger,
		timestamp: time.Now().Format(timestampLayout),
	}, nil
}

// Extract parses raw markup and runs the detected vendor's spec list over
// it. It always returns a Record: per-spec failures are logged and isolated,
// and missing data is a normal empty result. Only unparseable input is an
// error.
func (e *Engine) Extract(rawHTML string) (*Record, error) {
	doc, err := htmlutil.Parse(rawHTML)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return e.ExtractDocument(doc), nil
}

// ExtractDocument is Extract for an already-parsed document.
func (e *Engine) ExtractDocument(doc *htmlutil.Document) *Record {
	vendorID := profile.Detect(doc, e.profiles)
	prof := profile.Find(e.profiles, vendorID)
	if prof == nil {
		prof = profile.Find(e.profiles, profile.GenericID)
	}

	stats := make(map[string]int)
	rec := &Record{
		KV:    map[string]map[string]any{},
		Stats: stats,
		Metadata: Metadata{
			CanonicalURL:        doc.CanonicalURL(),
			ExtractionTimestamp: e.timestamp,
		},
	}
	if prof == nil {
		e.logger.Printf("no profile for vendor %q and no generic fallback", vendorID)
		rec.Vendor = vendorID
		return rec
	}
	rec.Vendor = prof.DisplayName()

	ctx := &extract.Context{
		Doc:    doc,
		Vendor: prof.ID,
		Accum:  extract.NewAccumulator(),
	}

	for i, spec := range prof.Specs {
		name, fn, ok := extract.Lookup(spec.Type)
		if !ok {
			e.logger.Printf("vendor %s: spec %d: unknown extractor type %q, skipping", prof.ID, i, spec.Type)
			continue
		}

		n, err := runExtractor(fn, ctx, spec)
		if err != nil {
			e.logger.Printf("vendor %s: spec %d (%s): %v", prof.ID, i, spec.Type, err)
		}
		stats[name] += n
	}

	rec.KV = ctx.Accum.Normalize()
	return rec
}

// runExtractor isolates one spec invocation: a panic out of an extractor
// (typically a vendor page shaped unlike anything the selector authors saw)
// is converted to an error and the pass continues.
func runExtractor(fn extract.Func, ctx *extract.Context, spec profile.Spec) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n = 0
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return fn(ctx, spec)
}
