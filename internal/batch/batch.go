// Package batch runs the extraction engine over a directory of saved pages
// with a worker pool. Extraction is pure in-memory work with no shared
// mutable state, so documents are processed embarrassingly parallel; no
// ordering is guaranteed between them.
package batch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"scraperengine/internal/engine"
	"scraperengine/internal/metrics"
	"scraperengine/internal/storage"
)

// Runner wires the engine to optional persistence and metrics for a batch
// pass.
type Runner struct {
	Engine *engine.Engine

	// Store, when non-nil, receives every successfully extracted record.
	Store storage.Store

	// Metrics defaults to metrics.Nop when nil.
	Metrics metrics.Backend

	// Workers defaults to 4 when <= 0.
	Workers int

	// Filter decides which directory entries are processed. Nil means
	// IsHTMLFile.
	Filter func(name string) bool
}

// Result is the outcome for one input file.
type Result struct {
	File   string
	Record *engine.Record
	Err    error
}

// RunDir processes every regular file in dir. Files are enumerated in
// stable name order; completion order depends on worker scheduling. emit is
// called from a single goroutine, one call per file.
//
// Unreadable files are reported through emit, never aborting the pass; only
// a missing directory is an error.
func (r *Runner) RunDir(ctx context.Context, dir string, emit func(Result)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	filter := r.Filter
	if filter == nil {
		filter = IsHTMLFile
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !filter(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}

	workers := r.Workers
	if workers <= 0 {
		workers = 4
	}
	mb := r.Metrics
	if mb == nil {
		mb = metrics.Nop{}
	}

	jobs := make(chan string)
	results := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				results <- r.processFile(ctx, dir, name, mb)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, name := range files {
			select {
			case jobs <- name:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if emit != nil {
			emit(res)
		}
	}
	return ctx.Err()
}

func (r *Runner) processFile(ctx context.Context, dir, name string, mb metrics.Backend) Result {
	path := filepath.Join(dir, name)
	b, err := os.ReadFile(path)
	if err != nil {
		mb.IncCounter(metrics.FailuresTotal, 1, metrics.Labels{"reason": "read"})
		return Result{File: name, Err: fmt.Errorf("read %s: %w", name, err)}
	}

	start := time.Now()
	rec, err := r.Engine.Extract(string(b))
	elapsed := time.Since(start).Seconds()

	if err != nil {
		mb.IncCounter(metrics.FailuresTotal, 1, metrics.Labels{"reason": "parse"})
		mb.ObserveHistogram(metrics.DurationSeconds, elapsed, metrics.Labels{"status": "error"})
		return Result{File: name, Err: fmt.Errorf("extract %s: %w", name, err)}
	}

	vendor := rec.Vendor
	mb.IncCounter(metrics.DocumentsTotal, 1, metrics.Labels{"vendor": vendor, "status": "ok"})
	mb.ObserveHistogram(metrics.DurationSeconds, elapsed, metrics.Labels{"vendor": vendor, "status": "ok"})
	mb.ObserveHistogram(metrics.DocumentBytes, float64(len(b)), metrics.Labels{"vendor": vendor})
	for extractor, n := range rec.Stats {
		if n > 0 {
			mb.IncCounter(metrics.ItemsTotal, float64(n), metrics.Labels{"vendor": vendor, "extractor": extractor})
		}
	}

	if r.Store != nil {
		if _, err := r.Store.Save(ctx, Fingerprint(b), rec); err != nil {
			mb.IncCounter(metrics.FailuresTotal, 1, metrics.Labels{"vendor": vendor, "reason": "store"})
			return Result{File: name, Record: rec, Err: fmt.Errorf("store %s: %w", name, err)}
		}
	}

	return Result{File: name, Record: rec}
}

// Fingerprint returns the stable document identity used for idempotent
// saves: hex SHA-256 of the raw bytes.
func Fingerprint(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// IsHTMLFile reports whether name looks like a saved page; RunDir's default
// filter.
func IsHTMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".html" || ext == ".htm"
}
