// Command extract-batch runs the extraction engine over a directory of
// saved product pages with a worker pool, printing one JSON record per line
// and optionally persisting records to a database.
//
// Usage:
//
//	extract-batch -profiles configs/vendors.yaml -dir ./pages
//
// With persistence:
//
//	extract-batch -profiles configs/vendors.yaml -dir ./pages \
//	  -store sqlite -dsn file:extractions.db
//
// With Datadog metrics:
//
//	extract-batch -profiles configs/vendors.yaml -dir ./pages \
//	  -datadog -dd-job nightly -dd-tags "env:prod,service:scraper"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"scraperengine/internal/batch"
	"scraperengine/internal/engine"
	"scraperengine/internal/metrics"
	"scraperengine/internal/metrics/datadog"
	"scraperengine/internal/profile"
	"scraperengine/internal/storage"
	_ "scraperengine/internal/storage/mssql"
	_ "scraperengine/internal/storage/postgres"
	_ "scraperengine/internal/storage/sqlite"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run returns a Unix-style exit code: 0 for success, 2 for usage/config
// errors, 1 when any file failed.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("extract-batch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	profilesPath := fs.String("profiles", "", "Path to vendor profiles YAML file (required)")
	dir := fs.String("dir", "", "Directory containing saved HTML pages (required)")
	workers := fs.Int("workers", 4, "Number of concurrent extraction workers")
	quiet := fs.Bool("quiet", false, "Suppress per-record JSON output")

	storeKind := fs.String("store", "", "Optional storage backend kind (sqlite, postgres, mssql)")
	storeDSN := fs.String("dsn", "", "Storage DSN (required with -store)")

	useDatadog := fs.Bool("datadog", false, "Submit run metrics to Datadog")
	ddJob := fs.String("dd-job", "extract-batch", "Datadog job tag")
	ddTags := fs.String("dd-tags", "", "Extra Datadog tags, comma-separated (e.g. \"env:prod,service:scraper\")")
	ddFlush := fs.Duration("dd-flush", time.Minute, "Datadog flush interval")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *profilesPath == "" {
		fmt.Fprintf(stderr, "missing -profiles\n")
		return 2
	}
	if *dir == "" {
		fmt.Fprintf(stderr, "missing -dir\n")
		return 2
	}
	if *storeKind != "" && *storeDSN == "" {
		fmt.Fprintf(stderr, "missing -dsn for -store %s\n", *storeKind)
		return 2
	}

	logger := log.New(stderr, "", log.LstdFlags)

	profiles, err := profile.Load(*profilesPath)
	if err != nil {
		fmt.Fprintf(stderr, "load profiles: %v\n", err)
		return 2
	}
	eng, err := engine.New(profiles, logger)
	if err != nil {
		fmt.Fprintf(stderr, "init engine: %v\n", err)
		return 2
	}

	var store storage.Store
	if *storeKind != "" {
		store, err = storage.Open(ctx, storage.Config{Kind: *storeKind, DSN: *storeDSN})
		if err != nil {
			fmt.Fprintf(stderr, "open store: %v\n", err)
			return 2
		}
		defer store.Close()
		if err := store.Init(ctx); err != nil {
			fmt.Fprintf(stderr, "init store: %v\n", err)
			return 1
		}
	}

	var mb metrics.Backend = metrics.Nop{}
	if *useDatadog {
		ddb, err := datadog.NewBackend(ctx, datadog.Options{
			JobName:    *ddJob,
			Tags:       datadog.ParseTagsCSV(*ddTags),
			FlushEvery: *ddFlush,
		})
		if err != nil {
			fmt.Fprintf(stderr, "datadog init: %v\n", err)
			return 1
		}
		defer func() {
			if err := ddb.Close(); err != nil {
				logger.Printf("datadog close: %v", err)
			}
		}()
		mb = ddb
	}

	runner := &batch.Runner{
		Engine:  eng,
		Store:   store,
		Metrics: mb,
		Workers: *workers,
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)

	var processed, failed int
	err = runner.RunDir(ctx, *dir, func(res batch.Result) {
		processed++
		if res.Err != nil {
			failed++
			logger.Printf("%s: %v", res.File, res.Err)
			return
		}
		if !*quiet {
			if err := enc.Encode(res.Record); err != nil {
				logger.Printf("%s: encode: %v", res.File, err)
			}
		}
	})
	if err != nil {
		fmt.Fprintf(stderr, "run: %v\n", err)
		return 1
	}

	logger.Printf("processed %d files, %d failed", processed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}
