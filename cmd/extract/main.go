// Command extract reads one product page (from stdin, a file, or a URL),
// runs the configuration-driven extraction engine over it, and prints the
// normalized record as JSON.
//
// Usage (stdin):
//
//	cat page.html | extract -profiles configs/vendors.yaml
//
// Usage (fetch URL):
//
//	extract -profiles configs/vendors.yaml -url "https://example.com/product"
//
// Usage (file):
//
//	extract -profiles configs/vendors.yaml -file page.html
//
// Debug (print outer HTML blocks):
//
//	cat page.html | extract -selector "div.product-specs"
//
// Debug (print text for selector matches):
//
//	cat page.html | extract -selector "table.specs" -text
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"scraperengine/internal/engine"
	"scraperengine/internal/htmlutil"
	"scraperengine/internal/loader"
	"scraperengine/internal/profile"
)

func main() {
	os.Exit(run(
		context.Background(),
		os.Args[1:],
		os.Stdin,
		os.Stdout,
		os.Stderr,
		http.DefaultClient,
	))
}

// run is split out from main so we can unit test the command without
// spawning an OS process.
//
// It returns a Unix-style exit code:
//   - 0 for success
//   - 2 for usage/config errors
//   - 1 for operational/runtime errors
func run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	httpClient *http.Client,
) int {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(stderr)

	profilesPath := fs.String("profiles", "", "Path to vendor profiles YAML file (required for extraction)")
	urlFlag := fs.String("url", "", "Optional: fetch HTML from URL instead of stdin")
	fileFlag := fs.String("file", "", "Optional: read HTML from a file instead of stdin")
	timeout := fs.Duration("timeout", 20*time.Second, "Timeout for -url fetch")
	debugSelector := fs.String("selector", "", "Debug: CSS selector to print matches for (not JSON)")
	onlyText := fs.Bool("text", false, "Debug: print text blocks for -selector matches (not JSON)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	ld := loader.New(httpClient, *timeout)
	input := loader.Input{URL: *urlFlag, Path: *fileFlag, Stdin: stdin}

	// Debug selector mode needs HTML input but NOT profiles.
	if *debugSelector != "" {
		rawHTML, err := ld.Load(ctx, input)
		if err != nil {
			fmt.Fprintf(stderr, "load html: %v\n", err)
			return 1
		}
		if err := htmlutil.DebugPrintSelector(stdout, rawHTML, *debugSelector, *onlyText); err != nil {
			fmt.Fprintf(stderr, "debug selector: %v\n", err)
			return 1
		}
		return 0
	}

	if *profilesPath == "" {
		fmt.Fprintf(stderr, "missing -profiles\n")
		return 2
	}

	profiles, err := profile.Load(*profilesPath)
	if err != nil {
		fmt.Fprintf(stderr, "load profiles: %v\n", err)
		return 2
	}

	eng, err := engine.New(profiles, log.New(stderr, "", log.LstdFlags))
	if err != nil {
		fmt.Fprintf(stderr, "init engine: %v\n", err)
		return 2
	}

	rawHTML, err := ld.Load(ctx, input)
	if err != nil {
		fmt.Fprintf(stderr, "load html: %v\n", err)
		return 1
	}

	rec, err := eng.Extract(rawHTML)
	if err != nil {
		fmt.Fprintf(stderr, "extract: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		fmt.Fprintf(stderr, "encode record: %v\n", err)
		return 1
	}
	return 0
}
