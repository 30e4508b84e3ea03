// Package loader acquires raw document markup for the extraction engine:
// from a URL, a file on disk, or stdin. The engine itself never performs
// I/O; everything here runs upstream of an extraction call.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Input describes where the document should come from. URL wins over Path;
// with neither set, Stdin is read in full.
type Input struct {
	URL  string
	Path string

	// Stdin is used when URL and Path are empty. If nil, stdin reads as
	// empty.
	Stdin io.Reader
}

// Loader reads documents with a consistent timeout policy for the network
// path.
type Loader struct {
	client  *http.Client
	timeout time.Duration
}

// New creates a Loader. If client is nil, http.DefaultClient is used.
func New(client *http.Client, timeout time.Duration) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		client:  client,
		timeout: timeout,
	}
}

// Load returns the raw markup for input.
//
// On non-2xx HTTP responses, Load returns an error that includes the status
// code and up to 4KB of the response body for debugging.
func (l *Loader) Load(ctx context.Context, input Input) (string, error) {
	switch {
	case strings.TrimSpace(input.URL) != "":
		return l.fetch(ctx, input.URL)

	case input.Path != "":
		b, err := os.ReadFile(input.Path)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return string(b), nil

	default:
		if input.Stdin == nil {
			return "", nil
		}
		b, err := io.ReadAll(input.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
}

func (l *Loader) fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", "scraperengine/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(b), nil
}
