// Package metrics defines the minimal metrics surface the batch layer emits
// to. Concrete backends (Datadog) live in subpackages; core extraction code
// never imports them.
package metrics

// Labels is a flat label set attached to one observation.
type Labels map[string]string

// Backend receives counter increments and histogram samples. Implementations
// must be safe for concurrent use; batch workers report from many
// goroutines.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)

	// Close flushes anything buffered and releases resources. Call once.
	Close() error
}

// Metric names understood by backends. Unknown names are ignored by design.
const (
	// DocumentsTotal counts processed documents, labeled vendor + status.
	DocumentsTotal = "extract_documents_total"

	// ItemsTotal counts extracted items, labeled vendor + extractor.
	ItemsTotal = "extract_items_total"

	// FailuresTotal counts failed documents, labeled vendor + reason.
	FailuresTotal = "extract_failures_total"

	// DurationSeconds samples per-document extraction wall time, labeled
	// vendor + status.
	DurationSeconds = "extract_duration_seconds"

	// DocumentBytes samples raw document sizes, labeled vendor.
	DocumentBytes = "extract_document_bytes"
)

// Nop discards everything. The zero value is ready to use.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveHistogram(string, float64, Labels) {}
func (Nop) Close() error                             { return nil }

var _ Backend = Nop{}
