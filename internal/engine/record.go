package engine

// Record is the terminal output of one extraction call. It is plain data,
// safe to serialize as-is.
type Record struct {
	Vendor   string                    `json:"vendor"`
	KV       map[string]map[string]any `json:"kv"`
	Stats    map[string]int            `json:"stats"`
	Metadata Metadata                  `json:"metadata"`
}

// Metadata carries run provenance attached to every record.
type Metadata struct {
	CanonicalURL        string `json:"canonical_url,omitempty"`
	ExtractionTimestamp string `json:"extraction_timestamp"`
}
