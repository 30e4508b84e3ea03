// Package datadog implements a Datadog backend for the internal/metrics
// package.
//
// NOTE ABOUT FLUSHING:
// This backend serves both short-lived single-document runs and long batch
// runs. Submitting only once at process exit makes dashboards awkward for
// long jobs (a single spike rather than a time series).
//
// Therefore we:
//   - buffer metrics in-memory (fast, lock-protected)
//   - periodically Flush() on a ticker (default: once per minute)
//   - Flush() one final time on Close()
//
// Concurrency model:
//   - batch workers call IncCounter/ObserveHistogram at any time
//   - Flush snapshots+resets buffers under a mutex, then submits out-of-lock
//   - the flush loop calls Flush() periodically; Close() stops the loop
//
// If the process dies with SIGKILL/OOM, Close() won't run (no backend can
// fix that).
package datadog

import (
	"context"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"scraperengine/internal/metrics"
)

// Options controls Datadog backend configuration.
type Options struct {
	// JobName becomes tag "job:<name>" on every metric.
	// If empty, defaults to "scraperengine".
	JobName string

	// Tags are extra Datadog tags (e.g. []string{"env:prod", "service:scraper"}).
	Tags []string

	// FlushEvery controls how often buffered metrics are submitted.
	// If <= 0, defaults to 60 seconds.
	FlushEvery time.Duration

	// The following fields are unexported test seams. Production code never
	// sets them; unit tests use them to avoid real network submission and
	// nondeterministic clocks/tickers.
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter metricsSubmitter
}

// metricsSubmitter is the minimal interface needed to submit metrics.
//
// The Datadog SDK exposes a concrete *datadogV2.MetricsApi, which cannot be
// stubbed without real HTTP. Backend depends on this interface instead,
// enabling deterministic tests with a fake submitter.
type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Backend implements metrics.Backend for Datadog.
type Backend struct {
	api metricsSubmitter
	ctx context.Context

	flushEvery time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}

	baseTags []string

	// now and newTicker are injected for deterministic tests. Production
	// uses time.Now and time.NewTicker.
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker

	mu sync.Mutex

	docCounts   map[string]float64   // vendor\x00status -> count
	itemCounts  map[string]float64   // vendor\x00extractor -> count
	failCounts  map[string]float64   // vendor\x00reason -> count
	durSamples  map[string][]float64 // vendor\x00status -> seconds
	sizeSamples map[string][]float64 // vendor -> bytes
}

func resolveEnvTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

// NewBackend constructs a Datadog backend using the official client.
//
// Edge cases:
//   - If opts.FlushEvery <= 0, defaults to 60s.
//   - If opts.JobName is empty, defaults to "scraperengine".
//   - Environment tag selection uses ENV then DD_ENV, otherwise env:unknown.
//
// Datadog client construction itself does not fail; network errors surface
// from Flush().
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	job := opts.JobName
	if job == "" {
		job = "scraperengine"
	}

	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	baseTags := make([]string, 0, 2+len(opts.Tags))
	baseTags = append(baseTags, resolveEnvTag(), "job:"+job)
	baseTags = append(baseTags, opts.Tags...)

	nowFn := opts.now
	if nowFn == nil {
		nowFn = time.Now
	}
	newTicker := opts.newTicker
	if newTicker == nil {
		newTicker = time.NewTicker
	}

	submitter := opts.submitter
	if submitter == nil {
		cfg := dd.NewConfiguration()
		client := dd.NewAPIClient(cfg)
		submitter = datadogV2.NewMetricsApi(client)
	}

	b := &Backend{
		api:        submitter,
		ctx:        dd.NewDefaultContext(parent),
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),

		baseTags: baseTags,

		now:       nowFn,
		newTicker: newTicker,

		docCounts:   make(map[string]float64),
		itemCounts:  make(map[string]float64),
		failCounts:  make(map[string]float64),
		durSamples:  make(map[string][]float64),
		sizeSamples: make(map[string][]float64),
	}

	go b.loop()
	return b, nil
}

func (b *Backend) loop() {
	defer close(b.doneCh)

	t := b.newTicker(b.flushEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stopCh:
			return
		}
	}
}

// Close stops the background flush loop and performs one final Flush().
//
// Closing twice panics (stopCh closed twice); treat as "close once", which
// is fine for process-lifetime backends.
func (b *Backend) Close() error {
	close(b.stopCh)
	<-b.doneCh
	return b.Flush()
}

// IncCounter implements metrics.Backend. Unknown metric names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch name {
	case metrics.DocumentsTotal:
		b.docCounts[pairKey(labels["vendor"], labels["status"])] += delta

	case metrics.ItemsTotal:
		extractor := labels["extractor"]
		if extractor == "" {
			return
		}
		b.itemCounts[pairKey(labels["vendor"], extractor)] += delta

	case metrics.FailuresTotal:
		b.failCounts[pairKey(labels["vendor"], labels["reason"])] += delta
	}
}

// ObserveHistogram implements metrics.Backend. Unknown metric names are
// ignored.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch name {
	case metrics.DurationSeconds:
		k := pairKey(labels["vendor"], labels["status"])
		b.durSamples[k] = append(b.durSamples[k], value)

	case metrics.DocumentBytes:
		vendor := labels["vendor"]
		if vendor == "" {
			vendor = "unknown"
		}
		b.sizeSamples[vendor] = append(b.sizeSamples[vendor], value)
	}
}

// snapshot is the buffered state used to build one flush payload. Flush()
// must reset buffers under a lock but submit out-of-lock; snapshot separates
// collect+reset from payload building+submission.
type snapshot struct {
	docCounts   map[string]float64
	itemCounts  map[string]float64
	failCounts  map[string]float64
	durSamples  map[string][]float64
	sizeSamples map[string][]float64
}

// snapshotAndReset grabs current buffered metrics and resets buffers. Takes
// the lock internally and returns detached maps.
func (b *Backend) snapshotAndReset() snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := snapshot{
		docCounts:   b.docCounts,
		itemCounts:  b.itemCounts,
		failCounts:  b.failCounts,
		durSamples:  b.durSamples,
		sizeSamples: b.sizeSamples,
	}

	b.docCounts = make(map[string]float64)
	b.itemCounts = make(map[string]float64)
	b.failCounts = make(map[string]float64)
	b.durSamples = make(map[string][]float64)
	b.sizeSamples = make(map[string][]float64)

	return s
}

func (s snapshot) isEmpty() bool {
	return len(s.docCounts) == 0 &&
		len(s.itemCounts) == 0 &&
		len(s.failCounts) == 0 &&
		len(s.durSamples) == 0 &&
		len(s.sizeSamples) == 0
}

// Flush submits buffered metrics to Datadog and resets local buffers.
//
// Edge cases:
//   - Safe to call concurrently with IncCounter/ObserveHistogram.
//   - Buffers are reset even if submission fails, so failures never block
//     future writes. "At least once" delivery is out of scope.
func (b *Backend) Flush() error {
	snap := b.snapshotAndReset()
	if snap.isEmpty() {
		return nil
	}

	series := b.buildSeries(snap, b.now().Unix())
	payload := datadogV2.MetricPayload{Series: series}

	_, _, err := b.api.SubmitMetrics(b.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

// buildSeries constructs Datadog series for a snapshot at a fixed timestamp.
// It is pure (no locks, no network, no clocks), which keeps it unit-testable
// and centralizes the naming/tagging contract.
func (b *Backend) buildSeries(s snapshot, nowUnix int64) []datadogV2.MetricSeries {
	series := make([]datadogV2.MetricSeries, 0, len(s.docCounts)+len(s.itemCounts)+32)

	for k, v := range s.docCounts {
		if v == 0 {
			continue
		}
		vendor, status := splitPairKey(k)
		tags := withTags(b.baseTags, "vendor:"+vendor, "status:"+status)
		series = append(series, countSeries("scraper.documents.total", v, tags, nowUnix))
	}

	for k, v := range s.itemCounts {
		if v == 0 {
			continue
		}
		vendor, extractor := splitPairKey(k)
		tags := withTags(b.baseTags, "vendor:"+vendor, "extractor:"+extractor)
		series = append(series, countSeries("scraper.items.total", v, tags, nowUnix))
	}

	for k, v := range s.failCounts {
		if v == 0 {
			continue
		}
		vendor, reason := splitPairKey(k)
		tags := withTags(b.baseTags, "vendor:"+vendor, "reason:"+reason)
		series = append(series, countSeries("scraper.failures.total", v, tags, nowUnix))
	}

	for k, samples := range s.durSamples {
		vendor, status := splitPairKey(k)
		tags := withTags(b.baseTags, "vendor:"+vendor, "status:"+status)
		addPercentiles(&series, "scraper.duration_seconds", samples, tags, nowUnix)
	}

	for vendor, samples := range s.sizeSamples {
		tags := withTags(b.baseTags, "vendor:"+vendor)
		addPercentiles(&series, "scraper.document_bytes", samples, tags, nowUnix)
	}

	return series
}

// addPercentiles appends a fixed set of percentile gauges for a sample set.
// It sorts a copy of samples and does nothing when samples is empty.
func addPercentiles(series *[]datadogV2.MetricSeries, metricPrefix string, samples []float64, tags []string, nowUnix int64) {
	if len(samples) == 0 {
		return
	}
	cp := append([]float64(nil), samples...)
	sort.Float64s(cp)

	*series = append(*series, gaugeSeries(metricPrefix+".p50", percentileNearestRank(cp, 0.50), tags, nowUnix))
	*series = append(*series, gaugeSeries(metricPrefix+".p90", percentileNearestRank(cp, 0.90), tags, nowUnix))
	*series = append(*series, gaugeSeries(metricPrefix+".p95", percentileNearestRank(cp, 0.95), tags, nowUnix))
	*series = append(*series, gaugeSeries(metricPrefix+".p99", percentileNearestRank(cp, 0.99), tags, nowUnix))
	*series = append(*series, gaugeSeries(metricPrefix+".max", cp[len(cp)-1], tags, nowUnix))
	*series = append(*series, gaugeSeries(metricPrefix+".samples", float64(len(cp)), tags, nowUnix))
}

func countSeries(metric string, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   datadogV2.METRICINTAKETYPE_COUNT.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

func gaugeSeries(metric string, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   datadogV2.METRICINTAKETYPE_GAUGE.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

func pairKey(a, b string) string {
	if a == "" {
		a = "unknown"
	}
	if b == "" {
		b = "unknown"
	}
	return a + "\x00" + b
}

func splitPairKey(k string) (string, string) {
	parts := strings.SplitN(k, "\x00", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return k, "unknown"
}

func withTags(base []string, extras ...string) []string {
	out := make([]string, 0, len(base)+len(extras))
	out = append(out, base...)
	out = append(out, extras...)
	return out
}

func percentileNearestRank(s []float64, p float64) float64 {
	n := len(s)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return s[0]
	}
	if p >= 1 {
		return s[n-1]
	}
	idx := int(p*float64(n-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return s[idx]
}

var _ metrics.Backend = (*Backend)(nil)

// ParseTagsCSV parses comma-separated tags like "env:prod,service:scraper".
func ParseTagsCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
