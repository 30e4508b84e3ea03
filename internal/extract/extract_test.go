package extract

import (
	"testing"

	"scraperengine/internal/htmlutil"
	"scraperengine/internal/profile"
)

func newCtx(t *testing.T, rawHTML string) *Context {
	t.Helper()
	doc, err := htmlutil.Parse(rawHTML)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return &Context{Doc: doc, Accum: NewAccumulator()}
}

func spec(typeTag string, params map[string]any) profile.Spec {
	if params == nil {
		params = map[string]any{}
	}
	return profile.Spec{Type: typeTag, Params: params}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	name, fn, ok := Lookup("table")
	if !ok || fn == nil || name != "table" {
		t.Fatalf("Lookup(table) = %q, %v", name, ok)
	}

	// Alias tags resolve to the canonical implementation name so stats stay
	// stable across configuration generations.
	for alias, canonical := range map[string]string{
		"schneider_json": "embedded_json",
		"abb_json":       "embedded_json",
		"link_attribute": "attribute",
		"image":          "attribute",
		"variants":       "product_variants",
		"phoenix_pdf":    "pdf_link",
		"vega_pdf":       "doc_cards",
	} {
		name, _, ok := Lookup(alias)
		if !ok || name != canonical {
			t.Fatalf("Lookup(%s) = %q, %v, want %q", alias, name, ok, canonical)
		}
	}

	if _, _, ok := Lookup("not_a_real_type"); ok {
		t.Fatal("unknown tag should not resolve")
	}
}

// TestExtractRows covers the row-pairs algorithm: per-row key/value
// selectors, nearest-heading sectioning, and noise exclusion.
func TestExtractRows(t *testing.T) {
	t.Parallel()

	ctx := newCtx(t, `
		<h2>Specifications</h2>
		<div class="row">
			<span class="k">Voltage</span>
			<span class="v">230 V<span class="tip">hover me</span></span>
		</div>
		<div class="row">
			<span class="k">Current</span>
			<span class="v">16 A</span>
		</div>
	`)

	n, err := extractRows(ctx, spec("rows", map[string]any{
		"rows":         "div.row",
		"key":          ".k",
		"value":        ".v",
		"remove_noise": []any{".tip"},
	}))
	if err != nil {
		t.Fatalf("extractRows: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}

	kv := ctx.Accum.Normalize()
	if kv["Specifications"]["Voltage"] != "230 V" {
		t.Fatalf("Voltage = %#v (noise not excluded?)", kv["Specifications"]["Voltage"])
	}
	if kv["Specifications"]["Current"] != "16 A" {
		t.Fatalf("Current = %#v", kv["Specifications"]["Current"])
	}
}

func TestExtractRows_MultipleValues(t *testing.T) {
	t.Parallel()

	ctx := newCtx(t, `
		<div class="row">
			<span class="k">Approvals</span>
			<span class="v">CE</span>
			<span class="v">UL</span>
		</div>
	`)

	n, err := extractRows(ctx, spec("rows", map[string]any{
		"rows":            "div.row",
		"key":             ".k",
		"value":           ".v",
		"multiple_values": true,
	}))
	if err != nil {
		t.Fatalf("extractRows: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
	if got := ctx.Accum.Normalize()["Unknown"]["Approvals"]; got != "CE | UL" {
		t.Fatalf("Approvals = %#v", got)
	}
}

// TestExtractRows_BadSelector verifies a malformed configured selector is an
// error (isolated by the orchestrator), not a panic.
func TestExtractRows_BadSelector(t *testing.T) {
	t.Parallel()

	ctx := newCtx(t, `<div class="row"></div>`)
	_, err := extractRows(ctx, spec("rows", map[string]any{
		"rows":  "div.row",
		"key":   "span[unclosed",
		"value": ".v",
	}))
	if err == nil {
		t.Fatal("expected error for malformed selector")
	}
}

// TestExtractTable_AutoMode verifies the two-non-empty-cell heuristic and
// heading-based sectioning.
func TestExtractTable_AutoMode(t *testing.T) {
	t.Parallel()

	ctx := newCtx(t, `
		<h2>Specifications</h2>
		<table>
			<tr><th>Voltage</th><td>230 V</td></tr>
			<tr><td>only one cell</td></tr>
			<tr><td>a</td><td>b</td><td>c</td></tr>
		</table>
	`)

	n, err := extractTable(ctx, spec("table", nil))
	if err != nil {
		t.Fatalf("extractTable: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
	if got := ctx.Accum.Normalize()["Specifications"]["Voltage"]; got != "230 V" {
		t.Fatalf("Voltage = %#v", got)
	}
}

func TestExtractTable_ExplicitColumns(t *testing.T) {
	t.Parallel()

	ctx := newCtx(t, `
		<table>
			<tr class="hdr"><td>Name</td><td>ignored</td><td>Value</td></tr>
			<tr><td>Weight</td><td>net</td><td>2 kg</td></tr>
		</table>
	`)

	n, err := extractTable(ctx, spec("table", map[string]any{
		"key_column":           0,
		"value_column":         2,
		"skip_rows_with_class": "hdr",
	}))
	if err != nil {
		t.Fatalf("extractTable: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
	if got := ctx.Accum.Normalize()["Unknown"]["Weight"]; got != "2 kg" {
		t.Fatalf("Weight = %#v", got)
	}
}

// TestExtractDL pairs dt with the immediately following dd and stops at the
// next dt, so an unmatched term never steals a later definition.
func TestExtractDL(t *testing.T) {
	t.Parallel()

	ctx := newCtx(t, `
		<h3>Details</h3>
		<dl>
			<dt>Type</dt><dd>Sensor</dd>
			<dt>Orphan</dt>
			<dt>Series</dt><dd>X200</dd>
		</dl>
	`)

	n, err := extractDL(ctx, spec("dl", nil))
	if err != nil {
		t.Fatalf("extractDL: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	kv := ctx.Accum.Normalize()
	if kv["Details"]["Type"] != "Sensor" || kv["Details"]["Series"] != "X200" {
		t.Fatalf("kv = %#v", kv)
	}
	if _, present := kv["Details"]["Orphan"]; present {
		t.Fatal("orphan dt must not produce a pair")
	}
}

// TestExtractLiSplit covers heading tracking, fragment splitting on element
// boundaries, nested-list skipping, and the skip-text set.
func TestExtractLiSplit(t *testing.T) {
	t.Parallel()

	ctx := newCtx(t, `
		<div id="c">
			<h3>Electrical</h3>
			<ul>
				<li><b>Voltage</b>230 V</li>
				<li>Read more</li>
				<li>nav parent<ul><li>child</li></ul></li>
			</ul>
			<h3>Mechanical</h3>
			<ul>
				<li><b>Weight</b>2 kg</li>
			</ul>
		</div>
	`)

	n, err := extractLiSplit(ctx, spec("li_split", map[string]any{
		"container":  "#c",
		"skip_texts": []any{"read more"},
	}))
	if err != nil {
		t.Fatalf("extractLiSplit: %v", err)
	}
	// The nested child <li> splits to nothing (single fragment), the noise
	// item is skipped, leaving the two real pairs.
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	kv := ctx.Accum.Normalize()
	if kv["Electrical"]["Voltage"] != "230 V" {
		t.Fatalf("Electrical = %#v", kv["Electrical"])
	}
	if kv["Mechanical"]["Weight"] != "2 kg" {
		t.Fatalf("Mechanical = %#v", kv["Mechanical"])
	}
}

func TestExtractLabelValue(t *testing.T) {
	t.Parallel()

	ctx := newCtx(t, `
		<h4>Overview</h4>
		<p>Measuring range: 0 to 10 bar</p>
		<p>Just a sentence without any label structure here</p>
	`)

	n, err := extractLabelValue(ctx, spec("label_value", nil))
	if err != nil {
		t.Fatalf("extractLabelValue: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
	if got := ctx.Accum.Normalize()["Overview"]["Measuring range"]; got != "0 to 10 bar" {
		t.Fatalf("got %#v", got)
	}
}

func TestExtractMetaAndText(t *testing.T) {
	t.Parallel()

	ctx := newCtx(t, `<html><head>
		<meta name="description" content="  Compact pressure sensor  ">
		</head><body><h1 id="t">PX-200</h1></body></html>`)

	if n, err := extractMeta(ctx, spec("meta", nil)); err != nil || n != 1 {
		t.Fatalf("extractMeta = %d, %v", n, err)
	}
	if n, err := extractText(ctx, spec("text", map[string]any{
		"selector": "#t", "section": "Product Info", "key": "Product Name",
	})); err != nil || n != 1 {
		t.Fatalf("extractText = %d, %v", n, err)
	}

	kv := ctx.Accum.Normalize()
	if kv["General"]["Description"] != "Compact pressure sensor" {
		t.Fatalf("Description = %#v", kv["General"]["Description"])
	}
	if kv["Product Info"]["Product Name"] != "PX-200" {
		t.Fatalf("Product Name = %#v", kv["Product Info"]["Product Name"])
	}
}

// TestExtractText_NoSelector verifies a missing selector is a silent empty
// result, not an error.
func TestExtractText_NoSelector(t *testing.T) {
	t.Parallel()

	ctx := newCtx(t, `<p>x</p>`)
	n, err := extractText(ctx, spec("text", nil))
	if err != nil || n != 0 {
		t.Fatalf("got %d, %v", n, err)
	}
	if kv := ctx.Accum.Normalize(); len(kv) != 0 {
		t.Fatalf("kv = %#v", kv)
	}
}
