package extract

import (
	"reflect"
	"testing"
)

func TestExtractAttribute_SelectorOrder(t *testing.T) {
	t.Parallel()

	ctx := newCtx(t, `<img class="thumb" src="/thumb.png"><img class="hero" src="/hero.png">`)
	n, err := extractAttribute(ctx, spec("attribute", map[string]any{
		"selectors": []any{"img.missing", "img.hero", "img.thumb"},
	}))
	if err != nil || n != 1 {
		t.Fatalf("got %d, %v", n, err)
	}
	kv := ctx.Accum.Normalize()
	if kv["Product Info"]["Image URL"] != "/hero.png" {
		t.Fatalf("Image URL = %#v", kv["Product Info"]["Image URL"])
	}
}

func TestExtractAttribute_Take(t *testing.T) {
	t.Parallel()

	const page = `<a class="doc" href="/a.pdf"></a><a class="doc" href="/b.pdf"></a><a class="doc" href="/c.pdf"></a>`

	tests := []struct {
		take string
		want any
		n    int
	}{
		{"first", "/a.pdf", 1},
		{"last", "/c.pdf", 1},
		{"all", []string{"/a.pdf", "/b.pdf", "/c.pdf"}, 3},
	}
	for _, tt := range tests {
		ctx := newCtx(t, page)
		n, err := extractAttribute(ctx, spec("attribute", map[string]any{
			"selector":  "a.doc",
			"attribute": "href",
			"section":   "Downloads",
			"key":       "Docs",
			"take":      tt.take,
		}))
		if err != nil || n != tt.n {
			t.Fatalf("take=%s: got %d, %v", tt.take, n, err)
		}
		if got := ctx.Accum.Normalize()["Downloads"]["Docs"]; !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("take=%s: Docs = %#v", tt.take, got)
		}
	}
}

func TestExtractAttribute_PrependBaseURL(t *testing.T) {
	t.Parallel()

	ctx := newCtx(t, `<img id="main" src="/media/p.png">`)
	ctx.Vendor = "vega"
	n, err := extractAttribute(ctx, spec("attribute", map[string]any{
		"selector":     "img#main",
		"post_process": "prepend_base_url",
	}))
	if err != nil || n != 1 {
		t.Fatalf("got %d, %v", n, err)
	}
	kv := ctx.Accum.Normalize()
	if kv["Product Info"]["Image URL"] != "https://www.vega.com/media/p.png" {
		t.Fatalf("Image URL = %#v", kv["Product Info"]["Image URL"])
	}

	// Absolute values and unknown vendors pass through untouched.
	ctx = newCtx(t, `<img id="main" src="https://cdn.example.com/p.png">`)
	ctx.Vendor = "vega"
	if _, err := extractAttribute(ctx, spec("attribute", map[string]any{
		"selector":     "img#main",
		"post_process": "prepend_base_url",
	})); err != nil {
		t.Fatal(err)
	}
	if got := ctx.Accum.Normalize()["Product Info"]["Image URL"]; got != "https://cdn.example.com/p.png" {
		t.Fatalf("Image URL = %#v", got)
	}
}

func TestExtractAttribute_FallbackJSONLD(t *testing.T) {
	t.Parallel()

	page := `<html><head><script type="application/ld+json">
	{"@type":"Product","name":"P","offers":{"price":"1"},"image":["https://img.example.com/ld.png"]}
	</script></head><body><p>no img tag</p></body></html>`

	ctx := newCtx(t, page)
	n, err := extractAttribute(ctx, spec("attribute", map[string]any{
		"selector":        "img.hero",
		"fallback_jsonld": true,
	}))
	if err != nil || n != 1 {
		t.Fatalf("got %d, %v", n, err)
	}
	if got := ctx.Accum.Normalize()["Product Info"]["Image URL"]; got != "https://img.example.com/ld.png" {
		t.Fatalf("Image URL = %#v", got)
	}
}

func TestExtractAttribute_NoSelectorNoMatch(t *testing.T) {
	t.Parallel()

	ctx := newCtx(t, `<p>x</p>`)
	if n, err := extractAttribute(ctx, spec("attribute", map[string]any{})); err != nil || n != 0 {
		t.Fatalf("no selector: got %d, %v", n, err)
	}
	if n, err := extractAttribute(ctx, spec("attribute", map[string]any{"selector": "img"})); err != nil || n != 0 {
		t.Fatalf("no match: got %d, %v", n, err)
	}
}
