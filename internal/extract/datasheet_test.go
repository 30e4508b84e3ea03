package extract

import "testing"

func TestExtractDatasheetLink_ConfiguredSelector(t *testing.T) {
	t.Parallel()

	page := `<a class="other" href="/manual.pdf">Manual</a>
	<a id="ds" href="/docs/123.pdf">Download</a>`

	ctx := newCtx(t, page)
	n, err := extractDatasheetLink(ctx, spec("datasheet_link", map[string]any{
		"selectors": []any{"a#missing", "a#ds"},
		"base_url":  "https://www.example.com/products/p1",
	}))
	if err != nil || n != 1 {
		t.Fatalf("got %d, %v", n, err)
	}
	if got := ctx.Accum.Normalize()["Downloads"]["Datasheet"]; got != "https://www.example.com/docs/123.pdf" {
		t.Fatalf("Datasheet = %#v", got)
	}
}

func TestExtractDatasheetLink_SelectorRejectsImplausibleHref(t *testing.T) {
	t.Parallel()

	// The configured selector matches a navigation link. That href is not a
	// datasheet, so the keyword sweep decides instead.
	page := `<a id="ds" href="/shop/cart">Add to cart</a>
	<a href="/media/datasheet_9301.pdf">Datasheet</a>`

	ctx := newCtx(t, page)
	n, err := extractDatasheetLink(ctx, spec("datasheet_link", map[string]any{
		"selectors": []any{"a#ds"},
		"base_url":  "https://www.example.com",
	}))
	if err != nil || n != 1 {
		t.Fatalf("got %d, %v", n, err)
	}
	if got := ctx.Accum.Normalize()["Downloads"]["Datasheet"]; got != "https://www.example.com/media/datasheet_9301.pdf" {
		t.Fatalf("Datasheet = %#v", got)
	}
}

func TestExtractDatasheetLink_KeywordFallback(t *testing.T) {
	t.Parallel()

	page := `<a href="/shop/cart">Cart</a>
	<a href="/media/datenblatt_9301.pdf">Datenblatt (DE)</a>
	<a href="/media/other.pdf">Other document</a>`

	ctx := newCtx(t, page)
	n, err := extractDatasheetLink(ctx, spec("datasheet_link", map[string]any{
		"base_url": "https://www.example.com",
		"section":  "Docs",
		"key":      "PDF",
	}))
	if err != nil || n != 1 {
		t.Fatalf("got %d, %v", n, err)
	}
	if got := ctx.Accum.Normalize()["Docs"]["PDF"]; got != "https://www.example.com/media/datenblatt_9301.pdf" {
		t.Fatalf("PDF = %#v", got)
	}
}

func TestExtractDatasheetLink_KeywordWithoutPlausibleURL(t *testing.T) {
	t.Parallel()

	// The anchor text mentions a datasheet but the href leads nowhere useful.
	ctx := newCtx(t, `<a href="/contact">Request a datasheet</a>`)
	n, err := extractDatasheetLink(ctx, spec("datasheet_link", map[string]any{}))
	if err != nil || n != 0 {
		t.Fatalf("got %d, %v", n, err)
	}
}

func TestIsDatasheetURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		href string
		want bool
	}{
		{"", false},
		{"/docs/file.pdf", true},
		{"/api/teddatasheet?id=1", true},
		{"/product/pdf/api/v1/abc", true},
		{"/nl/productfiche/2905743", true},
		{"/shop/cart", false},
	}
	for _, tt := range tests {
		if got := isDatasheetURL(tt.href); got != tt.want {
			t.Errorf("isDatasheetURL(%q) = %v, want %v", tt.href, got, tt.want)
		}
	}
}

func TestAbsoluteURL(t *testing.T) {
	t.Parallel()

	if got := absoluteURL("", "/a.pdf"); got != "/a.pdf" {
		t.Fatalf("empty base: %q", got)
	}
	if got := absoluteURL("https://www.example.com/p/q", "../a.pdf"); got != "https://www.example.com/a.pdf" {
		t.Fatalf("relative: %q", got)
	}
	if got := absoluteURL("https://www.example.com", "https://cdn.example.com/a.pdf"); got != "https://cdn.example.com/a.pdf" {
		t.Fatalf("absolute href: %q", got)
	}
}
