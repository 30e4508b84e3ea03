package profile

import (
	"testing"

	"scraperengine/internal/htmlutil"
)

const testProfilesYAML = `
beta:
  name: Beta Corp
  priority: 20
  detect:
    - class_contains: beta-page
  specs:
    - type: table

alpha:
  name: Alpha Inc
  priority: 10
  detect:
    - id: alpha-root
    - text_contains: "alpha systems"
  specs:
    - type: rows
      rows: div.row
      key: .k
      value: .v

generic:
  name: Generic
  priority: 1000
  specs:
    - type: table
`

func mustParse(t *testing.T, yaml string) []Profile {
	t.Helper()
	ps, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return ps
}

func mustDoc(t *testing.T, html string) *htmlutil.Document {
	t.Helper()
	doc, err := htmlutil.Parse(html)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// TestParse_PriorityOrder verifies profiles come back sorted ascending by
// priority regardless of declaration order.
func TestParse_PriorityOrder(t *testing.T) {
	t.Parallel()

	ps := mustParse(t, testProfilesYAML)
	if len(ps) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(ps))
	}
	if ps[0].ID != "alpha" || ps[1].ID != "beta" || ps[2].ID != "generic" {
		t.Fatalf("wrong order: %s, %s, %s", ps[0].ID, ps[1].ID, ps[2].ID)
	}
}

// TestParse_DefaultPriority verifies an omitted priority gets the default so
// declared-before profiles with explicit low priorities still win.
func TestParse_DefaultPriority(t *testing.T) {
	t.Parallel()

	ps := mustParse(t, "x:\n  specs:\n    - type: table\n")
	if ps[0].Priority != 100 {
		t.Fatalf("priority = %d, want 100", ps[0].Priority)
	}
}

// TestParse_TieBreakDeclarationOrder verifies equal priorities keep YAML
// declaration order (stable sort over yaml.Node iteration).
func TestParse_TieBreakDeclarationOrder(t *testing.T) {
	t.Parallel()

	ps := mustParse(t, `
second:
  priority: 50
  specs: [{type: table}]
first:
  priority: 50
  specs: [{type: table}]
`)
	if ps[0].ID != "second" || ps[1].ID != "first" {
		t.Fatalf("tie-break broke declaration order: %s, %s", ps[0].ID, ps[1].ID)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("")); err == nil {
		t.Fatal("expected error for empty document")
	}
	if _, err := Parse([]byte("x:\n  specs:\n    - selector: p\n")); err == nil {
		t.Fatal("expected error for spec without type tag")
	}
}

// TestDetect_CanonicalDomainWins verifies the canonical-URL host mapping is
// authoritative and short-circuits rule matching: the page carries beta's
// class marker, but the abb.com canonical URL decides.
func TestDetect_CanonicalDomainWins(t *testing.T) {
	t.Parallel()

	ps := mustParse(t, testProfilesYAML)
	doc := mustDoc(t, `<html><head>
		<link rel="canonical" href="https://new.abb.com/products/X1">
	</head><body><div class="beta-page">x</div></body></html>`)

	if got := Detect(doc, ps); got != "abb" {
		t.Fatalf("Detect = %q, want abb", got)
	}
}

// TestDetect_RuleTypes exercises each rule variant against a matching page.
func TestDetect_RuleTypes(t *testing.T) {
	t.Parallel()

	ps := mustParse(t, testProfilesYAML)

	cases := []struct {
		name string
		html string
		want string
	}{
		{"id rule", `<div id="alpha-root"></div>`, "alpha"},
		{"text rule", `<p>powered by Alpha Systems platform</p>`, "alpha"},
		{"class rule", `<div class="x beta-page y"></div>`, "beta"},
		{"no match", `<p>nothing recognizable</p>`, GenericID},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Detect(mustDoc(t, tc.html), ps); got != tc.want {
				t.Fatalf("Detect = %q, want %q", got, tc.want)
			}
		})
	}
}

// TestDetect_PriorityBeatsDeclaration verifies a lower-priority profile is
// probed first even when both profiles' rules match the document.
func TestDetect_PriorityBeatsDeclaration(t *testing.T) {
	t.Parallel()

	ps := mustParse(t, `
loud:
  priority: 90
  detect: [{class_contains: shared}]
  specs: [{type: table}]
quiet:
  priority: 10
  detect: [{class_contains: shared}]
  specs: [{type: table}]
`)
	doc := mustDoc(t, `<div class="shared"></div>`)
	if got := Detect(doc, ps); got != "quiet" {
		t.Fatalf("Detect = %q, want quiet", got)
	}
}

func TestSpecAccessors(t *testing.T) {
	t.Parallel()

	s := Spec{Type: "x", Params: map[string]any{
		"s":    "str",
		"b":    true,
		"i":    3,
		"list": []any{"a", "b"},
		"one":  "solo",
		"m":    map[string]any{"k": "v"},
	}}

	if s.Str("s", "d") != "str" || s.Str("missing", "d") != "d" {
		t.Fatal("Str accessor")
	}
	if !s.Bool("b", false) || s.Bool("missing", true) != true {
		t.Fatal("Bool accessor")
	}
	if s.Int("i", 0) != 3 || s.Int("missing", 9) != 9 {
		t.Fatal("Int accessor")
	}
	if got := s.StrSlice("list"); len(got) != 2 || got[0] != "a" {
		t.Fatalf("StrSlice list = %#v", got)
	}
	if got := s.StrSlice("one"); len(got) != 1 || got[0] != "solo" {
		t.Fatalf("StrSlice scalar = %#v", got)
	}
	if m := s.Map("m"); m == nil || m["k"] != "v" {
		t.Fatalf("Map = %#v", s.Map("m"))
	}
}

func TestFindAndDisplayName(t *testing.T) {
	t.Parallel()

	ps := mustParse(t, testProfilesYAML)
	p := Find(ps, "alpha")
	if p == nil || p.DisplayName() != "Alpha Inc" {
		t.Fatalf("Find(alpha) = %#v", p)
	}
	if Find(ps, "nope") != nil {
		t.Fatal("Find(nope) should be nil")
	}

	anon := Profile{ID: "raw"}
	if anon.DisplayName() != "raw" {
		t.Fatal("DisplayName fallback to id")
	}
}
