// Package extract implements the extraction algorithms ("extractors") the
// engine dispatches to by spec type tag.
//
// Each extractor is a stateless function consuming (document, spec
// parameters, accumulator) and returning a count of items found. Missing
// selectors, attributes and paths are normal empty results; only genuinely
// broken input (an invalid configured selector, an uncompilable pattern)
// comes back as an error, which the orchestrator logs and isolates.
package extract

import (
	"scraperengine/internal/htmlutil"
	"scraperengine/internal/profile"
)

// Context carries the per-call inputs shared by all extractor invocations.
type Context struct {
	Doc *htmlutil.Document

	// Vendor is the detected vendor identifier, used by extractors whose
	// defaults depend on the vendor (e.g. base URLs for relative links).
	Vendor string

	Accum *Accumulator
}

// Func is one extraction algorithm.
type Func func(ctx *Context, spec profile.Spec) (int, error)

type registration struct {
	// name is the canonical stats key. Several configured type tags may
	// alias one implementation; counts are aggregated per implementation
	// identity so stats stay stable across configuration evolution.
	name string
	fn   Func
}

// implementations is the canonical mapping plus its alias table. This is the
// final registry: older tags from earlier configuration generations resolve
// here as aliases of the surviving implementation.
var implementations = []struct {
	name    string
	aliases []string
	fn      Func
}{
	{name: "rows", fn: extractRows},
	{name: "table", fn: extractTable},
	{name: "dl", fn: extractDL},
	{name: "li_split", fn: extractLiSplit},
	{name: "label_value", fn: extractLabelValue},
	{name: "product_variants", aliases: []string{"variants"}, fn: extractProductVariants},
	{name: "embedded_json", aliases: []string{"schneider_json", "abb_json"}, fn: extractEmbeddedJSON},
	{name: "attribute", aliases: []string{"link_attribute", "image"}, fn: extractAttribute},
	{name: "meta", aliases: []string{"meta_description"}, fn: extractMeta},
	{name: "text", fn: extractText},
	{name: "datasheet_link", fn: extractDatasheetLink},
	{name: "pdf_link", aliases: []string{"phoenix_pdf"}, fn: extractPDFLink},
	{name: "doc_cards", aliases: []string{"vega_pdf"}, fn: extractDocCards},
}

var registry = func() map[string]registration {
	m := make(map[string]registration)
	for _, impl := range implementations {
		reg := registration{name: impl.name, fn: impl.fn}
		m[impl.name] = reg
		for _, alias := range impl.aliases {
			m[alias] = reg
		}
	}
	return m
}()

// Lookup resolves a spec type tag to its implementation and canonical stats
// key. Unknown tags are a data problem, not an error: the caller skips the
// spec and continues.
func Lookup(typeTag string) (name string, fn Func, ok bool) {
	reg, ok := registry[typeTag]
	if !ok {
		return "", nil, false
	}
	return reg.name, reg.fn, true
}
