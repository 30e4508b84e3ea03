package htmlutil

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Compile turns a configuration-provided CSS selector into a matcher,
// reporting malformed selectors as ordinary errors. Extractors that apply
// the same selector per-row compile once up front.
func Compile(selector string) (cascadia.Selector, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return m, nil
}

// Select runs a configuration-provided CSS selector against root.
//
// Selectors arrive from vendor configuration, so they can be malformed.
// goquery's Find panics on invalid selectors; compiling explicitly turns a
// bad selector into an ordinary error the caller can report and skip.
func Select(root *goquery.Selection, selector string) (*goquery.Selection, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return root.FindMatcher(m), nil
}

// SelectOne is Select narrowed to the first match. The returned selection is
// empty (Length 0) when nothing matches.
func SelectOne(root *goquery.Selection, selector string) (*goquery.Selection, error) {
	sel, err := Select(root, selector)
	if err != nil {
		return nil, err
	}
	return sel.First(), nil
}

// Container resolves an optional container selector, falling back to the
// whole document when the selector is empty or matches nothing.
func Container(doc *goquery.Document, selector string) (*goquery.Selection, error) {
	if selector == "" {
		return doc.Selection, nil
	}
	sel, err := SelectOne(doc.Selection, selector)
	if err != nil {
		return nil, err
	}
	if sel.Length() == 0 {
		return doc.Selection, nil
	}
	return sel, nil
}
