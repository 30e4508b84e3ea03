package htmlutil

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document pairs the parsed tree of one markup page with its raw text form.
//
// The raw form is kept because some extraction (notably embedded-JSON repair)
// operates on substrings the parsed tree does not expose cleanly, e.g. raw
// attribute text before entity decoding, or whole inline scripts.
//
// A Document is created once per extraction call and never mutated.
type Document struct {
	Raw string
	Doc *goquery.Document
}

// Parse builds a Document from an HTML string.
func Parse(html string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{Raw: html, Doc: doc}, nil
}

// CanonicalURL returns the canonical link-relation target, or "" when the
// page exposes none. Absence is a normal outcome, never an error.
func (d *Document) CanonicalURL() string {
	href, ok := d.Doc.Find(`link[rel="canonical"]`).First().Attr("href")
	if !ok {
		return ""
	}
	return strings.TrimSpace(href)
}
