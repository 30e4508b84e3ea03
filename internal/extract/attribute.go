package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"scraperengine/internal/htmlutil"
	"scraperengine/internal/profile"
)

// vendorBaseURLs maps vendor ids to the origin prepended to relative URLs
// when a config asks for prepend_base_url.
var vendorBaseURLs = map[string]string{
	"vega":    "https://www.vega.com",
	"siemens": "https://mall.industry.siemens.com",
}

// extractAttribute reads a single attribute off matching elements. Selectors
// are tried in order and the first one that matches wins; "take" picks the
// first, last or all matched values. With fallback_jsonld enabled, an empty
// result falls back to the image field of JSON-LD blocks.
func extractAttribute(ctx *Context, spec profile.Spec) (int, error) {
	selectors := spec.StrSlice("selectors")
	if len(selectors) == 0 {
		if s := spec.Str("selector", ""); s != "" {
			selectors = []string{s}
		}
	}
	if len(selectors) == 0 {
		return 0, nil
	}

	attr := spec.Str("attribute", "src")
	section := spec.Str("section", "Product Info")
	key := spec.Str("key", "Image URL")
	take := spec.Str("take", "first")

	var values []string
	for _, selector := range selectors {
		sel, err := htmlutil.Select(ctx.Doc.Doc.Selection, selector)
		if err != nil {
			return 0, err
		}
		sel.Each(func(_ int, s *goquery.Selection) {
			if v, ok := s.Attr(attr); ok {
				if v = strings.TrimSpace(v); v != "" {
					values = append(values, v)
				}
			}
		})
		if len(values) > 0 {
			break
		}
	}

	if len(values) == 0 && spec.Bool("fallback_jsonld", false) {
		if v := structuredDataImage(ctx.Doc.Doc); v != "" {
			values = []string{v}
		}
	}
	if len(values) == 0 {
		return 0, nil
	}

	switch take {
	case "last":
		values = values[len(values)-1:]
	case "all":
	default:
		values = values[:1]
	}

	prepend := spec.Str("post_process", "") == "prepend_base_url"
	base := vendorBaseURLs[ctx.Vendor]

	count := 0
	for _, v := range values {
		if prepend && base != "" && strings.HasPrefix(v, "/") {
			v = base + v
		}
		ctx.Accum.Add(section, key, v)
		count++
	}
	return count, nil
}

// structuredDataImage returns the first image URL found in any JSON-LD block
// of the document, searching nested values depth-first.
func structuredDataImage(doc *goquery.Document) string {
	var found string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return true
		}
		if img := imageFromValue(v); img != "" {
			found = img
			return false
		}
		return true
	})
	return found
}

// imageFromValue hunts for an "image" key anywhere in the block and renders
// its value, which vendors express as a string, a list, or an object.
func imageFromValue(v any) string {
	switch t := v.(type) {
	case map[string]any:
		if img, ok := t["image"]; ok {
			if u := imageURL(img); u != "" {
				return u
			}
		}
		for _, child := range t {
			if img := imageFromValue(child); img != "" {
				return img
			}
		}
	case []any:
		for _, child := range t {
			if img := imageFromValue(child); img != "" {
				return img
			}
		}
	}
	return ""
}

func imageURL(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		if len(t) > 0 {
			return imageURL(t[0])
		}
	case map[string]any:
		if u, _ := t["url"].(string); u != "" {
			return u
		}
		if u, _ := t["contentUrl"].(string); u != "" {
			return u
		}
	}
	return ""
}
