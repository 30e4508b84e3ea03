package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"scraperengine/internal/htmlutil"
	"scraperengine/internal/profile"
)

// datasheetKeywords flag anchors worth probing when no configured selector
// matched. Matched case-insensitively against the link text and href.
var datasheetKeywords = []string{"datasheet", "productfiche", "datenblatt", "fiche technique"}

// extractDatasheetLink finds a datasheet download URL: configured selectors
// first, then a keyword sweep over every anchor. The first plausible URL
// wins.
func extractDatasheetLink(ctx *Context, spec profile.Spec) (int, error) {
	section := spec.Str("section", "Downloads")
	key := spec.Str("key", "Datasheet")
	base := spec.Str("base_url", "")

	for _, selector := range spec.StrSlice("selectors") {
		sel, err := htmlutil.SelectOne(ctx.Doc.Doc.Selection, selector)
		if err != nil {
			return 0, err
		}
		href, ok := sel.Attr("href")
		if !ok || !isDatasheetURL(strings.ToLower(href)) {
			continue
		}
		if u := absoluteURL(base, href); u != "" {
			ctx.Accum.Add(section, key, u)
			return 1, nil
		}
	}

	var found string
	ctx.Doc.Doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		text := strings.ToLower(htmlutil.Text(a))
		lowerHref := strings.ToLower(href)

		for _, kw := range datasheetKeywords {
			if strings.Contains(text, kw) || strings.Contains(lowerHref, kw) {
				if isDatasheetURL(lowerHref) {
					found = absoluteURL(base, href)
					return false
				}
			}
		}
		return true
	})

	if found == "" {
		return 0, nil
	}
	ctx.Accum.Add(section, key, found)
	return 1, nil
}

// isDatasheetURL accepts direct PDFs and the known datasheet endpoints.
func isDatasheetURL(lowerHref string) bool {
	if lowerHref == "" {
		return false
	}
	if strings.HasSuffix(lowerHref, ".pdf") {
		return true
	}
	for _, marker := range []string{"datasheet", "productfiche", "teddatasheet", "datenblatt", "/product/pdf/"} {
		if strings.Contains(lowerHref, marker) {
			return true
		}
	}
	return false
}

// absoluteURL resolves href against base when both are set; an unset base
// passes href through untouched.
func absoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if base == "" {
		return href
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	hu, err := url.Parse(href)
	if err != nil {
		return href
	}
	return bu.ResolveReference(hu).String()
}
