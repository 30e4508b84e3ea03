package profile

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"scraperengine/internal/htmlutil"
)

// domainVendors maps canonical-URL host substrings to vendor ids. The
// canonical URL is authoritative: a match here short-circuits rule-based
// detection entirely. First substring match wins.
var domainVendors = []struct {
	substr string
	vendor string
}{
	{"abb.com", "abb"},
	{"se.com", "schneider"},
	{"schneider-electric.com", "schneider"},
	{"phoenixcontact.com", "phoenix"},
	{"siemens.com", "siemens"},
	{"sieportal", "siemens"},
	{"vega.com", "vega"},
	{"nexans.", "nexans"},
}

// Detect picks exactly one profile id for a document.
//
// Order: canonical-URL domain mapping first; then non-generic profiles by
// ascending priority, each profile's rules in declaration order; finally the
// generic fallback. Absence of a canonical URL, empty rule lists and zero
// matches are all normal outcomes; Detect always returns an id.
func Detect(doc *htmlutil.Document, profiles []Profile) string {
	if host := canonicalHost(doc); host != "" {
		for _, d := range domainVendors {
			if strings.Contains(host, d.substr) {
				return d.vendor
			}
		}
	}

	for i := range profiles {
		p := &profiles[i]
		if p.ID == GenericID {
			continue
		}
		for _, rule := range p.Detect {
			if ruleMatches(doc, rule) {
				return p.ID
			}
		}
	}
	return GenericID
}

// canonicalHost returns the lowercased host of the document's canonical URL,
// or the whole lowercased URL when it does not parse as one.
func canonicalHost(doc *htmlutil.Document) string {
	cu := doc.CanonicalURL()
	if cu == "" {
		return ""
	}
	if u, err := url.Parse(cu); err == nil && u.Host != "" {
		return strings.ToLower(u.Host)
	}
	return strings.ToLower(cu)
}

func ruleMatches(doc *htmlutil.Document, rule DetectRule) bool {
	root := doc.Doc.Selection

	switch {
	case rule.ID != "":
		return selectorHits(root, fmt.Sprintf("[id=%q]", rule.ID))

	case rule.Selector != "":
		return selectorHits(root, rule.Selector)

	case rule.ClassContains != "":
		return selectorHits(root, fmt.Sprintf("[class*=%q]", rule.ClassContains))

	case rule.TextContains != "":
		page := strings.ToLower(doc.Doc.Text())
		return strings.Contains(page, strings.ToLower(rule.TextContains))

	case rule.CanonicalDomain != "":
		return strings.Contains(canonicalHost(doc), strings.ToLower(rule.CanonicalDomain))
	}
	return false
}

// selectorHits evaluates a selector leniently: a malformed selector in a
// detection rule simply does not match.
func selectorHits(root *goquery.Selection, selector string) bool {
	sel, err := htmlutil.Select(root, selector)
	if err != nil {
		return false
	}
	return sel.Length() > 0
}
