package htmlutil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DefaultHeadingLevels is the tag set NearestHeading scans when the caller
// does not configure one.
var DefaultHeadingLevels = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// NearestHeading walks all nodes preceding sel in document order (reverse)
// and returns the normalized text of the first heading-level element with
// non-empty text. It returns "Unknown" when no heading precedes the node.
//
// Extracted key/value pairs are grouped under this heading text ("section").
func NearestHeading(sel *goquery.Selection, levels []string) string {
	if sel == nil || sel.Length() == 0 {
		return "Unknown"
	}
	if len(levels) == 0 {
		levels = DefaultHeadingLevels
	}

	want := make(map[string]bool, len(levels))
	for _, l := range levels {
		want[strings.ToLower(l)] = true
	}

	for n := prevInDocOrder(sel.Get(0)); n != nil; n = prevInDocOrder(n) {
		if n.Type != html.ElementNode || !want[n.Data] {
			continue
		}
		if t := CleanText(NodeText(n)); t != "" {
			return t
		}
	}
	return "Unknown"
}

// prevInDocOrder returns the node immediately before n in document order:
// the deepest last descendant of the previous sibling, else the parent.
func prevInDocOrder(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	if prev := n.PrevSibling; prev != nil {
		for prev.LastChild != nil {
			prev = prev.LastChild
		}
		return prev
	}
	return n.Parent
}

// NodeText concatenates all text nodes under n, separating fragments with a
// single space so adjacent elements do not run together.
func NodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(c.Data)
			return
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

// Text returns the normalized text of a selection, with element boundaries
// treated as spaces.
func Text(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	var parts []string
	for _, n := range sel.Nodes {
		parts = append(parts, NodeText(n))
	}
	return CleanText(strings.Join(parts, " "))
}
