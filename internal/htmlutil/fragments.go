package htmlutil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// NodeTextExcluding is NodeText with a skip set: any node present in skip
// (and its whole subtree) contributes no text. Extractors use this to strip
// configured "noise" elements from a value without mutating the document.
func NodeTextExcluding(n *html.Node, skip map[*html.Node]bool) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if skip[c] {
			return
		}
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

// TextExcluding returns the normalized text of a selection minus the skip
// set's subtrees.
func TextExcluding(sel *goquery.Selection, skip map[*html.Node]bool) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	var parts []string
	for _, n := range sel.Nodes {
		parts = append(parts, NodeTextExcluding(n, skip))
	}
	return CleanText(strings.Join(parts, " "))
}

// TextFragments returns each text node under n as its own trimmed fragment,
// in document order, with empty fragments dropped. Callers that split
// element text on a delimiter use this so element boundaries count as
// natural split points.
func TextFragments(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			if t := strings.TrimSpace(c.Data); t != "" {
				out = append(out, t)
			}
			return
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return out
}
