package extract

import (
	"strings"

	"golang.org/x/net/html"

	"scraperengine/internal/htmlutil"
	"scraperengine/internal/profile"
)

// maxLiSplitKeyLen rejects improbably long keys: split list items whose
// first part runs past this are prose, not key/value data.
const maxLiSplitKeyLen = 100

// extractLiSplit walks all descendants of a container in document order,
// tracking the current section from configured heading tags, and splits each
// matching list item's text on a delimiter into key + value. Items whose
// whole text is in the skip set, or that contain a nested sub-list
// (navigation noise), are ignored.
func extractLiSplit(ctx *Context, spec profile.Spec) (int, error) {
	container, err := htmlutil.Container(ctx.Doc.Doc, spec.Str("container", ""))
	if err != nil {
		return 0, err
	}
	if container.Length() == 0 {
		return 0, nil
	}

	headerTags := spec.StrSlice("section_headers")
	if len(headerTags) == 0 {
		headerTags = []string{"h3", "h4"}
	}
	headers := make(map[string]bool, len(headerTags))
	for _, h := range headerTags {
		headers[strings.ToLower(h)] = true
	}

	itemTag := strings.ToLower(spec.Str("items", "li"))
	splitOn := spec.Str("split_on", "\n")
	minParts := spec.Int("min_parts", 2)

	skipTexts := make(map[string]bool)
	for _, t := range spec.StrSlice("skip_texts") {
		skipTexts[strings.ToLower(t)] = true
	}

	count := 0
	currentSection := "Unknown"

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case headers[n.Data]:
				text := htmlutil.CleanText(htmlutil.NodeText(n))
				if text != "" && !skipTexts[strings.ToLower(text)] {
					currentSection = text
				}

			case n.Data == itemTag:
				if key, value, ok := splitItem(n, splitOn, minParts, skipTexts); ok {
					ctx.Accum.Add(currentSection, key, value)
					count++
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range container.Nodes {
		walk(n)
	}
	return count, nil
}

// splitItem turns one list item into a key/value pair, or reports false.
func splitItem(n *html.Node, splitOn string, minParts int, skipTexts map[string]bool) (key, value string, ok bool) {
	full := htmlutil.CleanText(htmlutil.NodeText(n))
	if full == "" || skipTexts[strings.ToLower(full)] {
		return "", "", false
	}
	if hasNestedList(n) {
		return "", "", false
	}

	// Element boundaries act as delimiters: fragments are joined with the
	// split delimiter before splitting, so <li><b>Key</b>Value</li> splits
	// cleanly even without literal delimiter characters in the text.
	joined := strings.Join(htmlutil.TextFragments(n), splitOn)

	var parts []string
	for _, p := range strings.Split(joined, splitOn) {
		p = htmlutil.CleanText(p)
		if p == "" || skipTexts[strings.ToLower(p)] {
			continue
		}
		parts = append(parts, p)
	}
	if len(parts) < minParts {
		return "", "", false
	}

	key = parts[0]
	if len(key) > maxLiSplitKeyLen {
		return "", "", false
	}
	value = strings.Join(parts[1:], " ")
	if value == "" {
		return "", "", false
	}
	return key, value, true
}

func hasNestedList(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
			return true
		}
		if hasNestedList(c) {
			return true
		}
	}
	return false
}
