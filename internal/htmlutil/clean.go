package htmlutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var (
	// literalEscapes removes escape sequences that survived as two-character
	// text ("\n" as backslash-n), which server-rendered pages leak into
	// visible text.
	literalEscapes = strings.NewReplacer(`\t`, " ", `\n`, " ", `\r`, " ")

	// controlToSpace folds real control characters and non-breaking spaces
	// into plain spaces before whitespace collapsing.
	controlToSpace = runes.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r', ' ':
			return ' '
		}
		return r
	})

	ssrMarkerRe   = regexp.MustCompile(`\\x3C!---->|\\x3C!----&gt;`)
	htmlCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	wsRunRe       = regexp.MustCompile(`\s+`)
)

// CleanText normalizes one extracted text fragment: folds tabs, newlines,
// carriage returns and non-breaking spaces (literal and actual) to spaces,
// strips server-side-rendering comment markers, collapses whitespace runs,
// and trims both ends.
func CleanText(s string) string {
	if s == "" {
		return ""
	}

	s = literalEscapes.Replace(s)
	if folded, _, err := transform.String(controlToSpace, s); err == nil {
		s = folded
	}

	s = ssrMarkerRe.ReplaceAllString(s, " ")
	s = htmlCommentRe.ReplaceAllString(s, " ")
	s = wsRunRe.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}
