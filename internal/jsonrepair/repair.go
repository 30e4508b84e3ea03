// Package jsonrepair rewrites malformed JSON text embedded in markup
// documents into parseable JSON.
//
// Some vendors store an entire product payload in an HTML attribute that has
// been through one or more rounds of inconsistent entity escaping, leaving
// HTML entities in place of quotes and over-escaped backslash runs. The
// repair pass applies a fixed sequence of heuristic rewrites and then hands
// the result to the strict stdlib parser; a parse failure is not retried
// further and means "no data" for the caller, never an exception.
package jsonrepair

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	entities = strings.NewReplacer(
		"&quot;", `"`,
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
	)

	// apostropheRun matches any run of backslashes immediately preceding an
	// apostrophe. JSON has no \' escape, so the whole run is dropped and the
	// bare apostrophe kept.
	apostropheRun = regexp.MustCompile(`\\+'`)
)

// Repair applies, in order: (1) core HTML entity decoding; (2) backslash
// runs before apostrophes rewritten to '; (3) stray backslashes not
// followed by a recognized escape character escaped; (4) runs of two-or-more
// backslashes before a quote or a recognized escape letter collapsed to one
// escaping backslash.
func Repair(raw string) string {
	s := entities.Replace(raw)
	s = apostropheRun.ReplaceAllString(s, `'`)
	return normalizeBackslashes(s)
}

// Parse repairs raw and feeds it to the strict JSON parser.
func Parse(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(Repair(raw)), &v); err != nil {
		return nil, fmt.Errorf("repaired json still unparseable: %w", err)
	}
	return v, nil
}

// recognized escape characters that may legally follow a single backslash.
func isEscapeChar(c byte) bool {
	switch c {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
		return true
	}
	return false
}

// normalizeBackslashes implements repair steps 3 and 4 in one scan.
//
// RE2 has no lookahead, and the two steps interact on shared backslash runs,
// so a byte scanner is clearer than layered regex rewrites. For every
// maximal run of backslashes:
//   - followed by a quote or recognized escape letter: emit exactly one
//     backslash (collapsing vendor over-escaping like \\n or \\\\");
//   - otherwise the backslashes are data: emit an even-length run so each
//     one is escaped.
func normalizeBackslashes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			i++
			continue
		}

		n := 0
		for i < len(s) && s[i] == '\\' {
			n++
			i++
		}

		if i < len(s) && isEscapeChar(s[i]) {
			b.WriteByte('\\')
			continue
		}

		// Stray run: round up to an even count so the backslashes survive
		// as literal characters.
		if n%2 != 0 {
			n++
		}
		for j := 0; j < n; j++ {
			b.WriteByte('\\')
		}
	}
	return b.String()
}
