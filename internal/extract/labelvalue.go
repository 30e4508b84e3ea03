package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"scraperengine/internal/htmlutil"
	"scraperengine/internal/profile"
)

// defaultLabelPattern matches one "label: value" line with a 2–80 character
// label and a 1–200 character value.
const defaultLabelPattern = `^(.{2,80}):\s*(.{1,200})$`

// extractLabelValue applies a regex with two capture groups against the
// normalized text of every element in a configured tag allow-list. This is
// the generic fallback for pages without any usable structure.
func extractLabelValue(ctx *Context, spec profile.Spec) (int, error) {
	pattern := spec.Str("pattern", defaultLabelPattern)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}

	tags := spec.StrSlice("elements")
	if len(tags) == 0 {
		tags = []string{"p", "li", "div", "span"}
	}

	count := 0
	ctx.Doc.Doc.Find(strings.Join(tags, ", ")).Each(func(_ int, el *goquery.Selection) {
		m := re.FindStringSubmatch(htmlutil.Text(el))
		if len(m) < 3 {
			return
		}
		key := strings.TrimSpace(m[1])
		value := strings.TrimSpace(m[2])
		if key == "" || value == "" {
			return
		}
		ctx.Accum.Add(htmlutil.NearestHeading(el, nil), key, value)
		count++
	})
	return count, nil
}
