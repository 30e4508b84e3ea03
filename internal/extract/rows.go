package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"scraperengine/internal/htmlutil"
	"scraperengine/internal/profile"
)

// extractRows reads key/value pairs out of row-based structures: a "rows"
// selector locates the rows, per-row "key" and "value" selectors read the
// pair, and optional "remove_noise" selectors exclude clutter (tooltips,
// icons) from the value text. With "multiple_values" all value matches are
// joined with a separator.
func extractRows(ctx *Context, spec profile.Spec) (int, error) {
	rowsSel := spec.Str("rows", "")
	keySel := spec.Str("key", "")
	valueSel := spec.Str("value", "")
	if rowsSel == "" || keySel == "" || valueSel == "" {
		return 0, nil
	}

	multi := spec.Bool("multiple_values", false)
	sep := spec.Str("value_separator", " | ")
	noiseSels := spec.StrSlice("remove_noise")

	keyM, err := htmlutil.Compile(keySel)
	if err != nil {
		return 0, err
	}
	valueM, err := htmlutil.Compile(valueSel)
	if err != nil {
		return 0, err
	}

	rows, err := htmlutil.Select(ctx.Doc.Doc.Selection, rowsSel)
	if err != nil {
		return 0, err
	}

	count := 0
	rows.Each(func(_ int, row *goquery.Selection) {
		key := htmlutil.Text(row.FindMatcher(keyM).First())
		if key == "" {
			return
		}

		skip := noiseNodes(row, noiseSels)
		section := htmlutil.NearestHeading(row, nil)

		var value string
		if multi {
			var vals []string
			row.FindMatcher(valueM).Each(func(_ int, v *goquery.Selection) {
				if t := htmlutil.TextExcluding(v, skip); t != "" {
					vals = append(vals, t)
				}
			})
			value = strings.Join(vals, sep)
		} else {
			value = htmlutil.TextExcluding(row.FindMatcher(valueM).First(), skip)
		}

		if value != "" {
			ctx.Accum.Add(section, key, value)
			count++
		}
	})
	return count, nil
}

// noiseNodes resolves the configured noise selectors within row into a skip
// set. Malformed noise selectors are ignored: stripping noise is best-effort
// and must not fail the row.
func noiseNodes(row *goquery.Selection, selectors []string) map[*html.Node]bool {
	if len(selectors) == 0 {
		return nil
	}
	skip := make(map[*html.Node]bool)
	for _, ns := range selectors {
		sel, err := htmlutil.Select(row, ns)
		if err != nil {
			continue
		}
		for _, n := range sel.Nodes {
			skip[n] = true
		}
	}
	return skip
}
