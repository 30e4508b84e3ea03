package extract

import (
	"github.com/PuerkitoBio/goquery"

	"scraperengine/internal/htmlutil"
	"scraperengine/internal/profile"
)

// extractTable reads key/value pairs from HTML tables. Each table is filed
// under the nearest heading above it. When "key_column"/"value_column" are
// configured those cell indices are read; otherwise any row with exactly two
// non-empty cells is treated as a pair (the generic two-cell heuristic).
// Rows carrying the "skip_rows_with_class" class are skipped (header rows).
func extractTable(ctx *Context, spec profile.Spec) (int, error) {
	container, err := htmlutil.Container(ctx.Doc.Doc, spec.Str("container", ""))
	if err != nil {
		return 0, err
	}
	tables, err := htmlutil.Select(container, spec.Str("tables", "table"))
	if err != nil {
		return 0, err
	}

	_, hasKeyCol := spec.Params["key_column"]
	_, hasValCol := spec.Params["value_column"]
	explicitColumns := hasKeyCol || hasValCol
	keyCol := spec.Int("key_column", 0)
	valCol := spec.Int("value_column", 1)
	skipClass := spec.Str("skip_rows_with_class", "")

	count := 0
	tables.Each(func(_ int, table *goquery.Selection) {
		section := htmlutil.NearestHeading(table, nil)

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			if skipClass != "" && row.HasClass(skipClass) {
				return
			}

			cells := row.Find("td, th")
			var key, value string

			if explicitColumns {
				if keyCol >= cells.Length() || valCol >= cells.Length() {
					return
				}
				key = htmlutil.Text(cells.Eq(keyCol))
				value = htmlutil.Text(cells.Eq(valCol))
			} else {
				// Auto mode: exactly two non-empty cells form a pair.
				var texts []string
				cells.Each(func(_ int, c *goquery.Selection) {
					if t := htmlutil.Text(c); t != "" {
						texts = append(texts, t)
					}
				})
				if len(texts) != 2 {
					return
				}
				key, value = texts[0], texts[1]
			}

			if key != "" && value != "" {
				ctx.Accum.Add(section, key, value)
				count++
			}
		})
	})
	return count, nil
}
