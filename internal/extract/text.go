package extract

import (
	"scraperengine/internal/htmlutil"
	"scraperengine/internal/profile"
)

// extractText records the cleaned text of the first element a selector
// matches.
func extractText(ctx *Context, spec profile.Spec) (int, error) {
	selector := spec.Str("selector", "")
	if selector == "" {
		return 0, nil
	}
	section := spec.Str("section", "General")
	key := spec.Str("key", "Text")

	sel, err := htmlutil.SelectOne(ctx.Doc.Doc.Selection, selector)
	if err != nil {
		return 0, err
	}
	text := htmlutil.CleanText(sel.Text())
	if text == "" {
		return 0, nil
	}
	ctx.Accum.Add(section, key, text)
	return 1, nil
}
