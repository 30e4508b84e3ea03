package extract

import (
	"scraperengine/internal/htmlutil"
	"scraperengine/internal/profile"
)

// extractMeta reads the content attribute of a meta tag.
func extractMeta(ctx *Context, spec profile.Spec) (int, error) {
	selector := spec.Str("selector", `meta[name="description"]`)
	section := spec.Str("section", "General")
	key := spec.Str("key", "Description")

	sel, err := htmlutil.SelectOne(ctx.Doc.Doc.Selection, selector)
	if err != nil {
		return 0, err
	}
	content, ok := sel.Attr("content")
	if !ok {
		return 0, nil
	}
	if content = htmlutil.CleanText(content); content == "" {
		return 0, nil
	}
	ctx.Accum.Add(section, key, content)
	return 1, nil
}
