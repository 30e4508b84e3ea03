package extract

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"scraperengine/internal/htmlutil"
	"scraperengine/internal/profile"
)

// extractDL pairs every dt with its immediately-following dd sibling inside
// each definition list under the configured container. The section is
// resolved once per list.
func extractDL(ctx *Context, spec profile.Spec) (int, error) {
	container, err := htmlutil.Container(ctx.Doc.Doc, spec.Str("container", ""))
	if err != nil {
		return 0, err
	}

	count := 0
	container.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		section := htmlutil.NearestHeading(dl, nil)

		dl.Find("dt").Each(func(_ int, dt *goquery.Selection) {
			dd := followingDD(dt.Get(0))
			if dd == nil {
				return
			}

			key := htmlutil.Text(dt)
			value := htmlutil.CleanText(htmlutil.NodeText(dd))
			if key != "" && value != "" {
				ctx.Accum.Add(section, key, value)
				count++
			}
		})
	})
	return count, nil
}

// followingDD returns the dd sibling immediately after a dt, stopping at the
// next dt so unmatched terms never steal a later definition.
func followingDD(dt *html.Node) *html.Node {
	for sib := dt.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type != html.ElementNode {
			continue
		}
		switch sib.Data {
		case "dd":
			return sib
		case "dt":
			return nil
		}
	}
	return nil
}
