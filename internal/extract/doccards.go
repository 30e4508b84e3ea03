package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"scraperengine/internal/htmlutil"
	"scraperengine/internal/profile"
)

// extractDocCards collects document download URLs from a card grid where
// each card names a document type in its heading and carries per-language
// download URLs; only the selected language's URL is taken.
func extractDocCards(ctx *Context, spec profile.Spec) (int, error) {
	targetSection := spec.Str("target_section", "Downloads")
	baseURL := spec.Str("base_url", "https://www.vega.com")
	cardsSelector := spec.Str("cards_selector", "div.cards")
	cardSelector := spec.Str("card_selector", "div.card")

	container, err := htmlutil.SelectOne(ctx.Doc.Doc.Selection, cardsSelector)
	if err != nil {
		return 0, err
	}
	if container.Length() == 0 {
		return 0, nil
	}

	cards, err := htmlutil.Select(container, cardSelector)
	if err != nil {
		return 0, err
	}

	langMatcher, err := htmlutil.Compile("li.language.selected[data-url]")
	if err != nil {
		return 0, err
	}

	count := 0
	cards.Each(func(_ int, card *goquery.Selection) {
		docType := htmlutil.CleanText(card.Find("h3").First().Text())
		if docType == "" {
			return
		}

		lang := card.FindMatcher(langMatcher).First()
		dataURL, _ := lang.Attr("data-url")
		dataURL = strings.TrimSpace(dataURL)
		if dataURL == "" {
			return
		}

		var pdfURL string
		switch {
		case strings.HasPrefix(dataURL, "http"):
			pdfURL = dataURL
		case strings.HasPrefix(dataURL, "/"):
			pdfURL = baseURL + dataURL
		default:
			pdfURL = baseURL + "/" + dataURL
		}

		ctx.Accum.Add(targetSection, docType, pdfURL)
		count++
	})
	return count, nil
}
