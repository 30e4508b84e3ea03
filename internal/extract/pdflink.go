package extract

import (
	"encoding/base64"
	"fmt"
	"strings"

	"scraperengine/internal/profile"
)

// pdfBlocks lists the document sections requested in a generated datasheet
// URL, in the order the download API expects.
var pdfBlocks = []string{
	"commercial-data",
	"technical-data",
	"drawings",
	"approvals",
	"classifications",
	"environmental-compliance-data",
	"all-accessories",
}

// extractPDFLink generates a datasheet download URL from the product's
// article number. The article number is read from a previously extracted
// key; the trailing numeric segment of the canonical URL is the fallback.
// Runs after the extractors that populate the article number.
func extractPDFLink(ctx *Context, spec profile.Spec) (int, error) {
	articleKey := spec.Str("article_key", "Artikelnummer")
	articleSection := spec.Str("article_section", "Productdetails")
	targetSection := spec.Str("target_section", "Downloads")
	targetKey := spec.Str("target_key", "PDF Datasheet")
	realm := spec.Str("realm", "be")
	locale := spec.Str("locale", "nl-BE")

	article, _ := ctx.Accum.First(articleSection, articleKey)
	if article == "" {
		article = articleFromCanonical(ctx.Doc.CanonicalURL())
	}
	if article == "" {
		return 0, nil
	}

	encoded := base64.RawStdEncoding.EncodeToString([]byte(article))
	pdfURL := fmt.Sprintf(
		"https://www.phoenixcontact.com/product/pdf/api/v1/%s?_realm=%s&_locale=%s&blocks=%s&action=DOWNLOAD",
		encoded, realm, locale, strings.Join(pdfBlocks, "%2C"),
	)

	ctx.Accum.Add(targetSection, targetKey, pdfURL)
	return 1, nil
}

// articleFromCanonical takes the segment after the last dash of the
// canonical URL, accepted only when fully numeric.
func articleFromCanonical(canonical string) string {
	canonical = strings.TrimRight(canonical, "/")
	i := strings.LastIndexByte(canonical, '-')
	if i < 0 || i == len(canonical)-1 {
		return ""
	}
	tail := canonical[i+1:]
	for _, r := range tail {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return tail
}
