package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// nonContentSelectors are removed from every page before conversion:
// executable/styling noise plus the chrome elements (navigation, headers,
// footers, sidebars) and common ad-marker classes.
var nonContentSelectors = []string{
	"script", "style", "noscript", "iframe",
	"nav", "header", "footer", "aside",
	".ad", ".ads", ".advert", ".advertisement",
	"[class*=\"banner\"]", "[id*=\"banner\"]",
	".sponsored", ".promo",
}

// StripNonContent removes non-content elements from raw HTML. On parse
// failure the input is returned unchanged so the pipeline never produces
// empty output from a cleaning step.
func StripNonContent(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	for _, selector := range nonContentSelectors {
		doc.Find(selector).Remove()
	}

	out, err := doc.Html()
	if err != nil {
		return rawHTML
	}
	return out
}
