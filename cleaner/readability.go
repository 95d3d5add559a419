package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the minimum TextContent length (in characters) for
// readability output to be considered valid. Below this threshold we assume
// the algorithm failed to locate the main content and keep the full page.
const minContentLength = 50

// extractMainContent runs the Mozilla Readability algorithm on rawHTML and
// returns the main-content HTML plus the extracted title.
//
// Fallback behaviour (cleaning must never fail a whole extraction attempt):
//   - If URL parsing fails           → return raw HTML unchanged
//   - If readability.FromReader errs → return raw HTML unchanged
//   - If extracted text is too short → return raw HTML unchanged
func extractMainContent(rawHTML string, sourceURL string) (content, title string) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("readability: invalid source URL, keeping full page",
			"url", sourceURL, "error", err,
		)
		return rawHTML, ""
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Warn("readability: extraction failed, keeping full page",
			"url", sourceURL, "error", err,
		)
		return rawHTML, ""
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		slog.Debug("readability: extracted content too short, keeping full page",
			"url", sourceURL, "length", len(article.TextContent),
		)
		return rawHTML, article.Title
	}

	return article.Content, article.Title
}
