// Package cleaner converts fetched or rendered HTML into normalized
// Markdown. The same pipeline backs the HTTP and browser extractors.
package cleaner

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

// Cleaner runs the two-stage cleaning pipeline:
//
//	Stage 1: strip non-content elements, then readability main-content pass
//	Stage 2: convert clean HTML → Markdown
//
// The converter is created once and reused across all calls (goroutine-safe).
type Cleaner struct {
	mdConverter *converter.Converter
}

// New initialises a Cleaner with a pre-configured Markdown converter.
func New() *Cleaner {
	return &Cleaner{mdConverter: newMarkdownConverter()}
}

// Markdown cleans rawHTML and converts it to Markdown. The returned title is
// best-effort (empty when readability could not identify one).
func (c *Cleaner) Markdown(rawHTML string, sourceURL string) (markdown, title string, err error) {
	stripped := StripNonContent(rawHTML)
	content, title := extractMainContent(stripped, sourceURL)
	markdown, err = toMarkdown(c.mdConverter, content, sourceURL)
	return markdown, title, err
}
