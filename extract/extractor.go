// Package extract implements the multi-strategy content extraction engine:
// independent extractors (HTTP, document, browser, OCR) behind one
// interface, and the orchestrator that sequences and races them.
package extract

import (
	"context"
	"time"

	"github.com/use-agent/harvest/models"
)

// Extractor is the interface all extraction strategies implement.
type Extractor interface {
	// Name returns the strategy identifier (e.g. "http", "browser", "ocr").
	Name() string

	// Extract attempts to turn the URL into normalized text. A nil result
	// with a nil error never occurs: failure is always reported as an error
	// so the orchestrator can convert it to "no result" at its boundary.
	Extract(ctx context.Context, req *Request) (*models.ExtractionResult, error)
}

// Request carries everything an extractor needs for one attempt.
type Request struct {
	// URL is the (already normalized) target.
	URL string

	// UserAgent overrides the default browser identity string when set.
	UserAgent string

	// Timeout is the per-extractor budget for this attempt.
	Timeout time.Duration
}
