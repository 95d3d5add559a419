package models

import "time"

// Method identifies which extraction strategy produced a result.
type Method string

const (
	MethodHTTP     Method = "http"
	MethodHTTPAPI  Method = "http-api"
	MethodBrowser  Method = "browser"
	MethodOCR      Method = "ocr"
	MethodDocument Method = "document"
)

// Metadata keys for ExtractionResult.Metadata.
const (
	MetaRawPayload = "raw_payload" // string or []byte: original HTML, decoded bytes, screenshot
	MetaByteSize   = "byte_size"   // int: size of a downloaded document payload
	MetaFinalURL   = "final_url"   // string: URL after redirects
	MetaTitle      = "title"       // string: page title when available
)

// ExtractionResult is the value produced by one extraction attempt.
// It is created once inside its extractor, scored, and never mutated
// afterwards; the orchestrator owns collected results for the duration
// of a single fetch call and discards them when the winner is returned.
type ExtractionResult struct {
	// Content is the normalized text (markdown or plain text).
	Content string

	// Method tags the strategy that produced this result.
	Method Method

	// Score is the heuristic quality estimate (0..~100+, floored at 0).
	Score float64

	// Metadata carries the raw underlying payload and auxiliary values
	// needed to satisfy a raw-content request without re-fetching.
	Metadata map[string]any
}

// RawPayload returns the raw underlying payload as a string, falling back
// to Content when no raw payload was recorded.
func (r *ExtractionResult) RawPayload() string {
	if r.Metadata != nil {
		switch v := r.Metadata[MetaRawPayload].(type) {
		case string:
			return v
		case []byte:
			return string(v)
		}
	}
	return r.Content
}

// FetchOptions is the per-call configuration. Constructed fresh per call;
// no persisted state.
type FetchOptions struct {
	// Raw returns the underlying payload instead of normalized markdown.
	Raw bool

	// Timeout is the overall budget for the whole fetch call.
	Timeout time.Duration

	// UserAgent overrides the default browser identity string.
	UserAgent string
}
