package models

// FetchRequest is the JSON body of POST /api/v1/fetch.
type FetchRequest struct {
	// URL is the page to extract. Required.
	URL string `json:"url" binding:"required"`

	// Raw returns the underlying payload (original HTML, decoded file
	// content, screenshot reference) instead of normalized markdown.
	Raw bool `json:"raw,omitempty"`

	// TimeoutMs is the overall extraction budget in milliseconds.
	// Zero means the server default (30000).
	TimeoutMs int `json:"timeout_ms,omitempty"`

	// UserAgent overrides the default browser identity string.
	UserAgent string `json:"user_agent,omitempty"`
}
