package models

// FetchResponse is the JSON body returned by POST /api/v1/fetch.
type FetchResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`

	// Method is the extraction strategy that won the race.
	Method Method `json:"method,omitempty"`

	// Score is the winner's content-quality score.
	Score float64 `json:"score,omitempty"`

	Tokens TokenInfo  `json:"tokens"`
	Timing TimingInfo `json:"timing"`

	Error *ErrorDetail `json:"error,omitempty"`
}

// TokenInfo estimates the LLM token footprint of the returned content.
type TokenInfo struct {
	Estimate int `json:"estimate"`
}

// TimingInfo records wall-clock milliseconds spent per phase.
type TimingInfo struct {
	TotalMs int64 `json:"total_ms"`
}

// HealthResponse is the JSON body returned by GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
