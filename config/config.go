package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Extract   ExtractConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the per-call Rod browser instances.
type BrowserConfig struct {
	// Headless controls whether browsers run headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// UserAgent is the default browser identity string, overridable per call.
	UserAgent string
}

// ExtractConfig controls the extraction orchestrator and its strategies.
type ExtractConfig struct {
	// DefaultTimeout is the overall per-call budget.
	DefaultTimeout time.Duration // default: 30s

	// HTTPTimeout bounds the fast-path HTTP fetch.
	HTTPTimeout time.Duration // default: 10s

	// DocumentTimeout bounds the document download + parse.
	DocumentTimeout time.Duration // default: 30s

	// BrowserCap is the ceiling on the browser extractor's share of the budget.
	BrowserCap time.Duration // default: 15s

	// OCRCap is the ceiling on the OCR extractor's share of the budget.
	OCRCap time.Duration // default: 10s

	// BrowserSettle is the post-navigation wait before capturing the DOM.
	BrowserSettle time.Duration // default: 2s

	// OCRSettle is the post-navigation wait before the screenshot. Longer
	// than BrowserSettle because screenshot fidelity is more sensitive to
	// incomplete rendering.
	OCRSettle time.Duration // default: 3s

	// FastPathThreshold is the score above which the HTTP fast path
	// short-circuits the parallel race.
	FastPathThreshold float64 // default: 50

	// GitHubToken is attached as a bearer header on GitHub contents-API
	// requests only.
	GitHubToken string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false (open access)

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key or client IP.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per identity.
	Burst int // default: 10

	// EvictAfter is how long an identity's limiter may sit unused before
	// it is dropped.
	EvictAfter time.Duration // default: 1h

	// EvictInterval is how often the eviction sweep runs.
	EvictInterval time.Duration // default: 5m
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("HARVEST_HOST", "0.0.0.0"),
			Port: envIntOr("HARVEST_PORT", 8080),
			Mode: envOr("HARVEST_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("HARVEST_HEADLESS", true),
			NoSandbox:  envBoolOr("HARVEST_NO_SANDBOX", true),
			BrowserBin: os.Getenv("HARVEST_BROWSER_BIN"),
			UserAgent:  envOr("HARVEST_USER_AGENT", ""),
		},
		Extract: ExtractConfig{
			DefaultTimeout:    envDurationOr("HARVEST_DEFAULT_TIMEOUT", 30*time.Second),
			HTTPTimeout:       envDurationOr("HARVEST_HTTP_TIMEOUT", 10*time.Second),
			DocumentTimeout:   envDurationOr("HARVEST_DOCUMENT_TIMEOUT", 30*time.Second),
			BrowserCap:        envDurationOr("HARVEST_BROWSER_CAP", 15*time.Second),
			OCRCap:            envDurationOr("HARVEST_OCR_CAP", 10*time.Second),
			BrowserSettle:     envDurationOr("HARVEST_BROWSER_SETTLE", 2*time.Second),
			OCRSettle:         envDurationOr("HARVEST_OCR_SETTLE", 3*time.Second),
			FastPathThreshold: envFloatOr("HARVEST_FAST_PATH_THRESHOLD", 50),
			GitHubToken:       os.Getenv("GITHUB_TOKEN"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("HARVEST_AUTH_ENABLED", false),
			APIKeys: envSliceOr("HARVEST_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("HARVEST_RATE_RPS", 5.0),
			Burst:             envIntOr("HARVEST_RATE_BURST", 10),
			EvictAfter:        envDurationOr("HARVEST_RATE_EVICT_AFTER", time.Hour),
			EvictInterval:     envDurationOr("HARVEST_RATE_EVICT_INTERVAL", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  envOr("HARVEST_LOG_LEVEL", "info"),
			Format: envOr("HARVEST_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
