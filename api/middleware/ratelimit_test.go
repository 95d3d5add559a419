package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvest/config"
)

func rateLimitRouter(cfg config.RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(cfg))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimit_RejectsBeyondBurst(t *testing.T) {
	// A sustained rate too low to refill within the test window, so only
	// the burst token is available.
	r := rateLimitRouter(config.RateLimitConfig{
		RequestsPerSecond: 0.001,
		Burst:             1,
		EvictAfter:        time.Hour,
		EvictInterval:     time.Minute,
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", w.Code)
	}
	if !strings.Contains(w.Body.String(), "RATE_LIMITED") {
		t.Errorf("body %q lacks the error code", w.Body.String())
	}
}

func TestRateLimit_ZeroEvictionConfigFallsBackToDefaults(t *testing.T) {
	// A zero-valued config (as built directly in tests) must not panic the
	// eviction ticker; the middleware substitutes its defaults.
	r := rateLimitRouter(config.RateLimitConfig{RequestsPerSecond: 10, Burst: 5})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with defaulted eviction parameters", w.Code)
	}
}
