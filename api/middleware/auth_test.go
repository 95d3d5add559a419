package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func authRouter(keys []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(keys))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestAuth_HeaderStyles(t *testing.T) {
	r := authRouter([]string{"sekret"})

	cases := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"missing key", "", "", http.StatusUnauthorized},
		{"x-api-key header", "X-API-Key", "sekret", http.StatusOK},
		{"bearer header", "Authorization", "Bearer sekret", http.StatusOK},
		{"wrong key", "X-API-Key", "nope", http.StatusUnauthorized},
		{"bearer wrong key", "Authorization", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		if tc.header != "" {
			req.Header.Set(tc.header, tc.value)
		}
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, w.Code, tc.want)
		}
		if tc.want == http.StatusUnauthorized && !strings.Contains(w.Body.String(), "UNAUTHORIZED") {
			t.Errorf("%s: body %q lacks the error code", tc.name, w.Body.String())
		}
	}
}

func TestAuth_NoConfiguredKeysIsOpenAccess(t *testing.T) {
	r := authRouter(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want open access when no keys configured", w.Code)
	}
}
