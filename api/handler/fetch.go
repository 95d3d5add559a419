package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/harvest/cleaner"
	"github.com/use-agent/harvest/extract"
	"github.com/use-agent/harvest/models"
)

// Fetch returns a handler for POST /api/v1/fetch.
//
// The handler is deliberately thin: parse and validate the request, hand
// the URL to the orchestrator, map the result (or typed error) to JSON.
func Fetch(o *extract.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.FetchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.FetchResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		opts := models.FetchOptions{
			Raw:       req.Raw,
			Timeout:   time.Duration(req.TimeoutMs) * time.Millisecond,
			UserAgent: req.UserAgent,
		}

		result, err := o.Fetch(c.Request.Context(), req.URL, opts)
		if err != nil {
			respondError(c, err, start)
			return
		}

		content := result.Content
		if req.Raw {
			content = result.RawPayload()
		}

		c.JSON(http.StatusOK, models.FetchResponse{
			Success: true,
			Content: content,
			Method:  result.Method,
			Score:   result.Score,
			Tokens:  models.TokenInfo{Estimate: cleaner.EstimateTokens(content)},
			Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
		})
	}
}

// respondError maps an ExtractError to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, err error, start time.Time) {
	var ee *models.ExtractError
	if !errors.As(err, &ee) {
		ee = models.NewExtractError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(ee), models.FetchResponse{
		Success: false,
		Error:   ee.ToDetail(),
		Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ExtractError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeAllFailed, models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
