package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/trendscout/models"
)

// SuccessMessage is returned with every saved snapshot.
const SuccessMessage = "Data saved successfully"

// errorPrefix leads every failure message.
const errorPrefix = "Error during scraping: "

// Runner performs one full capture.
type Runner interface {
	Run(ctx context.Context) (*models.SnapshotRecord, error)
}

// Trends returns a handler for GET /scrape-trends and POST /api/v1/trends.
//
// Orchestration flow:
//  1. Detach from the client and bound the capture by timeout. A client
//     hanging up does not abort a half-finished login.
//  2. Runner.Run → launch, log in, read trends, look up IP, persist.
//  3. Map a TrendError to its status, or return the saved record.
func Trends(r Runner, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// ── 1. Bound the capture ────────────────────────────────────
		ctx := context.WithoutCancel(c.Request.Context())
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		// ── 2. Capture ──────────────────────────────────────────────
		rec, err := r.Run(ctx)
		if err != nil {
			respondError(c, err)
			return
		}

		// ── 3. Respond ──────────────────────────────────────────────
		slog.Info("trend capture served",
			"unique_id", rec.UniqueID,
			"id", rec.ID,
			"topics", len(rec.Topics),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		c.JSON(http.StatusOK, models.TrendsResponse{
			Message: SuccessMessage,
			Data:    rec,
		})
	}
}

// respondError maps a TrendError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	var trendErr *models.TrendError
	if !errors.As(err, &trendErr) {
		trendErr = models.NewTrendError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(trendErr), models.ErrorResponse{
		Code:  trendErr.Code,
		Error: errorPrefix + trendErr.Describe(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.TrendError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNoTrends, models.ErrCodeAuthFailed,
		models.ErrCodeNavigation, models.ErrCodeIPLookup:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited, models.ErrCodeBusy:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
