package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/trendscout/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Load reports capture slot usage.
type Load interface {
	Active() int
	Capacity() int
}

// Health returns a handler for GET /api/v1/health.
//
// Degrades status once every capture slot is taken.
func Health(load Load, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		active, capacity := load.Active(), load.Capacity()

		status := "healthy"
		if capacity > 0 && active >= capacity {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   status,
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			InFlight: active,
			Capacity: capacity,
			Version:  Version,
		})
	}
}
