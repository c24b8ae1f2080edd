package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/trendscout/models"
)

// InFlight caps how many captures run at once. Each capture owns a whole
// Chrome process, so excess requests are rejected instead of queued.
type InFlight struct {
	slots chan struct{}
}

// NewInFlight returns a gate admitting at most max concurrent requests.
func NewInFlight(max int) *InFlight {
	if max < 1 {
		max = 1
	}
	return &InFlight{slots: make(chan struct{}, max)}
}

// Middleware rejects with 429 BUSY when every slot is taken.
func (g *InFlight) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		select {
		case g.slots <- struct{}{}:
		default:
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Code:  models.ErrCodeBusy,
				Error: "too many captures in progress, try again later",
			})
			return
		}
		defer func() { <-g.slots }()

		c.Next()
	}
}

// Active reports the number of requests holding a slot.
func (g *InFlight) Active() int { return len(g.slots) }

// Capacity reports the slot count.
func (g *InFlight) Capacity() int { return cap(g.slots) }
