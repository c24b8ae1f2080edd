package api

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/use-agent/trendscout/api/handler"
	"github.com/use-agent/trendscout/api/middleware"
	"github.com/use-agent/trendscout/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	Capture: Auth (if enabled) → RateLimit → InFlight
//
// Health stays outside auth so monitoring probes always work. ctx stops the
// rate limiter's background eviction.
func NewRouter(ctx context.Context, runner handler.Runner, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(cors.New(corsConfig(cfg.Server.CORSOrigins)))

	gate := middleware.NewInFlight(cfg.Server.MaxConcurrent)

	capture := []gin.HandlerFunc{}
	if cfg.Auth.Enabled {
		capture = append(capture, middleware.Auth(cfg.Auth.APIKeys))
	}
	capture = append(capture,
		middleware.RateLimit(ctx, cfg.RateLimit),
		gate.Middleware(),
		handler.Trends(runner, cfg.Server.RequestTimeout),
	)

	// Legacy path kept for existing front-ends.
	r.GET("/scrape-trends", capture...)

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(gate, startTime))
	v1.POST("/trends", capture...)

	return r
}

func corsConfig(origins []string) cors.Config {
	cc := cors.DefaultConfig()
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization", "X-API-Key")
	return cc
}
