// Package http assembles the gin engine and HTTP server of the compliance API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ComplianceSentinel/internal/interfaces/http/handlers"
	"github.com/turtacn/ComplianceSentinel/internal/interfaces/http/middleware"
)

// RouterConfig aggregates handler and middleware dependencies. Nil handlers
// are not mounted.
type RouterConfig struct {
	Mode string

	ComplianceHandler *handlers.ComplianceHandler
	ExportHandler     *handlers.ExportHandler
	HealthHandler     *handlers.HealthHandler

	Logging          middleware.LoggingConfig
	Logger           logging.Logger
	Metrics          *prometheus.ComplianceMetrics
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter builds the route tree: health checks and /metrics at the root, the
// organization API under /api/v1.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.MetricsCollector != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	if cfg.ComplianceHandler != nil {
		cfg.ComplianceHandler.RegisterRoutes(api)
	}
	if cfg.ExportHandler != nil {
		cfg.ExportHandler.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{"code": "COMMON_005", "message": "route not found"}})
	})
	return r
}

//Personal.AI order the ending
