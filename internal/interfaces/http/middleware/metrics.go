package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request count and latency by route template, so path
// parameters do not explode label cardinality. Unmatched routes are
// recorded as "unmatched".
func Metrics(m *prometheus.ComplianceMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

//Personal.AI order the ending
