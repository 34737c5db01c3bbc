package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/manan0901/Vibecoder-sub000/internal/platform/metrics"
)

// MetricsMiddleware records request latency per matched route.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
