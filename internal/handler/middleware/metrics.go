package middleware

import (
	"time"

	"parking-booking/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records request count and latency per route template, so ids in
// the path do not explode label cardinality.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
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
