package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/accesskeep/accesskeep/pkg/metrics"
)

// Metrics observes per-request latency, labelled by method, route and
// status. Unmatched routes fall back to the raw URL path so they still
// show up in the histogram.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		elapsed := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		metrics.APILatency.WithLabelValues(c.Request.Method, route, status).Observe(elapsed)
	}
}
