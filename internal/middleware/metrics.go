package middleware

import (
	"time"

	"github.com/01moynul/cancelbuddy/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request count and latency labelled by route template.
func Metrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		collector.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
