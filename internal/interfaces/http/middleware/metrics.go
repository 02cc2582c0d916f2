package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sagaline/ecommerce-backend/internal/pkg/metrics"
)

// Metrics records request counts and latencies per route template
func Metrics(sink metrics.Sink) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		sink.Inc(metrics.HTTPRequests, metrics.Tags{
			"method": c.Request.Method,
			"path":   path,
			"status": strconv.Itoa(c.Writer.Status()),
		})
		sink.Observe(metrics.HTTPRequestDuration, time.Since(start).Seconds(), metrics.Tags{
			"method": c.Request.Method,
			"path":   path,
		})
	}
}
