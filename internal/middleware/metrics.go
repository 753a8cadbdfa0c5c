package middleware

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/pkg/metrics"
)

// Metrics records request counts and latency per route template
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		metrics.HTTPInFlight.Inc()
		defer metrics.HTTPInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), callerLabel(c)).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func callerLabel(c *gin.Context) string {
	if role := GetUserRole(c); role != "" {
		return string(role)
	}
	return "anonymous"
}

// RecordDBStats publishes connection pool statistics
func RecordDBStats(stats sql.DBStats) {
	metrics.ObserveDBPool(stats.OpenConnections, stats.InUse, stats.Idle, stats.WaitCount)
}
