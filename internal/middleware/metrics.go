package middleware

import (
	"strconv"

	"f1-penca/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics counts requests by matched route template, not raw path, so ids in
// URLs do not explode label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Inc()
	}
}
