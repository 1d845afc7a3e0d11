package middleware

import (
	"strconv"
	"time"

	"github.com/SergeiKhy/promo-links/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics пишет длительность запросов в разрезе шаблона маршрута
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
