package middleware

import (
	"strconv"
	"time"

	"cups_webapp/internal/logger"

	"github.com/gin-gonic/gin"
)

// RequestLog logs each request and counts it by route and status
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(status/100)+"xx").Inc()

		logger.Debug("http request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}
