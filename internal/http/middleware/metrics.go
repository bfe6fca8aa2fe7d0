package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ties-together/marketplace-backend/internal/interface/http/response"
	"github.com/ties-together/marketplace-backend/internal/metrics"
)

// Metrics считает запросы и латентность по шаблону маршрута, а также коды отданных AppError.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

		if code := c.GetString(response.ContextErrorCodeKey); code != "" {
			m.ObserveAppError(code)
		}
	}
}
