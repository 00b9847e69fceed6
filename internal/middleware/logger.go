package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/varpulse/internal/logger"
)

// RequestLogger is a Gin middleware that logs method, route, status code,
// request latency, and request ID (if available).
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.RequestID(), middleware.RequestLogger())
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		rid, _ := c.Get(RequestIDKey)

		evt := logger.L().Info()
		if status >= 500 {
			evt = logger.L().Error()
		}
		evt.
			Str("request_id", toString(rid)).
			Str("method", method).
			Str("path", path).
			Str("route", c.FullPath()).
			Int("status", status).
			Int64("latency_ms", latency.Milliseconds()).
			Str("client_ip", c.ClientIP()).
			Int("errors", len(c.Errors)).
			Msg("http_request")
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
