package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/varpulse/internal/domain/dto"
	"github.com/guttosm/varpulse/internal/logger"
)

// RecoveryMiddleware recovers a panicking handler, logs the panic with the
// request id, route and stack, and answers 500 with the standard error body.
// The panic value is logged but not echoed to the client.
//
// Example:
//
//	router := gin.New()
//	router.Use(middleware.RequestID(), middleware.RecoveryMiddleware())
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if r == http.ErrAbortHandler {
				panic(r)
			}
			rid, _ := c.Get(RequestIDKey)
			logger.L().Error().
				Str("request_id", toString(rid)).
				Str("route", c.FullPath()).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse("internal server error", nil))
		}()

		c.Next()
	}
}
