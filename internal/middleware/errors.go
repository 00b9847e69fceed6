package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/varpulse/internal/domain/dto"
)

// ErrorHandler turns errors attached with c.Error into a JSON error response
// when the handler did not write one itself.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	last := c.Errors.Last()
	status := c.Writer.Status()
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	c.JSON(status, dto.NewErrorResponse(http.StatusText(status), last.Err))
}

// AbortWithError stops the chain and writes the standard error body.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
