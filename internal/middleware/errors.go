package middleware

import (
	"foozam/internal/apperr"
	"foozam/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := apperr.StatusOf(err)

		message := "Internal Server Error"
		var ae *apperr.Error
		if errors.As(err, &ae) {
			message = ae.Message
		}

		entry := logging.From(c.Request.Context()).WithError(err)
		if status >= 500 {
			entry.Error("request failed")
		} else {
			entry.Info("request rejected")
		}
		c.JSON(status, gin.H{"error": message})
	}
}
