package middleware

import (
	"time"

	"foozam/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestLogger attaches a request-scoped logger to the request context and
// logs one line when the request completes.
func RequestLogger(base logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-Id", reqID)

		log := base.WithFields(logrus.Fields{
			"http.req.id":     reqID,
			"http.req.method": c.Request.Method,
			"http.req.path":   c.Request.URL.Path,
		})
		c.Request = c.Request.WithContext(logging.With(c.Request.Context(), log))

		c.Next()

		// handlers may have replaced the logger with a richer one
		entry := logging.From(c.Request.Context()).WithFields(logrus.Fields{
			"http.resp.status":  c.Writer.Status(),
			"http.resp.took_ms": time.Since(start).Milliseconds(),
		})
		if c.Writer.Status() >= 500 {
			entry.Error("request complete")
			return
		}
		entry.Debug("request complete")
	}
}
