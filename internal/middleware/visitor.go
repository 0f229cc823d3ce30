package middleware

import (
	"net/http"

	"foozam/internal/workspace"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const VisitorCookie = "foozam_visitor"

const visitorMaxAge = 365 * 24 * 60 * 60

// Visitor attaches the caller's workspace, issuing a visitor cookie on the first request.
func Visitor(reg *workspace.Registry, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(VisitorCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(VisitorCookie, id, visitorMaxAge, "/", "", secure, true)
		}
		c.Set(workspace.ContextKey, reg.Get(id))
		c.Next()
	}
}
