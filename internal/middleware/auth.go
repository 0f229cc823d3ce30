package middleware

import (
	"net/http"
	"strings"

	"foozam/internal/auth"
	"foozam/internal/backend"
	"foozam/internal/logging"
	"foozam/internal/workspace"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the caller's session without rejecting anyone.
// An "Authorization: Bearer" header wins over the visitor's stored token.
// The token is forwarded to the backend through the request context.
func AuthMiddleware(decoder *auth.Decoder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := logging.From(ctx)

		var (
			token   string
			session *auth.Session
		)
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				s, err := decoder.Decode(parts[1])
				if err != nil {
					log.WithError(err).Debug("BEARER_TOKEN_IGNORED")
				} else {
					token, session = parts[1], s
				}
			}
		}

		if session == nil {
			t, s, err := workspace.From(c).Session.Token(ctx)
			if err != nil {
				log.WithError(err).Warn("SESSION_LOAD_FAILED")
			}
			token, session = t, s
		}

		if session != nil {
			c.Set("userID", session.UserID)
			c.Set("userEmail", session.Email)
			c.Set("userRole", session.Role)
			ctx = backend.WithToken(ctx, token)
			ctx = logging.With(ctx, log.WithField("userID", session.UserID))
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// RequireAuth rejects requests without a session.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("userID") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
			return
		}
		c.Next()
	}
}
