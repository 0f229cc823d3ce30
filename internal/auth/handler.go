package auth

import (
	"net/http"
	"strings"

	"foozam/internal/apperr"
	"foozam/internal/logging"

	"github.com/gin-gonic/gin"
)

// Lookup returns the session manager of the visitor behind c.
type Lookup func(c *gin.Context) *Manager

type Handler struct {
	lookup    Lookup
	publicURL string
}

func NewHandler(lookup Lookup, publicURL string) *Handler {
	return &Handler{lookup: lookup, publicURL: strings.TrimRight(publicURL, "/")}
}

//
// --------------------------------------------------
// GET /auth/login
// --------------------------------------------------
//

func (h *Handler) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		target := h.lookup(c).LoginURL(h.publicURL + "/auth/callback")
		c.Redirect(http.StatusFound, target)
	}
}

//
// --------------------------------------------------
// GET /auth/callback?token=
// --------------------------------------------------
//

func (h *Handler) Callback() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.Redirect(http.StatusFound, "/")
			return
		}

		m := h.lookup(c)
		ctx := c.Request.Context()
		if _, err := m.Callback(ctx, token); err != nil {
			// a bad token means signed out, nothing is shown to the user
			logging.From(ctx).WithError(err).Info("CALLBACK_TOKEN_REJECTED")
			if err := m.Logout(ctx); err != nil {
				c.Error(apperr.Wrap(err, http.StatusInternalServerError, "could not reset session"))
				return
			}
		}
		c.Redirect(http.StatusFound, "/")
	}
}

//
// --------------------------------------------------
// POST /auth/logout
// --------------------------------------------------
//

func (h *Handler) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.lookup(c).Logout(c.Request.Context()); err != nil {
			c.Error(apperr.Wrap(err, http.StatusInternalServerError, "could not sign out"))
			return
		}
		c.Status(http.StatusNoContent)
	}
}

//
// --------------------------------------------------
// GET /auth/me
// --------------------------------------------------
//

func (h *Handler) Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := h.lookup(c).Load(c.Request.Context())
		if err != nil {
			c.Error(apperr.Wrap(err, http.StatusInternalServerError, "could not read session"))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"authenticated": s != nil,
			"user":          s,
		})
	}
}
