package history

import (
	"io"
	"net/http"

	"foozam/internal/apperr"
	"foozam/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Lookup returns the history container of the visitor behind c.
type Lookup func(c *gin.Context) *Service

type Handler struct {
	lookup Lookup
}

func NewHandler(lookup Lookup) *Handler {
	return &Handler{lookup: lookup}
}

func userID(c *gin.Context) string {
	return c.GetString("userID")
}

//
// --------------------------------------------------
// GET /history
// --------------------------------------------------
//

func (h *Handler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := userID(c)
		if uid == "" {
			c.Error(apperr.Unauthorized(ErrNoUser.Error()))
			return
		}

		entries, err := h.lookup(c).Fetch(c.Request.Context(), uid)
		if err != nil {
			c.Error(apperr.Wrap(err, http.StatusBadGateway, "could not load history"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}

//
// --------------------------------------------------
// PATCH /history/:id
// --------------------------------------------------
//

type favoriteRequest struct {
	IsFavorite *bool `json:"isFavorite"`
}

func (h *Handler) Favorite() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID(c) == "" {
			c.Error(apperr.Unauthorized(ErrNoUser.Error()))
			return
		}

		var req favoriteRequest
		// an empty body means toggle
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.Error(apperr.BadRequest("invalid request body"))
			return
		}

		svc := h.lookup(c)
		ctx := c.Request.Context()
		var (
			entry Entry
			err   error
		)
		if req.IsFavorite == nil {
			entry, err = svc.ToggleFavorite(ctx, c.Param("id"))
		} else {
			entry, err = svc.SetFavorite(ctx, c.Param("id"), *req.IsFavorite)
		}
		if errors.Is(err, ErrNotFound) {
			c.Error(apperr.New(http.StatusNotFound, err.Error()))
			return
		}
		if err != nil {
			// favorite failures never break the page; report the unchanged entry
			logging.From(ctx).WithError(err).WithField("historyId", c.Param("id")).Warn("FAVORITE_FAILED")
			c.JSON(http.StatusAccepted, gin.H{"updated": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": true, "entry": entry})
	}
}

//
// --------------------------------------------------
// GET /history/stats
// --------------------------------------------------
//

func (h *Handler) Stats() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := userID(c)
		if uid == "" {
			c.Error(apperr.Unauthorized(ErrNoUser.Error()))
			return
		}

		st, err := h.lookup(c).Stats(c.Request.Context(), uid)
		if err != nil {
			logging.From(c.Request.Context()).WithError(err).Warn("STATS_FAILED")
			c.JSON(http.StatusOK, gin.H{"stats": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": st})
	}
}
