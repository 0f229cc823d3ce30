package analytics

import (
	"context"
	"net/http"

	"foozam/internal/apperr"
	"foozam/internal/logging"

	"github.com/gin-gonic/gin"
)

// Lookup returns the tracker of the visitor behind c.
type Lookup func(c *gin.Context) *Tracker

type AdminSource interface {
	AdminStats(ctx context.Context) (*AdminStats, error)
}

type Handler struct {
	lookup Lookup
	admin  AdminSource
}

func NewHandler(lookup Lookup, admin AdminSource) *Handler {
	return &Handler{lookup: lookup, admin: admin}
}

// VisitFrom reads the navigation details from the request headers.
func VisitFrom(c *gin.Context) Visit {
	return Visit{
		Path:       c.Request.URL.Path,
		Referrer:   c.Request.Referer(),
		UserAgent:  c.Request.UserAgent(),
		DoNotTrack: c.GetHeader("DNT") == "1",
	}
}

//
// --------------------------------------------------
// GET /privacy
// --------------------------------------------------
//

func (h *Handler) Consent() gin.HandlerFunc {
	return func(c *gin.Context) {
		consent, err := h.lookup(c).Consent(c.Request.Context())
		if err != nil {
			c.Error(apperr.Wrap(err, http.StatusInternalServerError, "could not read privacy settings"))
			return
		}
		c.JSON(http.StatusOK, consent)
	}
}

//
// --------------------------------------------------
// POST /privacy/consent
// --------------------------------------------------
//

type consentRequest struct {
	Accepted *bool `json:"accepted"`
}

func (h *Handler) SetConsent() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req consentRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Accepted == nil {
			c.Error(apperr.BadRequest("accepted must be true or false"))
			return
		}

		t := h.lookup(c)
		if err := t.SetConsent(c.Request.Context(), *req.Accepted); err != nil {
			c.Error(apperr.Wrap(err, http.StatusInternalServerError, "could not save consent"))
			return
		}
		h.respondConsent(c, t)
	}
}

//
// --------------------------------------------------
// POST /privacy/opt-out, POST /privacy/opt-in
// --------------------------------------------------
//

func (h *Handler) OptOut() gin.HandlerFunc {
	return func(c *gin.Context) {
		t := h.lookup(c)
		if err := t.OptOut(c.Request.Context()); err != nil {
			c.Error(apperr.Wrap(err, http.StatusInternalServerError, "could not opt out"))
			return
		}
		h.respondConsent(c, t)
	}
}

func (h *Handler) OptIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		t := h.lookup(c)
		if err := t.OptIn(c.Request.Context()); err != nil {
			c.Error(apperr.Wrap(err, http.StatusInternalServerError, "could not opt in"))
			return
		}
		h.respondConsent(c, t)
	}
}

func (h *Handler) respondConsent(c *gin.Context, t *Tracker) {
	consent, err := t.Consent(c.Request.Context())
	if err != nil {
		c.Error(apperr.Wrap(err, http.StatusInternalServerError, "could not read privacy settings"))
		return
	}
	c.JSON(http.StatusOK, consent)
}

//
// --------------------------------------------------
// POST /events
// --------------------------------------------------
//

type eventRequest struct {
	EventType string         `json:"eventType" binding:"required"`
	Path      string         `json:"path"`
	Metadata  map[string]any `json:"metadata"`
}

// Track never fails the caller: analytics problems are logged and the
// response only says whether the event was queued.
func (h *Handler) Track() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req eventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.BadRequest("eventType is required"))
			return
		}

		v := VisitFrom(c)
		if req.Path != "" {
			v.Path = req.Path
		}
		queued, err := h.lookup(c).Track(c.Request.Context(), v, req.EventType, req.Metadata)
		if err != nil {
			logging.From(c.Request.Context()).WithError(err).Debug("ANALYTICS_TRACK_FAILED")
		}
		c.JSON(http.StatusAccepted, gin.H{"queued": queued})
	}
}

//
// --------------------------------------------------
// GET /admin/analytics
// --------------------------------------------------
//

func (h *Handler) AdminStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := h.admin.AdminStats(c.Request.Context())
		if err != nil {
			c.Error(apperr.Wrap(err, http.StatusBadGateway, "could not load analytics"))
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
