package workspace

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"foozam/internal/apperr"
	"foozam/internal/backend"
	"foozam/internal/feedback"
	"foozam/internal/filter"
	"foozam/internal/logging"
	"foozam/internal/places"
	"foozam/internal/recognition"
	"foozam/internal/scan"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// ContextKey is where the visitor middleware stores the workspace.
const ContextKey = "workspace"

// From returns the workspace attached to c by the visitor middleware.
func From(c *gin.Context) *Workspace {
	w, _ := c.MustGet(ContextKey).(*Workspace)
	return w
}

// DishSource looks up dish metadata by name.
type DishSource interface {
	DishDetail(ctx context.Context, name, city string) (*recognition.Resolved, error)
}

type Handler struct {
	dishes DishSource
}

func NewHandler(dishes DishSource) *Handler {
	return &Handler{dishes: dishes}
}

type view struct {
	scan.Snapshot
	Feedback feedback.Status `json:"feedback,omitempty"`
}

func render(c *gin.Context, w *Workspace, snap scan.Snapshot) {
	v := view{Snapshot: snap}
	if f := w.Feedback(); f != nil {
		v.Feedback = f.Status()
	}
	c.JSON(http.StatusOK, v)
}

// scanError maps machine errors onto HTTP statuses.
func scanError(err error) error {
	var te *scan.TransitionError
	switch {
	case errors.As(err, &te):
		return apperr.Wrap(err, http.StatusConflict, te.Error())
	case errors.Is(err, scan.ErrSuperseded), errors.Is(err, scan.ErrBusy):
		return apperr.Wrap(err, http.StatusConflict, errors.Cause(err).Error())
	}
	return apperr.Wrap(err, http.StatusBadGateway, "request failed, please try again")
}

func (h *Handler) afterTransition(c *gin.Context, w *Workspace, snap scan.Snapshot, record bool) {
	if res, ok := snap.Resolved(); ok {
		w.Resolved(res, record && c.GetString("userID") != "")
	}
	render(c, w, snap)
}

//
// --------------------------------------------------
// POST /scans
// --------------------------------------------------
//

func (h *Handler) Submit() gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("image")
		if err != nil {
			c.Error(apperr.BadRequest("image file is required"))
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.Error(apperr.BadRequest("could not read image"))
			return
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, recognition.MaxImageBytes+1))
		if err != nil {
			c.Error(apperr.BadRequest("could not read image"))
			return
		}
		img, err := recognition.NewImage(fh.Filename, data)
		if err != nil {
			c.Error(apperr.BadRequest(errors.Cause(err).Error()))
			return
		}

		w := From(c)
		w.Unbind()
		snap, err := w.Scan.Submit(c.Request.Context(), recognition.Submission{
			Image:    img,
			Location: locationFrom(c),
			UserID:   c.GetString("userID"),
		})
		if err != nil {
			c.Error(scanError(err))
			return
		}
		h.afterTransition(c, w, snap, true)
	}
}

// locationFrom reads latitude/longitude/city form fields. Both coordinates
// are needed; otherwise the scan runs without a location.
func locationFrom(c *gin.Context) *places.Location {
	lat, errLat := strconv.ParseFloat(c.PostForm("latitude"), 64)
	lon, errLon := strconv.ParseFloat(c.PostForm("longitude"), 64)
	if errLat != nil || errLon != nil {
		return nil
	}
	return &places.Location{Lat: lat, Lon: lon, City: c.PostForm("city")}
}

//
// --------------------------------------------------
// POST /scans/retry
// --------------------------------------------------
//

func (h *Handler) Retry() gin.HandlerFunc {
	return func(c *gin.Context) {
		w := From(c)
		w.Unbind()
		snap, err := w.Scan.Retry(c.Request.Context())
		if err != nil {
			c.Error(scanError(err))
			return
		}
		h.afterTransition(c, w, snap, true)
	}
}

//
// --------------------------------------------------
// POST /scans/candidates
// --------------------------------------------------
//

type candidateRequest struct {
	DishName string `json:"dishName" binding:"required"`
	City     string `json:"city"`
}

func (h *Handler) ChooseCandidate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req candidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.BadRequest("dishName is required"))
			return
		}

		w := From(c)
		snap, err := w.Scan.ChooseCandidate(c.Request.Context(), req.DishName, req.City)
		if err != nil {
			c.Error(scanError(err))
			return
		}
		h.afterTransition(c, w, snap, false)
	}
}

//
// --------------------------------------------------
// POST /scans/dataset
// --------------------------------------------------
//

func (h *Handler) AddToDataset() gin.HandlerFunc {
	return func(c *gin.Context) {
		w := From(c)
		snap, err := w.Scan.ConfirmAddToDataset(c.Request.Context())
		if err != nil {
			c.Error(scanError(err))
			return
		}
		h.afterTransition(c, w, snap, false)
	}
}

//
// --------------------------------------------------
// GET /scans/current?diet=&city=
// --------------------------------------------------
//

func (h *Handler) Current() gin.HandlerFunc {
	return func(c *gin.Context) {
		w := From(c)
		diet, hasDiet := c.GetQuery("diet")
		city, hasCity := c.GetQuery("city")
		if !hasDiet && !hasCity {
			render(c, w, w.Scan.Snapshot())
			return
		}
		render(c, w, w.Scan.View(filter.Filters{Diet: diet, City: city}))
	}
}

//
// --------------------------------------------------
// DELETE /scans/current
// --------------------------------------------------
//

// Cancel abandons an in-flight submission. The pending POST /scans gets a
// conflict and the machine returns to idle; any other state is left as is.
func (h *Handler) Cancel() gin.HandlerFunc {
	return func(c *gin.Context) {
		w := From(c)
		w.Scan.Cancel()
		logging.From(c.Request.Context()).Info("SCAN_CANCELED")
		render(c, w, w.Scan.Snapshot())
	}
}

//
// --------------------------------------------------
// PUT /scans/filters
// --------------------------------------------------
//

func (h *Handler) SetFilters() gin.HandlerFunc {
	return func(c *gin.Context) {
		var f filter.Filters
		if err := c.ShouldBindJSON(&f); err != nil {
			c.Error(apperr.BadRequest("invalid filters"))
			return
		}
		w := From(c)
		render(c, w, w.Scan.SetFilters(f))
	}
}

//
// --------------------------------------------------
// POST /scans/feedback
// --------------------------------------------------
//

func (h *Handler) Feedback() gin.HandlerFunc {
	return func(c *gin.Context) {
		var fields feedback.Fields
		if err := c.ShouldBindJSON(&fields); err != nil {
			c.Error(apperr.BadRequest("invalid feedback"))
			return
		}

		form := From(c).Feedback()
		if form == nil {
			c.Error(apperr.Conflict("there is no recognized dish to correct"))
			return
		}
		if err := form.Update(fields); err != nil && !errors.Is(err, feedback.ErrSubmitted) {
			c.Error(apperr.Wrap(err, http.StatusConflict, err.Error()))
			return
		}

		status, err := form.Submit(c.Request.Context(), c.GetString("userID"))
		switch {
		case errors.Is(err, feedback.ErrNameRequired):
			c.Error(apperr.BadRequest(err.Error()))
		case errors.Is(err, feedback.ErrInFlight):
			c.Error(apperr.Wrap(err, http.StatusConflict, err.Error()))
		default:
			// other failures were logged by the form and are not shown
			c.JSON(http.StatusOK, gin.H{"status": status, "fields": form.Fields()})
		}
	}
}

//
// --------------------------------------------------
// GET /dishes/:name?city=
// --------------------------------------------------
//

func (h *Handler) Dish() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := h.dishes.DishDetail(c.Request.Context(), c.Param("name"), c.Query("city"))
		if backend.IsStatus(err, http.StatusNotFound) {
			c.Error(apperr.Wrap(err, http.StatusNotFound, "Dish not found"))
			return
		}
		if err != nil {
			logging.From(c.Request.Context()).WithError(err).Warn("DISH_LOOKUP_FAILED")
			c.Error(apperr.Wrap(err, http.StatusBadGateway, "could not load dish"))
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
