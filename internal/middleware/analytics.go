package middleware

import (
	"net/http"
	"strings"

	"foozam/internal/analytics"
	"foozam/internal/logging"
	"foozam/internal/workspace"

	"github.com/gin-gonic/gin"
)

// PageViews emits a page_view for every successful GET outside skip.
func PageViews(skip ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet || c.Writer.Status() >= 400 || len(c.Errors) > 0 {
			return
		}
		path := c.Request.URL.Path
		for _, prefix := range skip {
			if strings.HasPrefix(path, prefix) {
				return
			}
		}

		w, ok := c.Get(workspace.ContextKey)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		if _, err := w.(*workspace.Workspace).Tracker.PageView(ctx, analytics.VisitFrom(c)); err != nil {
			logging.From(ctx).WithError(err).Debug("PAGE_VIEW_FAILED")
		}
	}
}
