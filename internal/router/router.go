package router

import (
	"net/http"
	"time"

	"foozam/internal/analytics"
	"foozam/internal/auth"
	"foozam/internal/history"
	"foozam/internal/middleware"
	"foozam/internal/workspace"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const AdminRole = "admin"

type Deps struct {
	Registry       *workspace.Registry
	Decoder        *auth.Decoder
	Dishes         workspace.DishSource
	Admin          analytics.AdminSource
	Logger         logrus.FieldLogger
	AllowedOrigins []string
	PublicURL      string
	SecureCookies  bool
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "DNT"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check route
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	app := r.Group("")
	app.Use(
		middleware.RequestLogger(d.Logger),
		middleware.ErrorHandler(),
		middleware.Visitor(d.Registry, d.SecureCookies),
		middleware.AuthMiddleware(d.Decoder),
		middleware.PageViews("/admin", "/auth/login", "/auth/callback"),
	)

	// ───────────────────────── SCANS ─────────────────────────
	scans := workspace.NewHandler(d.Dishes)
	scanGroup := app.Group("/scans")
	{
		scanGroup.POST("", scans.Submit())
		scanGroup.POST("/retry", scans.Retry())
		scanGroup.POST("/candidates", scans.ChooseCandidate())
		scanGroup.POST("/dataset", scans.AddToDataset())
		scanGroup.GET("/current", scans.Current())
		scanGroup.DELETE("/current", scans.Cancel())
		scanGroup.PUT("/filters", scans.SetFilters())
		scanGroup.POST("/feedback", scans.Feedback())
	}
	app.GET("/dishes/:name", scans.Dish())

	// ───────────────────────── HISTORY ─────────────────────────
	hist := history.NewHandler(func(c *gin.Context) *history.Service {
		return workspace.From(c).History
	})
	histGroup := app.Group("/history")
	histGroup.Use(middleware.RequireAuth())
	{
		histGroup.GET("", hist.List())
		histGroup.GET("/stats", hist.Stats())
		histGroup.PATCH("/:id", hist.Favorite())
	}

	// ───────────────────────── AUTH ─────────────────────────
	authHandler := auth.NewHandler(func(c *gin.Context) *auth.Manager {
		return workspace.From(c).Session
	}, d.PublicURL)
	authGroup := app.Group("/auth")
	{
		authGroup.GET("/login", authHandler.Login())
		authGroup.GET("/callback", authHandler.Callback())
		authGroup.POST("/logout", authHandler.Logout())
		authGroup.GET("/me", authHandler.Me())
	}

	// ───────────────────────── PRIVACY & EVENTS ─────────────────────────
	events := analytics.NewHandler(func(c *gin.Context) *analytics.Tracker {
		return workspace.From(c).Tracker
	}, d.Admin)
	privacy := app.Group("/privacy")
	{
		privacy.GET("", events.Consent())
		privacy.POST("/consent", events.SetConsent())
		privacy.POST("/opt-out", events.OptOut())
		privacy.POST("/opt-in", events.OptIn())
	}
	app.POST("/events", events.Track())

	// ───────────────────────── ADMIN ─────────────────────────
	admin := app.Group("/admin")
	admin.Use(
		middleware.RequireAuth(),
		middleware.RequireRole(AdminRole),
	)
	{
		admin.GET("/analytics", events.AdminStats())
	}

	return r
}
