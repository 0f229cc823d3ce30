package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"foozam/internal/analytics"
	"foozam/internal/auth"
	"foozam/internal/backend"
	"foozam/internal/config"
	"foozam/internal/db"
	"foozam/internal/feedback"
	"foozam/internal/history"
	"foozam/internal/kv"
	"foozam/internal/logging"
	"foozam/internal/places"
	"foozam/internal/recognition"
	"foozam/internal/router"
	"foozam/internal/storage"
	"foozam/internal/workspace"

	"github.com/gin-gonic/gin"
)

func main() {

	// ───────────────────────── ENV ─────────────────────────
	cfg, err := config.Load()
	if err != nil {
		logging.Base().WithError(err).Fatal("config")
	}
	log := logging.Setup(os.Stderr, cfg.LogLevel)
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ───────────────────────── CLIENT STATE ─────────────────────────
	var store kv.Opener = kv.NewMemoryOpener()
	if cfg.DatabaseURL != "" {
		pool, err := db.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("postgres")
		}
		defer pool.Close()
		store = kv.NewPostgres(pool)
	} else {
		log.Warn("DATABASE_URL not set, client state is kept in memory")
	}

	// ───────────────────────── BACKEND CLIENTS ─────────────────────────
	api := backend.New(cfg.BackendURL, cfg.RequestTimeout)
	recognizer := recognition.NewClient(api, recognition.Encoding(cfg.RecognitionEncoding))
	finder := places.NewCache(places.NewClient(api), cfg.PlacesCacheTTL)
	events := analytics.NewClient(api)

	// ───────────────────────── STORAGE ─────────────────────────
	var uploader storage.Uploader
	if cfg.R2.Enabled() {
		r2Client, err := storage.NewR2Client(ctx, cfg.R2)
		if err != nil {
			log.WithError(err).Fatal("R2 init failed")
		}
		uploader = r2Client
	}

	// ───────────────────────── ANALYTICS WORKER ─────────────────────────
	dispatcher := analytics.NewDispatcher(events, cfg.AnalyticsQueueSize, cfg.RequestTimeout)
	go dispatcher.Run()

	// ───────────────────────── WORKSPACES ─────────────────────────
	decoder := auth.NewDecoder(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, session tokens are decoded without verification")
	}

	deps := workspace.Deps{
		Store:      store,
		Decoder:    decoder,
		LoginURL:   cfg.IdPLoginURL,
		Recognizer: recognizer,
		Places:     finder,
		Feedback:   feedback.NewClient(api),
		History:    history.NewClient(api),
		Uploader:   uploader,
		Events:     dispatcher,
		Timeout:    cfg.RequestTimeout,
	}
	registry := workspace.NewRegistry(deps, workspace.DefaultIdleTTL)

	// ───────────────────────── HTTP ─────────────────────────
	r := router.NewRouter(router.Deps{
		Registry:       registry,
		Decoder:        decoder,
		Dishes:         recognizer,
		Admin:          events,
		Logger:         log,
		AllowedOrigins: cfg.AllowedOrigins,
		PublicURL:      cfg.PublicURL,
		SecureCookies:  strings.HasPrefix(cfg.PublicURL, "https://"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ───────────────────────── START ─────────────────────────
	go func() {
		log.WithField("addr", srv.Addr).Info("API running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("analytics queue not drained")
	}
}
