package cli

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"foozam/internal/analytics"
	"foozam/internal/auth"
	"foozam/internal/backend"
	"foozam/internal/config"
	"foozam/internal/kv"
	"foozam/internal/logging"

	"github.com/pkg/errors"
)

// localClient is the kv client id of the terminal user.
const localClient = "local"

// App is the state shared by one CLI invocation.
type App struct {
	cfg        *config.Config
	db         *kv.SQLite
	store      kv.Store
	api        *backend.Client
	session    *auth.Manager
	tracker    *analytics.Tracker
	dispatcher *analytics.Dispatcher
}

func defaultStatePath() string {
	if p := os.Getenv("FOOZAM_STATE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "foozam.db"
	}
	return filepath.Join(home, ".foozam", "state.db")
}

func openApp(opts *RootOptions) (*App, error) {
	cfg, err := config.LoadLocal()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "configuration", err)
	}
	if opts.Backend != "" {
		cfg.BackendURL = strings.TrimRight(opts.Backend, "/")
	}
	if cfg.BackendURL == "" {
		return nil, NewExitError(ExitCommandError, "BACKEND_URL is not set (use --backend)")
	}
	if opts.Verbose {
		logging.Setup(os.Stderr, "debug")
	} else {
		logging.Setup(os.Stderr, cfg.LogLevel)
	}

	if err := os.MkdirAll(filepath.Dir(opts.State), 0o700); err != nil {
		return nil, WrapExitError(ExitCommandError, "create state directory", err)
	}
	db, err := kv.OpenSQLite(opts.State)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open state", err)
	}

	api := backend.New(cfg.BackendURL, cfg.RequestTimeout)
	store := db.Open(localClient)
	dispatcher := analytics.NewDispatcher(analytics.NewClient(api), cfg.AnalyticsQueueSize, cfg.RequestTimeout)
	go dispatcher.Run()

	return &App{
		cfg:        cfg,
		db:         db,
		store:      store,
		api:        api,
		session:    auth.NewManager(store, auth.NewDecoder(cfg.JWTSecret), cfg.IdPLoginURL),
		tracker:    analytics.NewTracker(store, dispatcher),
		dispatcher: dispatcher,
	}, nil
}

// authorized returns ctx carrying the stored token, and the session if any.
func (a *App) authorized(ctx context.Context) (context.Context, *auth.Session, error) {
	token, s, err := a.session.Token(ctx)
	if err != nil {
		return ctx, nil, err
	}
	if s == nil {
		return ctx, nil, nil
	}
	ctx = logging.With(ctx, logging.From(ctx).WithField("userID", s.UserID))
	return backend.WithToken(ctx, token), s, nil
}

// requireSession is authorized for commands that need a signed-in user.
func (a *App) requireSession(ctx context.Context) (context.Context, *auth.Session, error) {
	ctx, s, err := a.authorized(ctx)
	if err != nil {
		return ctx, nil, err
	}
	if s == nil {
		return ctx, nil, NewExitError(ExitCommandError, "not signed in, run `foozam login`")
	}
	return ctx, s, nil
}

// pageView records the command as a navigation, subject to consent.
func (a *App) pageView(ctx context.Context, command string) {
	v := analytics.Visit{
		Path:       "/cli/" + command,
		UserAgent:  "foozam-cli (" + osName() + ")",
		DoNotTrack: os.Getenv("DO_NOT_TRACK") == "1",
	}
	if _, err := a.tracker.PageView(ctx, v); err != nil {
		logging.From(ctx).WithError(err).Debug("PAGE_VIEW_FAILED")
	}
}

func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := a.dispatcher.Stop(ctx); err != nil {
		logging.Base().WithError(err).Debug("analytics queue not drained")
	}
	return errors.Wrap(a.db.Close(), "close state")
}

func osName() string {
	switch runtime.GOOS {
	case "darwin":
		return "Macintosh; Mac OS X"
	case "windows":
		return "Windows"
	case "android":
		return "Android"
	}
	return "Linux"
}
