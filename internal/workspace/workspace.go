// Package workspace holds the per-visitor state of the web backend: one
// recognition machine, feedback form, history copy, session and tracker per
// visitor cookie.
package workspace

import (
	"sync"
	"time"

	"foozam/internal/analytics"
	"foozam/internal/auth"
	"foozam/internal/feedback"
	"foozam/internal/history"
	"foozam/internal/kv"
	"foozam/internal/places"
	"foozam/internal/recognition"
	"foozam/internal/scan"
	"foozam/internal/storage"
)

// Deps are shared by every workspace.
type Deps struct {
	Store      kv.Opener
	Decoder    *auth.Decoder
	LoginURL   string
	Recognizer scan.Recognizer
	Places     places.Finder
	Uploader   storage.Uploader
	Feedback   feedback.Sender
	History    history.Source
	Events     analytics.Queue
	Timeout    time.Duration
}

type Workspace struct {
	ID      string
	Session *auth.Manager
	Tracker *analytics.Tracker
	Scan    *scan.Machine
	History *history.Service

	sender feedback.Sender

	mu       sync.Mutex
	form     *feedback.Form
	lastSeen time.Time
}

func newWorkspace(id string, d Deps, now time.Time) *Workspace {
	store := d.Store.Open(id)

	opts := []scan.Option{scan.WithTimeout(d.Timeout)}
	if d.Places != nil {
		opts = append(opts, scan.WithPlaces(d.Places))
	}
	if d.Uploader != nil {
		opts = append(opts, scan.WithUploader(d.Uploader))
	}

	return &Workspace{
		ID:       id,
		Session:  auth.NewManager(store, d.Decoder, d.LoginURL),
		Tracker:  analytics.NewTracker(store, d.Events),
		Scan:     scan.New(d.Recognizer, opts...),
		History:  history.NewService(d.History),
		sender:   d.Feedback,
		lastSeen: now,
	}
}

// Feedback returns the form bound to the current resolved outcome, or nil.
func (w *Workspace) Feedback() *feedback.Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// Resolved binds a fresh feedback form to res and records it in the local history.
func (w *Workspace) Resolved(res *recognition.Resolved, signedIn bool) {
	w.mu.Lock()
	w.form = feedback.NewForm(w.sender, res.RecognitionID, res.DishName)
	w.mu.Unlock()

	if signedIn {
		w.History.Record(res)
	}
}

// Unbind drops the feedback form when a new submission starts.
func (w *Workspace) Unbind() {
	w.mu.Lock()
	w.form = nil
	w.mu.Unlock()
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return now.Sub(w.lastSeen)
}
