// Package analytics emits anonymous usage events, gated on the client's
// privacy choices.
package analytics

import (
	"context"
	"time"

	"foozam/internal/kv"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Queue accepts events for background delivery.
type Queue interface {
	Enqueue(e Event) bool
}

// Tracker is one client's analytics state. Consent is read from the store
// before every emission, so a change takes effect on the next event.
type Tracker struct {
	store kv.Store
	queue Queue
	now   func() time.Time
}

func NewTracker(store kv.Store, queue Queue) *Tracker {
	return &Tracker{store: store, queue: queue, now: time.Now}
}

// AnonymousID returns the client's id, generating and persisting it once.
func (t *Tracker) AnonymousID(ctx context.Context) (string, error) {
	id, ok, err := t.store.Get(ctx, kv.KeyAnonymousID)
	if err != nil {
		return "", errors.Wrap(err, "read anonymous id")
	}
	if ok && id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := t.store.Set(ctx, kv.KeyAnonymousID, id); err != nil {
		return "", errors.Wrap(err, "store anonymous id")
	}
	return id, nil
}

// Allowed reports whether an event may be emitted right now.
func (t *Tracker) Allowed(ctx context.Context, doNotTrack bool) (bool, error) {
	if doNotTrack {
		return false, nil
	}
	c, err := t.Consent(ctx)
	if err != nil {
		return false, err
	}
	return !c.OptedOut && c.Choice != ConsentDeclined, nil
}

// Track queues an event if consent allows it. It reports whether the event was queued.
func (t *Tracker) Track(ctx context.Context, v Visit, eventType string, metadata map[string]any) (bool, error) {
	ok, err := t.Allowed(ctx, v.DoNotTrack)
	if err != nil || !ok {
		return false, err
	}
	id, err := t.AnonymousID(ctx)
	if err != nil {
		return false, err
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	return t.queue.Enqueue(Event{
		AnonymousID: id,
		EventType:   eventType,
		Path:        v.Path,
		Referrer:    v.Referrer,
		DeviceInfo:  ParseUserAgent(v.UserAgent),
		Metadata:    metadata,
		Timestamp:   t.now().UTC(),
	}), nil
}

func (t *Tracker) PageView(ctx context.Context, v Visit) (bool, error) {
	return t.Track(ctx, v, EventPageView, nil)
}

func (t *Tracker) OptOut(ctx context.Context) error {
	return errors.Wrap(t.store.Set(ctx, kv.KeyAnalyticsOptOut, "true"), "store opt-out")
}

func (t *Tracker) OptIn(ctx context.Context) error {
	return errors.Wrap(t.store.Delete(ctx, kv.KeyAnalyticsOptOut), "clear opt-out")
}

// SetConsent records the cookie banner choice. Accepting also opts in;
// declining also opts out.
func (t *Tracker) SetConsent(ctx context.Context, accepted bool) error {
	choice := ConsentDeclined
	if accepted {
		choice = ConsentAccepted
	}
	if err := t.store.Set(ctx, kv.KeyCookieConsent, choice); err != nil {
		return errors.Wrap(err, "store consent")
	}
	if accepted {
		return t.OptIn(ctx)
	}
	return t.OptOut(ctx)
}

func (t *Tracker) Consent(ctx context.Context) (Consent, error) {
	optOut, _, err := t.store.Get(ctx, kv.KeyAnalyticsOptOut)
	if err != nil {
		return Consent{}, errors.Wrap(err, "read opt-out")
	}
	choice, ok, err := t.store.Get(ctx, kv.KeyCookieConsent)
	if err != nil {
		return Consent{}, errors.Wrap(err, "read consent")
	}
	return Consent{
		Choice:     choice,
		OptedOut:   optOut == "true",
		ShowBanner: !ok || choice == "",
	}, nil
}
