package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"foozam/internal/backend"
	"foozam/internal/kv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct {
	events []Event
}

func (q *recordingQueue) Enqueue(e Event) bool {
	q.events = append(q.events, e)
	return true
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
	block  chan struct{}
}

func (s *recordingSink) Send(_ context.Context, e Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

const (
	chromeMac     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	edgeWindows   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.2478.51"
	safariIPhone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"
	chromeAndroid = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36"
	firefoxLinux  = "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0"
	safariIPad    = "Mozilla/5.0 (iPad; CPU OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"
)

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		ua   string
		want DeviceInfo
	}{
		{chromeMac, DeviceInfo{"Chrome", "MacOS", "desktop"}},
		{edgeWindows, DeviceInfo{"Edge", "Windows", "desktop"}},
		{safariIPhone, DeviceInfo{"Safari", "iOS", "mobile"}},
		{chromeAndroid, DeviceInfo{"Chrome", "Android", "mobile"}},
		{firefoxLinux, DeviceInfo{"Firefox", "Linux", "desktop"}},
		{safariIPad, DeviceInfo{"Safari", "iOS", "tablet"}},
		{"", DeviceInfo{"Unknown", "Unknown", "Unknown"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseUserAgent(tt.ua), tt.ua)
	}
}

func TestTracker_AnonymousIDIsStable(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	tr := NewTracker(store, &recordingQueue{})

	id1, err := tr.AnonymousID(ctx)
	require.NoError(t, err)
	id2, err := NewTracker(store, &recordingQueue{}).AnonymousID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 36)
}

func TestTracker_PageView(t *testing.T) {
	ctx := context.Background()
	q := &recordingQueue{}
	tr := NewTracker(kv.NewMemory(), q)
	tr.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }

	queued, err := tr.PageView(ctx, Visit{Path: "/history", Referrer: "https://foozam.app/", UserAgent: chromeMac})
	require.NoError(t, err)
	assert.True(t, queued)

	require.Len(t, q.events, 1)
	e := q.events[0]
	assert.Equal(t, EventPageView, e.EventType)
	assert.Equal(t, "/history", e.Path)
	assert.Equal(t, "https://foozam.app/", e.Referrer)
	assert.Equal(t, "Chrome", e.DeviceInfo.Browser)
	assert.NotEmpty(t, e.AnonymousID)
	assert.Equal(t, map[string]any{}, e.Metadata)
}

func TestTracker_ConsentGating(t *testing.T) {
	ctx := context.Background()

	t.Run("do not track", func(t *testing.T) {
		q := &recordingQueue{}
		tr := NewTracker(kv.NewMemory(), q)
		queued, err := tr.PageView(ctx, Visit{Path: "/", DoNotTrack: true})
		require.NoError(t, err)
		assert.False(t, queued)
		assert.Empty(t, q.events)
	})

	t.Run("opt out then in", func(t *testing.T) {
		q := &recordingQueue{}
		tr := NewTracker(kv.NewMemory(), q)
		require.NoError(t, tr.OptOut(ctx))
		tr.PageView(ctx, Visit{Path: "/"})
		assert.Empty(t, q.events)

		require.NoError(t, tr.OptIn(ctx))
		tr.PageView(ctx, Visit{Path: "/"})
		assert.Len(t, q.events, 1)
	})

	t.Run("declined banner", func(t *testing.T) {
		q := &recordingQueue{}
		store := kv.NewMemory()
		tr := NewTracker(store, q)
		require.NoError(t, store.Set(ctx, kv.KeyCookieConsent, ConsentDeclined))
		tr.PageView(ctx, Visit{Path: "/"})
		assert.Empty(t, q.events)
	})
}

func TestTracker_SetConsent(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(kv.NewMemory(), &recordingQueue{})

	c, err := tr.Consent(ctx)
	require.NoError(t, err)
	assert.True(t, c.ShowBanner)

	require.NoError(t, tr.SetConsent(ctx, false))
	c, err = tr.Consent(ctx)
	require.NoError(t, err)
	assert.Equal(t, Consent{Choice: ConsentDeclined, OptedOut: true}, c)

	require.NoError(t, tr.SetConsent(ctx, true))
	c, err = tr.Consent(ctx)
	require.NoError(t, err)
	assert.Equal(t, Consent{Choice: ConsentAccepted}, c)
}

func TestDispatcher_DeliversAndStops(t *testing.T) {
	sink := &recordingSink{err: errors.New("backend down")}
	d := NewDispatcher(sink, 4, time.Second)
	go d.Run()

	assert.True(t, d.Enqueue(Event{EventType: "a"}))
	assert.True(t, d.Enqueue(Event{EventType: "b"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))
	assert.Equal(t, 2, sink.count())

	assert.False(t, d.Enqueue(Event{EventType: "late"}))
	require.NoError(t, d.Stop(ctx))
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(sink, 1, time.Second)

	// no worker yet, so the second event has nowhere to go
	assert.True(t, d.Enqueue(Event{EventType: "a"}))
	assert.False(t, d.Enqueue(Event{EventType: "b"}))

	go d.Run()
	close(sink.block)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))
	assert.Equal(t, 1, sink.count())
}

func TestClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/analytics/event":
			var e Event
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&e))
			assert.Equal(t, "page_view", e.EventType)
			w.WriteHeader(http.StatusCreated)
		case "/analytics/admin/stats":
			assert.Equal(t, "Bearer admin-token", r.Header.Get("Authorization"))
			w.Write([]byte(`{"overview":{"uniqueVisitors":12,"totalPageViews":40},"deviceBreakdown":[{"_id":"mobile","count":7}]}`))
		}
	}))
	defer srv.Close()

	c := NewClient(backend.New(srv.URL, time.Second))
	require.NoError(t, c.Send(context.Background(), Event{EventType: "page_view"}))

	stats, err := c.AdminStats(backend.WithToken(context.Background(), "admin-token"))
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Overview.UniqueVisitors)
	assert.Equal(t, []DeviceCount{{Device: "mobile", Count: 7}}, stats.DeviceBreakdown)
}

func TestHandler_TrackHonoursDNT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	q := &recordingQueue{}
	tr := NewTracker(kv.NewMemory(), q)
	h := NewHandler(func(*gin.Context) *Tracker { return tr }, nil)

	r := gin.New()
	r.POST("/events", h.Track())

	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"eventType":"share","metadata":{"dish":"Suya"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("DNT", "1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"queued":false}`, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"eventType":"share","path":"/result"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"queued":true}`, w.Body.String())
	require.Len(t, q.events, 1)
	assert.Equal(t, "/result", q.events[0].Path)
}

func TestHandler_Consent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tr := NewTracker(kv.NewMemory(), &recordingQueue{})
	h := NewHandler(func(*gin.Context) *Tracker { return tr }, nil)

	r := gin.New()
	r.POST("/privacy/consent", h.SetConsent())

	req := httptest.NewRequest(http.MethodPost, "/privacy/consent", strings.NewReader(`{"accepted":false}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"choice":"declined","optedOut":true,"showBanner":false}`, w.Body.String())
}
