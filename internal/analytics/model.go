package analytics

import (
	"encoding/json"
	"time"
)

const EventPageView = "page_view"

// Event is the body of POST /analytics/event.
type Event struct {
	AnonymousID string         `json:"anonymousId"`
	EventType   string         `json:"eventType"`
	Path        string         `json:"path"`
	Referrer    string         `json:"referrer"`
	DeviceInfo  DeviceInfo     `json:"deviceInfo"`
	Metadata    map[string]any `json:"metadata"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Visit is what the caller knows about the navigation being tracked.
type Visit struct {
	Path       string
	Referrer   string
	UserAgent  string
	DoNotTrack bool
}

// Consent is the privacy state shown by the cookie banner.
type Consent struct {
	Choice     string `json:"choice,omitempty"`
	OptedOut   bool   `json:"optedOut"`
	ShowBanner bool   `json:"showBanner"`
}

const (
	ConsentAccepted = "accepted"
	ConsentDeclined = "declined"
)

type Overview struct {
	UniqueVisitors int `json:"uniqueVisitors"`
	TotalPageViews int `json:"totalPageViews"`
	TotalLogins    int `json:"totalLogins"`
	FailedLogins   int `json:"failedLogins"`
}

type DailyEngagement struct {
	Day      string `json:"_id"`
	Views    int    `json:"views"`
	Visitors int    `json:"visitors"`
}

type DeviceCount struct {
	Device string `json:"_id"`
	Count  int    `json:"count"`
}

// AdminStats is the dashboard payload. RecentLogins is passed through as-is.
type AdminStats struct {
	Overview        Overview          `json:"overview"`
	DailyEngagement []DailyEngagement `json:"dailyEngagement"`
	DeviceBreakdown []DeviceCount     `json:"deviceBreakdown"`
	RecentLogins    json.RawMessage   `json:"recentLogins,omitempty"`
}
