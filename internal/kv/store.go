// Package kv holds the single-scalar client state: stored token, anonymous id
// and privacy choices. Values are unversioned strings.
package kv

import "context"

const (
	KeyToken           = "token"
	KeyAnonymousID     = "anonymous_id"
	KeyAnalyticsOptOut = "analytics_opt_out"
	KeyCookieConsent   = "cookie_consent"
)

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Opener returns the store for one client (a browser visitor, or the local CLI user).
type Opener interface {
	Open(clientID string) Store
}
