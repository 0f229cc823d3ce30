// Package auth holds the session lifecycle: the identity provider hands
// back a token, the token is stored per client and decoded on load.
package auth

import (
	"context"
	"net/url"

	"foozam/internal/kv"
	"foozam/internal/logging"

	"github.com/pkg/errors"
)

// Manager owns the stored token of one client.
type Manager struct {
	store    kv.Store
	decoder  *Decoder
	loginURL string
}

func NewManager(store kv.Store, decoder *Decoder, loginURL string) *Manager {
	return &Manager{store: store, decoder: decoder, loginURL: loginURL}
}

// Load returns the current session, or nil when signed out. A stored token
// that no longer decodes or has expired is removed, exactly like Logout.
func (m *Manager) Load(ctx context.Context) (*Session, error) {
	token, ok, err := m.store.Get(ctx, kv.KeyToken)
	if err != nil {
		return nil, errors.Wrap(err, "read token")
	}
	if !ok || token == "" {
		return nil, nil
	}

	s, err := m.decoder.Decode(token)
	if err != nil {
		logging.From(ctx).WithError(err).Info("SESSION_DISCARDED")
		return nil, m.Logout(ctx)
	}
	return s, nil
}

// Token returns the stored token if it still yields a session.
func (m *Manager) Token(ctx context.Context) (string, *Session, error) {
	s, err := m.Load(ctx)
	if err != nil || s == nil {
		return "", nil, err
	}
	token, _, err := m.store.Get(ctx, kv.KeyToken)
	return token, s, err
}

// Callback stores the token returned by the identity provider. Tokens that
// do not decode, or are already expired, are rejected and nothing is kept.
func (m *Manager) Callback(ctx context.Context, token string) (*Session, error) {
	s, err := m.decoder.Decode(token)
	if err != nil {
		return nil, err
	}
	if err := m.store.Set(ctx, kv.KeyToken, token); err != nil {
		return nil, errors.Wrap(err, "store token")
	}
	logging.From(ctx).WithField("userID", s.UserID).Info("SESSION_STARTED")
	return s, nil
}

// Logout deletes the stored token. It never fails on a missing token.
func (m *Manager) Logout(ctx context.Context) error {
	return errors.Wrap(m.store.Delete(ctx, kv.KeyToken), "delete token")
}

// LoginURL is the identity provider redirect, with an optional return URL.
func (m *Manager) LoginURL(redirect string) string {
	return BuildLoginURL(m.loginURL, redirect)
}

func BuildLoginURL(base, redirect string) string {
	if redirect == "" {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("redirect_uri", redirect)
	u.RawQuery = q.Encode()
	return u.String()
}
