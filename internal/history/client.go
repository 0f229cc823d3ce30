package history

import (
	"context"
	"encoding/json"
	"net/http"

	"foozam/internal/backend"

	"github.com/pkg/errors"
)

// Source is the backend side of the history feature.
type Source interface {
	List(ctx context.Context, userID string) ([]Entry, error)
	SetFavorite(ctx context.Context, id string, favorite bool) error
	Stats(ctx context.Context, userID string) (*Stats, error)
}

type Client struct {
	backend *backend.Client
}

func NewClient(b *backend.Client) *Client {
	return &Client{backend: b}
}

func (c *Client) List(ctx context.Context, userID string) ([]Entry, error) {
	var raw json.RawMessage
	if err := c.backend.JSON(ctx, http.MethodGet, backend.PathEscape("/food/history", userID), nil, nil, &raw); err != nil {
		return nil, errors.Wrap(err, "fetch history")
	}

	// Either a bare array or {"data": [...]}.
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		var env struct {
			Data []Entry `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, errors.Wrap(err, "decode history")
		}
		entries = env.Data
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func (c *Client) SetFavorite(ctx context.Context, id string, favorite bool) error {
	body := map[string]bool{"isFavorite": favorite}
	err := c.backend.JSON(ctx, http.MethodPatch, backend.PathEscape("/food/history", id), nil, body, nil)
	return errors.Wrap(err, "update favorite")
}

func (c *Client) Stats(ctx context.Context, userID string) (*Stats, error) {
	var raw json.RawMessage
	if err := c.backend.JSON(ctx, http.MethodGet, backend.PathEscape("/food/stats/user", userID), nil, nil, &raw); err != nil {
		return nil, errors.Wrap(err, "fetch stats")
	}

	var env struct {
		Data *Stats `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Data != nil {
		return normalize(env.Data), nil
	}
	var s Stats
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrap(err, "decode stats")
	}
	return normalize(&s), nil
}

func normalize(s *Stats) *Stats {
	if s.TopFoods == nil {
		s.TopFoods = []TopFood{}
	}
	return s
}
