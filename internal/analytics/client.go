package analytics

import (
	"context"
	"encoding/json"
	"net/http"

	"foozam/internal/backend"

	"github.com/pkg/errors"
)

// Client is the backend analytics API.
type Client struct {
	backend *backend.Client
}

func NewClient(b *backend.Client) *Client {
	return &Client{backend: b}
}

func (c *Client) Send(ctx context.Context, e Event) error {
	err := c.backend.JSON(ctx, http.MethodPost, "/analytics/event", nil, e, nil)
	return errors.Wrap(err, "send analytics event")
}

// AdminStats fetches the dashboard numbers. ctx must carry an admin token.
func (c *Client) AdminStats(ctx context.Context) (*AdminStats, error) {
	var raw json.RawMessage
	if err := c.backend.JSON(ctx, http.MethodGet, "/analytics/admin/stats", nil, nil, &raw); err != nil {
		return nil, errors.Wrap(err, "fetch admin stats")
	}

	var env struct {
		Data *AdminStats `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Data != nil {
		return env.Data, nil
	}
	var s AdminStats
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrap(err, "decode admin stats")
	}
	return &s, nil
}
