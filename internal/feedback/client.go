package feedback

import (
	"context"
	"net/http"

	"foozam/internal/backend"

	"github.com/pkg/errors"
)

type Sender interface {
	Send(ctx context.Context, c Correction) error
}

type Client struct {
	backend *backend.Client
}

func NewClient(b *backend.Client) *Client {
	return &Client{backend: b}
}

func (c *Client) Send(ctx context.Context, corr Correction) error {
	err := c.backend.JSON(ctx, http.MethodPost, "/food/feedback", nil, corr, nil)
	return errors.Wrap(err, "send feedback")
}
