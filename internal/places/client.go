package places

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"foozam/internal/backend"

	"github.com/pkg/errors"
)

// Finder looks up places serving a dish around a location.
type Finder interface {
	Nearby(ctx context.Context, dish string, loc Location) ([]Place, error)
}

type Client struct {
	backend *backend.Client
}

func NewClient(b *backend.Client) *Client {
	return &Client{backend: b}
}

func (c *Client) Nearby(ctx context.Context, dish string, loc Location) ([]Place, error) {
	if dish == "" {
		return nil, errors.New("dish name is required")
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(loc.Lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(loc.Lon, 'f', 6, 64))
	if loc.City != "" {
		q.Set("city", loc.City)
	}

	var resp struct {
		Places []Place `json:"places"`
		Data   []Place `json:"data"`
	}
	if err := c.backend.JSON(ctx, http.MethodGet, backend.PathEscape("/food/places", dish), q, nil, &resp); err != nil {
		return nil, errors.Wrapf(err, "nearby places for %q", dish)
	}

	if resp.Places != nil {
		return resp.Places, nil
	}
	if resp.Data != nil {
		return resp.Data, nil
	}
	return []Place{}, nil
}
