package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"foozam/internal/backend"
	"foozam/internal/places"

	"github.com/pkg/errors"
)

type Encoding string

const (
	EncodingMultipart Encoding = "multipart"
	EncodingJSON      Encoding = "json"
)

// Submission is one photo plus the optional context sent with it.
type Submission struct {
	Image    Image
	Location *places.Location
	UserID   string
}

type Client struct {
	backend  *backend.Client
	encoding Encoding
}

func NewClient(b *backend.Client, encoding Encoding) *Client {
	if encoding != EncodingJSON {
		encoding = EncodingMultipart
	}
	return &Client{backend: b, encoding: encoding}
}

// Recognize never returns an error: failures come back as *Failed.
func (c *Client) Recognize(ctx context.Context, sub Submission) Outcome {
	var (
		resp Response
		err  error
	)
	if c.encoding == EncodingJSON {
		err = c.recognizeJSON(ctx, sub, &resp)
	} else {
		err = c.recognizeMultipart(ctx, sub, &resp)
	}
	if err != nil {
		var be *backend.Error
		if errors.As(err, &be) && be.Status < http.StatusInternalServerError {
			// 4xx bodies may still carry a low-confidence marker with candidates
			var body Response
			if json.Unmarshal(be.Body, &body) == nil {
				if amb, ok := Classify(&body).(*Ambiguous); ok && len(amb.Candidates) > 0 {
					return amb
				}
			}
		}
		return FailedFromError(err)
	}
	return Classify(&resp)
}

func (c *Client) recognizeMultipart(ctx context.Context, sub Submission, out *Response) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, sub.Image.Name))
	h.Set("Content-Type", sub.Image.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return errors.Wrap(err, "create image part")
	}
	if _, err := part.Write(sub.Image.Data); err != nil {
		return errors.Wrap(err, "write image part")
	}

	if loc := sub.Location; loc != nil {
		_ = w.WriteField("latitude", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
		_ = w.WriteField("longitude", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
		if loc.City != "" {
			_ = w.WriteField("city", loc.City)
		}
	}
	if sub.UserID != "" {
		_ = w.WriteField("userId", sub.UserID)
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "close multipart body")
	}

	return c.backend.Do(ctx, backend.Request{
		Method:      http.MethodPost,
		Path:        "/food/recognize",
		Body:        &body,
		ContentType: w.FormDataContentType(),
	}, out)
}

type legacyFile struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URI  string `json:"uri"`
}

type legacyRequest struct {
	File      legacyFile `json:"file"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	City      string     `json:"city,omitempty"`
	UserID    string     `json:"userId,omitempty"`
}

func (c *Client) recognizeJSON(ctx context.Context, sub Submission, out *Response) error {
	req := legacyRequest{
		File: legacyFile{
			Name: sub.Image.Name,
			Type: sub.Image.ContentType,
			URI:  sub.Image.DataURL(),
		},
		UserID: sub.UserID,
	}
	if loc := sub.Location; loc != nil {
		req.Latitude, req.Longitude, req.City = &loc.Lat, &loc.Lon, loc.City
	}
	return c.backend.JSON(ctx, http.MethodPost, "/foods/identify", nil, req, out)
}

// DishDetail fetches a dish by name, used when the user picks a candidate.
func (c *Client) DishDetail(ctx context.Context, name, city string) (*Resolved, error) {
	if name == "" {
		return nil, errors.New("dish name is required")
	}
	q := url.Values{}
	if city != "" {
		q.Set("city", city)
	}

	var resp Response
	if err := c.backend.JSON(ctx, http.MethodGet, backend.PathEscape("/foods", name), q, nil, &resp); err != nil {
		return nil, errors.Wrapf(err, "dish detail %q", name)
	}

	r := resp.flatten()
	if r.Error != "" {
		return nil, errors.Errorf("dish detail %q: %s", name, r.Error)
	}
	res := r.resolved()
	if res.DishName == "" {
		res.DishName = name
	}
	return res, nil
}

// AddDish registers a predicted dish and its photo in the recognition dataset.
func (c *Client) AddDish(ctx context.Context, name, imageRef string) error {
	if name == "" {
		return errors.New("dish name is required")
	}
	body := map[string]string{"name": name, "imageUrl": imageRef}
	return errors.Wrapf(
		c.backend.JSON(ctx, http.MethodPost, "/foods", nil, body, nil),
		"add dish %q", name,
	)
}
