// Package backend is the shared HTTP plumbing for the recognition, places,
// history, feedback and analytics endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrTransport marks failures where no HTTP response was received.
var ErrTransport = errors.New("backend unreachable")

const maxBody = 8 << 20

// Error is a non-2xx response.
type Error struct {
	Status  int
	Message string
	Body    []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is a backend Error with the given status.
func IsStatus(err error, status int) bool {
	var be *Error
	return errors.As(err, &be) && be.Status == status
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

type tokenKey struct{}

// WithToken makes every call made with ctx carry the bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}

type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        io.Reader
	ContentType string
}

// Do sends req and decodes a JSON response into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, req.Body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if tok := tokenFrom(ctx); tok != "" {
		httpReq.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrapf(ctxErr, "%s %s", req.Method, req.Path)
		}
		return errors.Wrapf(ErrTransport, "%s %s: %v", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return errors.Wrapf(ErrTransport, "read %s %s: %v", req.Method, req.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: messageOf(raw, resp.StatusCode), Body: raw}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "decode %s %s", req.Method, req.Path)
	}
	return nil
}

// JSON sends in as a JSON body (nil for none) and decodes into out.
func (c *Client) JSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	req := Request{Method: method, Path: path, Query: query}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		req.Body = bytes.NewReader(body)
		req.ContentType = "application/json"
	}
	return c.Do(ctx, req, out)
}

// PathEscape joins a path prefix and one user-provided segment.
func PathEscape(prefix, segment string) string {
	return prefix + "/" + url.PathEscape(segment)
}

func messageOf(raw []byte, status int) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return http.StatusText(status)
}
