package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_RoundTripWithToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "/food/history/abc", r.URL.Path)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	var out struct {
		OK bool `json:"ok"`
	}
	ctx := WithToken(context.Background(), "tok-123")
	require.NoError(t, c.JSON(ctx, http.MethodPatch, "/food/history/abc", nil, map[string]bool{"isFavorite": true}, &out))
	assert.True(t, out.OK)
}

func TestDo_ErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Dish not found"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, time.Second).JSON(context.Background(), http.MethodGet, "/foods/x", nil, nil, nil)

	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, http.StatusNotFound, be.Status)
	assert.Equal(t, "Dish not found", be.Message)
	assert.JSONEq(t, `{"message":"Dish not found"}`, string(be.Body))
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestDo_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := New(url, time.Second).JSON(context.Background(), http.MethodGet, "/health", nil, nil, nil)
	assert.True(t, errors.Is(err, ErrTransport))
}

func TestDo_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(srv.URL, time.Second).JSON(ctx, http.MethodGet, "/slow", nil, nil, nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrTransport))
}

func TestPathEscape(t *testing.T) {
	assert.Equal(t, "/foods/Jollof%20Rice", PathEscape("/foods", "Jollof Rice"))
	assert.Equal(t, "/foods/a%2Fb", PathEscape("/foods", "a/b"))
}
