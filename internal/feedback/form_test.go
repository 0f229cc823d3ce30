package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"foozam/internal/backend"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []Correction
	err   error
	block chan struct{}
}

func (s *fakeSender) Send(_ context.Context, c Correction) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, c)
	return s.err
}

func TestForm_Submit(t *testing.T) {
	s := &fakeSender{}
	f := NewForm(s, "rec-1", "Jollof Rice")
	require.NoError(t, f.Update(Fields{Name: "Party Jollof", Origin: "Nigeria"}))

	st, err := f.Submit(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, st)

	require.Len(t, s.sent, 1)
	assert.Equal(t, Correction{
		RecognitionID:   "rec-1",
		CorrectFoodName: "Party Jollof",
		CorrectOrigin:   "Nigeria",
		UserID:          "user-1",
	}, s.sent[0])

	// terminal: nothing more is sent
	st, err = f.Submit(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, st)
	assert.Len(t, s.sent, 1)
	assert.ErrorIs(t, f.Update(Fields{Name: "x"}), ErrSubmitted)
}

func TestForm_NameRequired(t *testing.T) {
	s := &fakeSender{}
	f := NewForm(s, "rec-1", "")

	_, err := f.Submit(context.Background(), "")
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Equal(t, StatusEditing, f.Status())
	assert.Empty(t, s.sent)
}

func TestForm_FailureKeepsFields(t *testing.T) {
	s := &fakeSender{err: errors.New("503")}
	f := NewForm(s, "rec-1", "Jollof Rice")
	require.NoError(t, f.Update(Fields{Name: "Ofada Rice", Origin: "Ogun"}))

	st, err := f.Submit(context.Background(), "")
	assert.Error(t, err)
	assert.Equal(t, StatusEditing, st)
	assert.Equal(t, "Ofada Rice", f.Fields().Name)
	assert.Equal(t, "Ogun", f.Fields().Origin)

	s.err = nil
	st, err = f.Submit(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, st)
}

func TestForm_DoubleSubmitRejected(t *testing.T) {
	s := &fakeSender{block: make(chan struct{})}
	f := NewForm(s, "rec-1", "Jollof Rice")

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.Submit(context.Background(), "")
	}()
	require.Eventually(t, func() bool { return f.Status() == StatusSubmitting }, time.Second, 5*time.Millisecond)

	st, err := f.Submit(context.Background(), "")
	assert.ErrorIs(t, err, ErrInFlight)
	assert.Equal(t, StatusSubmitting, st)
	assert.ErrorIs(t, f.Update(Fields{Name: "x"}), ErrInFlight)

	close(s.block)
	<-done
	assert.Equal(t, StatusSubmitted, f.Status())
	assert.Len(t, s.sent, 1)
}

func TestClient_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/food/feedback", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "rec-9", body["recognitionId"])
		assert.Equal(t, "Suya", body["correctFoodName"])
		assert.Equal(t, "", body["correctOrigin"])
		_, hasUser := body["userId"]
		assert.False(t, hasUser)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(backend.New(srv.URL, time.Second))
	require.NoError(t, c.Send(context.Background(), Correction{RecognitionID: "rec-9", CorrectFoodName: "Suya"}))
}

func TestClient_SendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"recognitionId is required"}`))
	}))
	defer srv.Close()

	err := NewClient(backend.New(srv.URL, time.Second)).Send(context.Background(), Correction{})
	require.Error(t, err)
	assert.True(t, backend.IsStatus(err, http.StatusBadRequest))
}
