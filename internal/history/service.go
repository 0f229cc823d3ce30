// Package history keeps the signed-in user's past scans, favorites and stats.
package history

import (
	"context"
	"sync"
	"time"

	"foozam/internal/recognition"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrNoUser   = errors.New("sign in to see your history")
	ErrNotFound = errors.New("history entry not found")
)

// Service is the local copy of one user's history. Remote writes happen
// first; the local copy changes only after they succeed.
type Service struct {
	source Source
	now    func() time.Time

	mu      sync.Mutex
	entries []Entry
	stats   *Stats
}

func NewService(source Source) *Service {
	return &Service{source: source, now: time.Now}
}

// Fetch replaces the local copy with the backend's list.
func (s *Service) Fetch(ctx context.Context, userID string) ([]Entry, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	entries, err := s.source.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return s.Entries(), nil
}

// Entries returns a copy of the local list.
func (s *Service) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// ToggleFavorite flips the favorite flag of one entry.
func (s *Service) ToggleFavorite(ctx context.Context, id string) (Entry, error) {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return Entry{}, ErrNotFound
	}
	want := !s.entries[i].IsFavorite
	s.mu.Unlock()

	return s.SetFavorite(ctx, id, want)
}

// SetFavorite sets the flag remotely and then on the matching local entry only.
func (s *Service) SetFavorite(ctx context.Context, id string, favorite bool) (Entry, error) {
	if err := s.source.SetFavorite(ctx, id, favorite); err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return Entry{ID: id, IsFavorite: favorite}, nil
	}
	s.entries[i].IsFavorite = favorite
	return s.entries[i], nil
}

func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	st, err := s.source.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.stats = st
	s.mu.Unlock()
	return st, nil
}

// Record prepends a local entry for a recognition that just resolved.
// The backend stores its own copy when the scan carried a user id.
func (s *Service) Record(res *recognition.Resolved) Entry {
	id := res.RecognitionID
	if id == "" {
		id = uuid.NewString()
	}
	tags := res.Tags
	if tags == nil {
		tags = []string{}
	}
	e := Entry{
		ID:               id,
		DishName:         res.DishName,
		ConfidenceBucket: res.Confidence.Bucket(),
		Description:      res.Description,
		ImageRef:         res.ImageRef,
		Origin:           res.Origin.String(),
		Tags:             tags,
		CreatedAt:        s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
	}
	s.entries = append([]Entry{e}, s.entries...)
	return e
}

func (s *Service) index(id string) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}
