// Package scan is the state machine for one photo submission and the
// derived view shown for it.
package scan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"foozam/internal/filter"
	"foozam/internal/logging"
	"foozam/internal/places"
	"foozam/internal/recognition"
	"foozam/internal/storage"

	"github.com/pkg/errors"
)

type State string

const (
	StateIdle         State = "idle"
	StateSubmitting   State = "submitting"
	StateResolved     State = State(recognition.VariantResolved)
	StateAmbiguous    State = State(recognition.VariantAmbiguous)
	StateUnregistered State = State(recognition.VariantUnregistered)
	StateFailed       State = State(recognition.VariantFailed)
)

const DefaultTimeout = 30 * time.Second

var (
	// ErrSuperseded is returned to a caller whose response arrived after a newer submission started.
	ErrSuperseded = errors.New("a newer submission replaced this one")
	ErrBusy       = errors.New("dataset request already in progress")
)

// TransitionError reports an operation that the current state does not allow.
type TransitionError struct {
	Op    string
	State State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Op, e.State)
}

// Recognizer is the recognition backend as seen by the machine.
type Recognizer interface {
	Recognize(ctx context.Context, sub recognition.Submission) recognition.Outcome
	DishDetail(ctx context.Context, name, city string) (*recognition.Resolved, error)
	AddDish(ctx context.Context, name, imageRef string) error
}

type Option func(*Machine)

func WithPlaces(f places.Finder) Option {
	return func(m *Machine) { m.finder = f }
}

// WithUploader lets add-to-dataset store the photo itself when the backend returned no image reference.
func WithUploader(u storage.Uploader) Option {
	return func(m *Machine) { m.uploader = u }
}

func WithTimeout(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.timeout = d
		}
	}
}

type Machine struct {
	recognizer Recognizer
	finder     places.Finder
	uploader   storage.Uploader
	timeout    time.Duration

	mu       sync.Mutex
	gen      uint64
	state    State
	outcome  recognition.Outcome
	places   []places.Place
	filters  filter.Filters
	last     *recognition.Submission
	cancel   context.CancelFunc
	location *places.Location
	adding   bool
}

func New(r Recognizer, opts ...Option) *Machine {
	m := &Machine{
		recognizer: r,
		timeout:    DefaultTimeout,
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// begin starts a new request generation. Any in-flight request is canceled
// and every trace of the previous outcome is dropped.
func (m *Machine) begin(parent context.Context, sub *recognition.Submission) (uint64, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, m.timeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
	}
	m.gen++
	m.state = StateSubmitting
	m.outcome = nil
	m.places = nil
	m.filters = filter.Filters{}
	m.adding = false
	m.cancel = cancel
	if sub != nil {
		m.last = sub
		m.location = sub.Location
	}
	return m.gen, ctx, cancel
}

// finish applies outcome if gen is still the latest request.
func (m *Machine) finish(gen uint64, outcome recognition.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return ErrSuperseded
	}
	m.outcome = outcome
	m.state = State(outcome.Variant())
	m.cancel = nil
	if res, ok := outcome.(*recognition.Resolved); ok && res.Places != nil {
		m.places = res.Places
	}
	return nil
}

// Submit sends a new photo. It is allowed from every state; a request still
// in flight is canceled and its response discarded.
func (m *Machine) Submit(ctx context.Context, sub recognition.Submission) (Snapshot, error) {
	gen, runCtx, cancel := m.begin(ctx, &sub)
	defer cancel()

	log := logging.From(ctx).WithField("generation", gen)
	log.WithField("bytes", len(sub.Image.Data)).Info("SCAN_SUBMITTED")

	outcome := m.recognizer.Recognize(runCtx, sub)
	if err := m.finish(gen, outcome); err != nil {
		log.Info("SCAN_SUPERSEDED")
		return m.Snapshot(), err
	}
	log.WithField("outcome", outcome.Variant()).Info("SCAN_DONE")

	m.lookupPlaces(runCtx, gen, outcome)
	return m.Snapshot(), nil
}

// Retry re-submits the last photo after a failure.
func (m *Machine) Retry(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	if m.state != StateFailed || m.last == nil {
		st := m.state
		m.mu.Unlock()
		return m.Snapshot(), &TransitionError{Op: "retry", State: st}
	}
	sub := *m.last
	m.mu.Unlock()

	return m.Submit(ctx, sub)
}

// ChooseCandidate resolves an ambiguous result to the dish the user picked.
func (m *Machine) ChooseCandidate(ctx context.Context, name, city string) (Snapshot, error) {
	m.mu.Lock()
	st := m.state
	m.mu.Unlock()
	if st != StateAmbiguous && st != StateUnregistered {
		return m.Snapshot(), &TransitionError{Op: "choose a candidate", State: st}
	}

	gen, runCtx, cancel := m.begin(ctx, nil)
	defer cancel()

	var outcome recognition.Outcome
	res, err := m.recognizer.DishDetail(runCtx, name, city)
	if err != nil {
		logging.From(ctx).WithError(err).WithField("dish", name).Warn("DISH_DETAIL_FAILED")
		outcome = recognition.FailedFromError(err)
	} else {
		outcome = res
	}

	if err := m.finish(gen, outcome); err != nil {
		return m.Snapshot(), err
	}
	m.lookupPlaces(runCtx, gen, outcome)
	return m.Snapshot(), nil
}

// ConfirmAddToDataset submits the predicted dish and its photo. On success
// the outcome becomes a Resolved placeholder with no metadata.
func (m *Machine) ConfirmAddToDataset(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	match, ok := m.outcome.(*recognition.UnregisteredStrongMatch)
	if !ok {
		st := m.state
		m.mu.Unlock()
		return m.Snapshot(), &TransitionError{Op: "add to dataset", State: st}
	}
	if m.adding {
		m.mu.Unlock()
		return m.Snapshot(), ErrBusy
	}
	m.adding = true
	gen := m.gen
	last := m.last
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		if m.gen == gen {
			m.adding = false
		}
		m.mu.Unlock()
	}()

	runCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	log := logging.From(ctx).WithField("dish", match.PredictedDishName)

	imageRef := match.ImageRef
	if imageRef == "" && m.uploader != nil && last != nil {
		ref, err := storage.UploadImage(runCtx, m.uploader, match.PredictedDishName, last.Image.Data, last.Image.ContentType)
		if err != nil {
			log.WithError(err).Warn("DATASET_IMAGE_UPLOAD_FAILED")
			return m.Snapshot(), errors.Wrap(err, "upload dish photo")
		}
		imageRef = ref
	}

	if err := m.recognizer.AddDish(runCtx, match.PredictedDishName, imageRef); err != nil {
		log.WithError(err).Warn("DATASET_ADD_FAILED")
		return m.Snapshot(), err
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return m.Snapshot(), ErrSuperseded
	}
	m.outcome = &recognition.Resolved{
		DishName:    match.PredictedDishName,
		Confidence:  match.Confidence,
		ImageRef:    imageRef,
		Ingredients: []string{},
	}
	m.state = StateResolved
	m.places = nil
	m.mu.Unlock()

	log.Info("DATASET_ADDED")
	return m.Snapshot(), nil
}

// Cancel abandons an in-flight request, for example when the user navigates away.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateSubmitting {
		return
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	m.state = StateIdle
}

// SetFilters replaces the dietary and city filters for the current outcome.
func (m *Machine) SetFilters(f filter.Filters) Snapshot {
	m.mu.Lock()
	m.filters = f
	m.mu.Unlock()
	return m.Snapshot()
}

func (m *Machine) lookupPlaces(ctx context.Context, gen uint64, outcome recognition.Outcome) {
	res, ok := outcome.(*recognition.Resolved)
	if !ok || res.Places != nil || m.finder == nil {
		return
	}

	m.mu.Lock()
	loc := m.location
	m.mu.Unlock()
	if loc == nil {
		return
	}

	found, err := m.finder.Nearby(ctx, res.DishName, *loc)
	if err != nil {
		logging.From(ctx).WithError(err).WithField("dish", res.DishName).Warn("PLACES_LOOKUP_FAILED")
		return
	}

	m.mu.Lock()
	if gen == m.gen && m.outcome == outcome {
		m.places = found
	}
	m.mu.Unlock()
}
