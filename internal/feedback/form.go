// Package feedback collects corrections for a resolved recognition.
package feedback

import (
	"context"
	"strings"
	"sync"

	"foozam/internal/logging"

	"github.com/pkg/errors"
)

var (
	ErrInFlight     = errors.New("feedback is already being submitted")
	ErrNameRequired = errors.New("correct food name is required")
	ErrSubmitted    = errors.New("feedback already submitted")
)

// Form is bound to one recognition. A new recognition gets a new Form.
type Form struct {
	sender        Sender
	recognitionID string

	mu     sync.Mutex
	fields Fields
	status Status
}

// NewForm prefills the corrected name with the recognized dish name.
func NewForm(s Sender, recognitionID, dishName string) *Form {
	return &Form{
		sender:        s,
		recognitionID: recognitionID,
		fields:        Fields{Name: dishName},
		status:        StatusEditing,
	}
}

func (f *Form) RecognitionID() string { return f.recognitionID }

func (f *Form) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *Form) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// Update replaces the fields. Only allowed while editing.
func (f *Form) Update(fields Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.status {
	case StatusSubmitting:
		return ErrInFlight
	case StatusSubmitted:
		return ErrSubmitted
	}
	f.fields = fields
	return nil
}

// Submit posts the correction. A second submit while one is outstanding
// returns ErrInFlight; after success it does nothing. On failure the form
// goes back to editing with its fields intact and the error is returned
// for the caller to log.
func (f *Form) Submit(ctx context.Context, userID string) (Status, error) {
	f.mu.Lock()
	switch f.status {
	case StatusSubmitting:
		f.mu.Unlock()
		return StatusSubmitting, ErrInFlight
	case StatusSubmitted:
		f.mu.Unlock()
		return StatusSubmitted, nil
	}
	if strings.TrimSpace(f.fields.Name) == "" {
		f.mu.Unlock()
		return StatusEditing, ErrNameRequired
	}
	f.status = StatusSubmitting
	corr := Correction{
		RecognitionID:      f.recognitionID,
		CorrectFoodName:    strings.TrimSpace(f.fields.Name),
		CorrectOrigin:      strings.TrimSpace(f.fields.Origin),
		CorrectIngredients: f.fields.Ingredients,
		CorrectDescription: strings.TrimSpace(f.fields.Description),
		UserID:             userID,
	}
	f.mu.Unlock()

	err := f.sender.Send(ctx, corr)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.status = StatusEditing
		logging.From(ctx).WithError(err).WithField("recognitionId", f.recognitionID).Warn("FEEDBACK_FAILED")
		return f.status, err
	}
	f.status = StatusSubmitted
	logging.From(ctx).WithField("recognitionId", f.recognitionID).Info("FEEDBACK_SUBMITTED")
	return f.status, nil
}
