package recognition

import (
	"context"
	"net/http"
	"strings"

	"foozam/internal/backend"

	"github.com/pkg/errors"
)

const (
	markerLowConfidence    = "low confidence"
	markerStrongPrediction = "strong prediction"
	markerDataset          = "dataset"
)

// Classify turns a backend body into an Outcome. A "low confidence" message
// always means Ambiguous; after that the typed status field wins when
// present, otherwise the message markers older backends emit are read.
func Classify(resp *Response) Outcome {
	if resp == nil {
		return &Failed{Reason: "empty recognition response", Kind: FailureService, Retryable: true}
	}
	r := resp.flatten()

	if strings.Contains(strings.ToLower(r.Message), markerLowConfidence) {
		return &Ambiguous{Candidates: nonNil(r.candidates()), ImageRef: r.ImageURL}
	}

	switch Variant(strings.ToLower(strings.TrimSpace(r.Status))) {
	case VariantResolved:
		return r.resolved()
	case VariantAmbiguous:
		return &Ambiguous{Candidates: nonNil(r.candidates()), ImageRef: r.ImageURL}
	case VariantUnregistered:
		return r.unregistered()
	case VariantFailed, "error":
		return &Failed{Reason: firstNonEmpty(r.Error, r.Message, "recognition failed"), Kind: FailureValidation}
	}

	return classifyLegacy(r)
}

func classifyLegacy(r *Response) Outcome {
	msg := strings.ToLower(r.Message)

	if r.Error != "" {
		return &Failed{Reason: r.Error, Kind: FailureValidation}
	}

	if strings.Contains(msg, markerStrongPrediction) && r.confidence() != nil && r.notInDataset(msg) {
		return r.unregistered()
	}

	if r.Success != nil && !*r.Success {
		return &Failed{Reason: firstNonEmpty(r.Message, "recognition failed"), Kind: FailureValidation}
	}

	if r.dishName() != "" {
		return r.resolved()
	}

	return &Failed{Reason: "recognition returned no dish", Kind: FailureService, Retryable: true}
}

// FailedFromError maps a transport or backend error onto the Failed outcome.
func FailedFromError(err error) *Failed {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Failed{Reason: "Recognition timed out. Please try again.", Kind: FailureTransport, Retryable: true}
	case errors.Is(err, context.Canceled):
		return &Failed{Reason: "Recognition was canceled.", Kind: FailureTransport, Retryable: true}
	case errors.Is(err, backend.ErrTransport):
		return &Failed{Reason: "Network error. Check your connection and try again.", Kind: FailureTransport, Retryable: true}
	case errors.Is(err, ErrEmptyImage), errors.Is(err, ErrImageTooLarge), errors.Is(err, ErrUnsupportedImage):
		return &Failed{Reason: errors.Cause(err).Error(), Kind: FailureValidation}
	}

	var be *backend.Error
	if errors.As(err, &be) {
		if be.Status >= http.StatusInternalServerError {
			return &Failed{Reason: "The recognition service had a problem. Please try again.", Kind: FailureService, Retryable: true}
		}
		return &Failed{Reason: be.Message, Kind: FailureValidation}
	}

	return &Failed{Reason: "Could not read the recognition result.", Kind: FailureService, Retryable: true}
}

func nonNil(c []Candidate) []Candidate {
	if c == nil {
		return []Candidate{}
	}
	return c
}

// notInDataset reads the dataset membership of a strong prediction. An
// explicit inDataset flag decides; otherwise a predictedDish field or any
// mention of the dataset in the message means the dish is not registered.
func (r *Response) notInDataset(msg string) bool {
	if r.InDataset != nil {
		return !*r.InDataset
	}
	return r.PredictedDish != "" || strings.Contains(msg, markerDataset)
}
