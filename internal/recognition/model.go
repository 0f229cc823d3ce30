package recognition

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"foozam/internal/places"
)

type Variant string

const (
	VariantResolved     Variant = "resolved"
	VariantAmbiguous    Variant = "ambiguous"
	VariantUnregistered Variant = "unregistered"
	VariantFailed       Variant = "failed"
)

// Outcome is the result of one photo submission. Exactly one of Resolved,
// Ambiguous, UnregisteredStrongMatch or Failed.
type Outcome interface {
	Variant() Variant
	isOutcome()
}

// Confidence is a 0..100 score.
type Confidence float64

// UnmarshalJSON accepts numbers, numeric strings and the high/medium/low buckets.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "high":
			*c = 90
		case "medium":
			*c = 65
		case "low":
			*c = 30
		default:
			f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
			if err != nil {
				return err
			}
			*c = Confidence(f)
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*c = Confidence(f)
	return nil
}

// Bucket maps the score onto the history labels.
func (c Confidence) Bucket() string {
	switch {
	case c >= 80:
		return "high"
	case c >= 50:
		return "medium"
	default:
		return "low"
	}
}

type Origin struct {
	Country string `json:"country"`
	Region  string `json:"region,omitempty"`
}

// UnmarshalJSON accepts either a plain country string or {country, region}.
func (o *Origin) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &o.Country)
	}
	type Alias Origin
	return json.Unmarshal(data, (*Alias)(o))
}

func (o Origin) String() string {
	if o.Region == "" {
		return o.Country
	}
	return o.Region + ", " + o.Country
}

type Nutrition struct {
	Calories      string   `json:"calories,omitempty"`
	MainNutrients []string `json:"mainNutrients,omitempty"`
}

type SimilarDish struct {
	Name   string `json:"name"`
	Origin string `json:"origin"`
}

type Candidate struct {
	DishName   string     `json:"dishName"`
	Confidence Confidence `json:"confidence"`
}

func (c *Candidate) UnmarshalJSON(data []byte) error {
	var aux struct {
		DishName   string     `json:"dishName"`
		Dish       string     `json:"dish"`
		Name       string     `json:"name"`
		Confidence Confidence `json:"confidence"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.DishName = firstNonEmpty(aux.DishName, aux.Dish, aux.Name)
	c.Confidence = aux.Confidence
	return nil
}

type Resolved struct {
	RecognitionID    string         `json:"recognitionId,omitempty"`
	DishName         string         `json:"dishName"`
	Description      string         `json:"description,omitempty"`
	Ingredients      []string       `json:"ingredients"`
	Tags             []string       `json:"tags,omitempty"`
	Origin           Origin         `json:"origin"`
	Nutrition        *Nutrition     `json:"nutrition,omitempty"`
	CulturalContext  string         `json:"culturalContext,omitempty"`
	SimilarDishes    []SimilarDish  `json:"similarDishes,omitempty"`
	AlternativeNames []string       `json:"alternativeNames,omitempty"`
	Confidence       Confidence     `json:"confidenceScore"`
	ImageRef         string         `json:"imageRef,omitempty"`
	Places           []places.Place `json:"-"`
}

// DietTags is the list the dietary filter runs over: explicit tags when the
// backend sent them, otherwise the ingredients.
func (r *Resolved) DietTags() []string {
	if len(r.Tags) > 0 {
		return r.Tags
	}
	return r.Ingredients
}

type Ambiguous struct {
	Candidates []Candidate `json:"candidates"`
	ImageRef   string      `json:"imageRef,omitempty"`
}

type UnregisteredStrongMatch struct {
	PredictedDishName string     `json:"predictedDishName"`
	Confidence        Confidence `json:"confidenceScore"`
	ImageRef          string     `json:"imageRef,omitempty"`
}

type FailureKind string

const (
	FailureTransport  FailureKind = "transport"
	FailureValidation FailureKind = "validation"
	FailureService    FailureKind = "service"
)

type Failed struct {
	Reason    string      `json:"reason"`
	Kind      FailureKind `json:"kind"`
	Retryable bool        `json:"retryable"`
}

func (*Resolved) Variant() Variant                { return VariantResolved }
func (*Ambiguous) Variant() Variant               { return VariantAmbiguous }
func (*UnregisteredStrongMatch) Variant() Variant { return VariantUnregistered }
func (*Failed) Variant() Variant                  { return VariantFailed }

func (*Resolved) isOutcome()                {}
func (*Ambiguous) isOutcome()               {}
func (*UnregisteredStrongMatch) isOutcome() {}
func (*Failed) isOutcome()                  {}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
