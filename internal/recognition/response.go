package recognition

import "foozam/internal/places"

// Response is the recognition backend's JSON body. It covers the typed
// contract (Status set) and the older shapes still served today: a flat
// dish payload with message markers, and the {success, data:{recognition}} envelope.
type Response struct {
	Status  string `json:"status"`
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`

	RecognitionID    string        `json:"recognitionId"`
	ID               string        `json:"id"`
	Dish             string        `json:"dish"`
	DishName         string        `json:"dishName"`
	FoodName         string        `json:"foodName"`
	Description      string        `json:"description"`
	Recipe           string        `json:"recipe"`
	Ingredients      []string      `json:"ingredients"`
	Tags             []string      `json:"tags"`
	Origin           Origin        `json:"origin"`
	CulturalContext  string        `json:"culturalContext"`
	Nutrition        *Nutrition    `json:"nutrition"`
	NutritionalInfo  *Nutrition    `json:"nutritionalInfo"`
	SimilarDishes    []SimilarDish `json:"similarDishes"`
	AlternativeNames []string      `json:"alternativeNames"`
	Confidence       *Confidence   `json:"confidence"`
	ConfidenceScore  *Confidence   `json:"confidenceScore"`
	ImageURL         string        `json:"imageUrl"`

	Locations    []places.Place `json:"locations"`
	NearbyPlaces []places.Place `json:"nearbyPlaces"`

	Candidates     []Candidate `json:"candidates"`
	Predictions    []Candidate `json:"predictions"`
	TopPredictions []Candidate `json:"topPredictions"`
	PredictedDish  string      `json:"predictedDish"`
	InDataset      *bool       `json:"inDataset"`

	Data *envelope `json:"data"`
}

type envelope struct {
	Recognition  *Response      `json:"recognition"`
	NearbyPlaces []places.Place `json:"nearbyPlaces"`
}

// flatten lifts an enveloped recognition to the top level.
func (r *Response) flatten() *Response {
	if r.Data == nil || r.Data.Recognition == nil {
		return r
	}
	inner := *r.Data.Recognition
	if inner.NearbyPlaces == nil {
		inner.NearbyPlaces = r.Data.NearbyPlaces
	}
	if inner.Status == "" {
		inner.Status = r.Status
	}
	if inner.Success == nil {
		inner.Success = r.Success
	}
	if inner.Message == "" {
		inner.Message = r.Message
	}
	if inner.Error == "" {
		inner.Error = r.Error
	}
	return &inner
}

func (r *Response) dishName() string {
	return firstNonEmpty(r.DishName, r.FoodName, r.Dish)
}

func (r *Response) confidence() *Confidence {
	if r.ConfidenceScore != nil {
		return r.ConfidenceScore
	}
	return r.Confidence
}

func (r *Response) candidates() []Candidate {
	switch {
	case r.Candidates != nil:
		return r.Candidates
	case r.Predictions != nil:
		return r.Predictions
	default:
		return r.TopPredictions
	}
}

func (r *Response) resolved() *Resolved {
	res := &Resolved{
		RecognitionID:    firstNonEmpty(r.RecognitionID, r.ID),
		DishName:         r.dishName(),
		Description:      firstNonEmpty(r.Description, r.Recipe),
		Ingredients:      r.Ingredients,
		Tags:             r.Tags,
		Origin:           r.Origin,
		CulturalContext:  r.CulturalContext,
		Nutrition:        r.Nutrition,
		SimilarDishes:    r.SimilarDishes,
		AlternativeNames: r.AlternativeNames,
		ImageRef:         r.ImageURL,
	}
	if res.Nutrition == nil {
		res.Nutrition = r.NutritionalInfo
	}
	if res.Ingredients == nil {
		res.Ingredients = []string{}
	}
	if c := r.confidence(); c != nil {
		res.Confidence = *c
	}
	switch {
	case r.NearbyPlaces != nil:
		res.Places = r.NearbyPlaces
	case r.Locations != nil:
		res.Places = r.Locations
	}
	return res
}

func (r *Response) unregistered() *UnregisteredStrongMatch {
	name := r.PredictedDish
	if name == "" {
		name = r.dishName()
	}
	cands := r.candidates()
	if name == "" && len(cands) > 0 {
		name = cands[0].DishName
	}
	u := &UnregisteredStrongMatch{PredictedDishName: name, ImageRef: r.ImageURL}
	if c := r.confidence(); c != nil {
		u.Confidence = *c
	} else if len(cands) > 0 {
		u.Confidence = cands[0].Confidence
	}
	return u
}
