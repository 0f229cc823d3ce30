package history

import (
	"encoding/json"
	"time"

	"foozam/internal/recognition"
)

// Entry is one past scan.
type Entry struct {
	ID               string    `json:"id"`
	DishName         string    `json:"dishName"`
	ConfidenceBucket string    `json:"confidence,omitempty"`
	Description      string    `json:"description,omitempty"`
	ImageRef         string    `json:"imageRef,omitempty"`
	Origin           string    `json:"origin,omitempty"`
	Tags             []string  `json:"tags"`
	CreatedAt        time.Time `json:"createdAt"`
	IsFavorite       bool      `json:"isFavorite"`
}

// UnmarshalJSON reads the backend's history document, where the id is
// "_id" and the recognition may be embedded as an object.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var aux struct {
		MongoID       string                  `json:"_id"`
		ID            string                  `json:"id"`
		FoodName      string                  `json:"foodName"`
		DishName      string                  `json:"dishName"`
		Origin        json.RawMessage         `json:"origin"`
		Tags          []string                `json:"tags"`
		CreatedAt     time.Time               `json:"createdAt"`
		IsFavorite    bool                    `json:"isFavorite"`
		ImageURL      string                  `json:"imageUrl"`
		ImageRef      string                  `json:"imageRef"`
		Description   string                  `json:"description"`
		Confidence    *recognition.Confidence `json:"confidence"`
		RecognitionID json.RawMessage         `json:"recognitionId"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var rec struct {
		Description string                  `json:"description"`
		Confidence  *recognition.Confidence `json:"confidence"`
	}
	if len(aux.RecognitionID) > 0 && aux.RecognitionID[0] == '{' {
		_ = json.Unmarshal(aux.RecognitionID, &rec)
	}

	*e = Entry{
		ID:          first(aux.MongoID, aux.ID),
		DishName:    first(aux.FoodName, aux.DishName),
		Description: first(aux.Description, rec.Description),
		ImageRef:    first(aux.ImageRef, aux.ImageURL),
		Tags:        aux.Tags,
		CreatedAt:   aux.CreatedAt,
		IsFavorite:  aux.IsFavorite,
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if len(aux.Origin) > 0 {
		var o recognition.Origin
		if err := json.Unmarshal(aux.Origin, &o); err == nil {
			e.Origin = o.String()
		}
	}
	conf := aux.Confidence
	if conf == nil {
		conf = rec.Confidence
	}
	if conf != nil {
		e.ConfidenceBucket = conf.Bucket()
	}
	return nil
}

type TopFood struct {
	Food  string `json:"food"`
	Count int    `json:"count"`
}

type Stats struct {
	TotalScans    int       `json:"totalScans"`
	UniqueFoods   int       `json:"uniqueFoods"`
	UniqueOrigins int       `json:"uniqueOrigins"`
	Favorites     int       `json:"favorites"`
	TopFoods      []TopFood `json:"topFoods"`
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
