package places

import "encoding/json"

type Coordinates struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Place is a restaurant or stall serving the resolved dish.
type Place struct {
	Name           string      `json:"name"`
	Address        string      `json:"address"`
	City           string      `json:"city,omitempty"`
	Coordinates    Coordinates `json:"coordinates"`
	DistanceMeters *float64    `json:"distance,omitempty"`
	Rating         *float64    `json:"rating,omitempty"`
	PriceLevel     string      `json:"priceLevel,omitempty"`
	Phone          string      `json:"phone,omitempty"`
	Website        string      `json:"website,omitempty"`
}

// Location is the user's position for one page visit. City is optional.
type Location struct {
	Lat  float64 `json:"latitude"`
	Lon  float64 `json:"longitude"`
	City string  `json:"city,omitempty"`
}

// UnmarshalJSON also accepts the flat {"lat":..,"lon":..} form older backends send.
func (p *Place) UnmarshalJSON(data []byte) error {
	type Alias Place
	aux := &struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Lat != nil {
		p.Coordinates.Lat = *aux.Lat
	}
	if aux.Lon != nil {
		p.Coordinates.Lon = *aux.Lon
	}
	return nil
}
