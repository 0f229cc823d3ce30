// Package filter derives the displayed tag and place lists from a resolved
// outcome. All functions are pure.
package filter

import (
	"strings"

	"foozam/internal/places"
)

// All is the value the pickers send for "no filter".
const All = "All"

var (
	DietOptions = []string{"vegetarian", "gluten-free", "vegan"}
	CityOptions = []string{"Lagos", "Abuja", "Ibadan", "Ilorin", "Osun", "Ogun", "Oyo", "Kano", "Houston", "London"}
)

type Filters struct {
	Diet string `json:"diet"`
	City string `json:"city"`
}

func unset(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, All)
}

// IsZero reports whether neither filter is set.
func (f Filters) IsZero() bool {
	return unset(f.Diet) && unset(f.City)
}

// Tags keeps the tags equal to diet. An unset diet returns tags unchanged.
func Tags(tags []string, diet string) []string {
	if unset(diet) {
		return tags
	}
	out := []string{}
	for _, t := range tags {
		if t == diet {
			out = append(out, t)
		}
	}
	return out
}

// Places keeps the places whose City matches city, ignoring case.
// An unset city returns places unchanged.
func Places(list []places.Place, city string) []places.Place {
	if unset(city) {
		return list
	}
	city = strings.TrimSpace(city)
	out := []places.Place{}
	for _, p := range list {
		if strings.EqualFold(strings.TrimSpace(p.City), city) {
			out = append(out, p)
		}
	}
	return out
}
