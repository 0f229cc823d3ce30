package filter

import (
	"testing"

	"foozam/internal/places"

	"github.com/stretchr/testify/assert"
)

func TestTags(t *testing.T) {
	tags := []string{"rice", "tomato", "pepper"}

	assert.Equal(t, []string{}, Tags(tags, "vegan"))
	assert.Equal(t, tags, Tags(tags, ""))
	assert.Equal(t, tags, Tags(tags, "All"))
	assert.Equal(t, []string{"tomato"}, Tags(tags, "tomato"))
}

func TestTags_IdentityKeepsSlice(t *testing.T) {
	tags := []string{"vegan", "gluten-free"}
	got := Tags(tags, "")

	assert.Equal(t, tags, got)
	assert.Same(t, &tags[0], &got[0])
}

func TestPlaces(t *testing.T) {
	list := []places.Place{
		{Name: "Mama Put", City: "Lagos"},
		{Name: "Buka", City: "Abuja"},
		{Name: "Yam Spot", City: "lagos "},
		{Name: "No City", Address: "Lagos road"},
	}

	got := Places(list, "Lagos")
	assert.Len(t, got, 2)
	assert.Equal(t, "Mama Put", got[0].Name)
	assert.Equal(t, "Yam Spot", got[1].Name)

	assert.Equal(t, list, Places(list, All))
	assert.Empty(t, Places(list, "Kano"))
}

func TestFilters_IsZero(t *testing.T) {
	assert.True(t, Filters{}.IsZero())
	assert.True(t, Filters{Diet: "All", City: " "}.IsZero())
	assert.False(t, Filters{City: "Oyo"}.IsZero())
}
