package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nearby/internal/query"
	"nearby/models"
	"nearby/pkg/catalog"
)

func TestApply_CategoryIsSetAppend(t *testing.T) {
	hair := catalog.Category{ID: "hair", Label: "Hair"}
	sug := models.Scored(models.SuggestionCategory, hair.ID, hair.Label, "Category", 100, hair.Ref())

	s, fire := Apply(query.State{Text: "hai"}, sug)
	assert.True(t, fire)
	assert.Equal(t, []string{"hair"}, s.CategoryIDs())
	assert.Empty(t, s.Text)

	s, fire = Apply(s, sug)
	assert.True(t, fire)
	assert.Equal(t, []string{"hair"}, s.CategoryIDs())

	nails := catalog.Category{ID: "nails", Label: "Nails"}
	s, _ = Apply(s, models.Scored(models.SuggestionCategory, nails.ID, nails.Label, "", 90, nails.Ref()))
	assert.Equal(t, []string{"hair", "nails"}, s.CategoryIDs())
}

func TestApply_All(t *testing.T) {
	start := query.State{Text: "hair", Categories: []models.CategoryRef{{ID: "hair", Label: "Hair"}}}

	s, fire := Apply(start, models.Suggestion{Type: models.SuggestionAll})
	assert.True(t, fire)
	assert.Empty(t, s.Text)
	assert.Empty(t, s.Categories)
}

func TestApply_ServiceNarrowsSpecificServices(t *testing.T) {
	svc := catalog.Service{ID: "s1", Name: "Haircut", Category: "hair"}
	start := query.State{
		Text:    "hairc",
		Filters: query.FilterState{SpecificServices: []string{"old-1", "old-2"}},
	}

	s, fire := Apply(start, models.Scored(models.SuggestionService, svc.ID, svc.Name, "", 95, svc))
	assert.True(t, fire)
	assert.Equal(t, "Haircut", s.Text)
	assert.Equal(t, []string{"s1"}, s.Filters.SpecificServices)
}

func TestApply_SalonSetsTextOnly(t *testing.T) {
	start := query.State{
		Categories: []models.CategoryRef{{ID: "hair", Label: "Hair"}},
		Filters:    query.FilterState{SpecificServices: []string{"s1"}},
	}

	s, fire := Apply(start, models.Scored(models.SuggestionSalon, "a", "Glow Studio", "", 80, catalog.Salon{ID: "a", Name: "Glow Studio"}))
	assert.True(t, fire)
	assert.Equal(t, "Glow Studio", s.Text)
	assert.Equal(t, []string{"hair"}, s.CategoryIDs())
	assert.Equal(t, []string{"s1"}, s.Filters.SpecificServices)
}

func TestApply_StructuralRowsDoNotFire(t *testing.T) {
	_, fire := Apply(query.State{}, models.Suggestion{Type: models.SuggestionHeader, Title: "Top categories"})
	assert.False(t, fire)
}
