package suggest

import (
	"nearby/internal/query"
	"nearby/models"
	"nearby/pkg/catalog"
)

// Apply folds a selected suggestion into the search state. fire reports
// whether the selection should trigger a search.
func Apply(s query.State, sug models.Suggestion) (next query.State, fire bool) {
	switch sug.Type {
	case models.SuggestionAll:
		s.Text = ""
		s.Categories = nil
		return s, true

	case models.SuggestionCategory:
		ref := models.CategoryRef{ID: sug.ID, Label: sug.Title}
		if p, ok := sug.Payload.(models.CategoryRef); ok {
			ref = p
		}
		s = s.WithCategory(ref)
		s.Text = ""
		return s, true

	case models.SuggestionService:
		s.Text = sug.Title
		if svc, ok := sug.Payload.(catalog.Service); ok && svc.Name != "" {
			s.Text = svc.Name
		}
		s.Filters.SpecificServices = []string{sug.ID}
		return s, true

	case models.SuggestionSalon:
		s.Text = sug.Title
		return s, true
	}
	return s, false
}
