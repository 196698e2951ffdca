// Package query turns the current search state into SearchParams, choosing
// proximity mode when a coordinate is known and keyword mode otherwise.
package query

import (
	"slices"
	"strings"

	"nearby/models"
	"nearby/pkg/geo"
)

// FilterState holds the user's filter choices. A nil PriceRange means the
// full range.
type FilterState struct {
	PriceRange       *models.PriceRange `json:"priceRange,omitempty"`
	MinRating        float64            `json:"minRating"`
	AvailableToday   bool               `json:"availableToday"`
	SpecificServices []string           `json:"specificServices,omitempty"`
}

// State is everything a search is built from.
type State struct {
	Coordinate   *models.Coordinate   `json:"coordinate,omitempty"`
	Radius       float64              `json:"radius"`
	Text         string               `json:"text"`
	LocationText string               `json:"locationText"`
	Categories   []models.CategoryRef `json:"categories,omitempty"`
	SortBy       string               `json:"sortBy,omitempty"`
	Filters      FilterState          `json:"filters"`
}

// HasCategory reports whether id is already selected.
func (s State) HasCategory(id string) bool {
	return slices.ContainsFunc(s.Categories, func(c models.CategoryRef) bool { return c.ID == id })
}

// WithCategory returns a copy of s with ref added to the selected set.
// Selecting an already-selected category leaves the set unchanged.
func (s State) WithCategory(ref models.CategoryRef) State {
	if s.HasCategory(ref.ID) {
		return s
	}
	s.Categories = append(slices.Clone(s.Categories), ref)
	return s
}

// CategoryIDs lists the selected category IDs in selection order.
func (s State) CategoryIDs() []string {
	out := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		out = append(out, c.ID)
	}
	return out
}

// Build assembles the search request for s.
func Build(s State) models.SearchParams {
	if s.Coordinate != nil {
		return buildProximity(s)
	}
	return buildKeyword(s)
}

func buildProximity(s State) models.SearchParams {
	coord := *s.Coordinate
	radius := s.Radius
	if !geo.IsRadiusPreset(radius) {
		radius = geo.DefaultRadius
	}

	p := models.SearchParams{
		Coordinates: &coord,
		Radius:      &radius,
		Service:     strings.TrimSpace(s.Text),
		SortBy:      sortOr(s.SortBy, models.SortDistance),
		Filters:     BuildFilters(s.Filters),
	}
	// The search API accepts a single category; the first selection wins.
	if len(s.Categories) > 0 {
		p.Category = s.Categories[0].ID
	}
	return p
}

func buildKeyword(s State) models.SearchParams {
	labels := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		labels = append(labels, c.Label)
	}
	return models.SearchParams{
		Service:    strings.TrimSpace(s.Text),
		Location:   s.LocationText,
		Categories: strings.Join(labels, ", "),
		SortBy:     sortOr(s.SortBy, models.SortBestMatch),
		Filters:    BuildFilters(s.Filters),
	}
}

// BuildFilters keeps only the filters that differ from their defaults.
func BuildFilters(f FilterState) models.Filters {
	var out models.Filters
	if f.PriceRange != nil && *f.PriceRange != models.FullPriceRange {
		pr := *f.PriceRange
		out.PriceRange = &pr
	}
	if f.MinRating > 0 {
		r := f.MinRating
		out.MinRating = &r
	}
	out.AvailableToday = f.AvailableToday
	if len(f.SpecificServices) > 0 {
		out.SpecificServices = slices.Clone(f.SpecificServices)
	}
	return out
}

func sortOr(explicit, fallback string) string {
	if explicit != "" {
		return explicit
	}
	return fallback
}
