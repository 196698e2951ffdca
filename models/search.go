package models

import "errors"

// SearchMode is derived from which fields of SearchParams are populated.
type SearchMode string

const (
	ModeProximity SearchMode = "proximity"
	ModeKeyword   SearchMode = "keyword"
)

const (
	SortDistance  = "distance"
	SortBestMatch = "best-match"
	SortRating    = "rating"
	SortPrice     = "price"
)

// PriceRange bounds a price filter, inclusive.
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// FullPriceRange is the unfiltered price range.
var FullPriceRange = PriceRange{Min: 0, Max: 50000}

// Filters holds the optional search refinements. Only non-default values
// are populated.
type Filters struct {
	PriceRange       *PriceRange `json:"priceRange,omitempty"`
	MinRating        *float64    `json:"minRating,omitempty"`
	AvailableToday   bool        `json:"availableToday,omitempty"`
	SpecificServices []string    `json:"specificServices,omitempty"`
}

// SearchParams is the request emitted to the hosting surface.
// Proximity fields (Coordinates, Radius, Category) and keyword fields
// (Location, Categories) are never populated together.
type SearchParams struct {
	Coordinates *Coordinate `json:"coordinates,omitempty"`
	Radius      *float64    `json:"radius,omitempty"`
	Category    string      `json:"category,omitempty"`

	Location   string `json:"location,omitempty"`
	Categories string `json:"categories,omitempty"`

	Service string  `json:"service,omitempty"`
	SortBy  string  `json:"sortBy"`
	Filters Filters `json:"filters"`
}

var ErrMixedModes = errors.New("search params mix proximity and keyword fields")

// Mode reports proximity mode when a coordinate is present.
func (p SearchParams) Mode() SearchMode {
	if p.Coordinates != nil {
		return ModeProximity
	}
	return ModeKeyword
}

// Validate checks that proximity and keyword fields are not mixed.
func (p SearchParams) Validate() error {
	proximity := p.Coordinates != nil || p.Radius != nil || p.Category != ""
	keyword := p.Location != "" || p.Categories != ""
	if proximity && keyword {
		return ErrMixedModes
	}
	return nil
}
