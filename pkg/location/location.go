// Package location resolves coordinates to display addresses and free text
// to candidate places.
package location

import (
	"context"

	"github.com/rotisserie/eris"

	"nearby/models"
)

// ErrServiceUnavailable reports that the upstream geocoder is out of
// capacity or down (HTTP 503), as opposed to a generic failure.
var ErrServiceUnavailable = eris.New("location: geocoding service unavailable")

// Place is one forward-geocoding candidate.
type Place struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// Coordinate returns the place position.
func (p Place) Coordinate() models.Coordinate {
	return models.Coordinate{Lat: p.Lat, Lng: p.Lng}
}

// Geocoder is implemented by every geocoding backend.
type Geocoder interface {
	// Reverse returns a display address for c.
	Reverse(ctx context.Context, c models.Coordinate) (string, error)
	// Autocomplete returns up to limit places matching query, biased
	// towards near when it is not nil.
	Autocomplete(ctx context.Context, query string, limit int, near *models.Coordinate) ([]Place, error)
}
