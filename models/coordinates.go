package models

import "time"

// Coordinate is a WGS-84 position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// FixSource records where a LocationFix came from.
type FixSource string

const (
	SourceGPS    FixSource = "gps"
	SourceCache  FixSource = "cache"
	SourceManual FixSource = "manual"
)

// LocationFix is a single positioning result.
type LocationFix struct {
	Coordinate     Coordinate `json:"coordinate"`
	AccuracyMeters float64    `json:"accuracy_meters"`
	Timestamp      time.Time  `json:"timestamp"`
	Source         FixSource  `json:"source"`
}

// CachedLocation is the persisted form of the last accepted fix.
type CachedLocation struct {
	Address        string     `json:"address"`
	Coordinate     Coordinate `json:"coordinate"`
	AccuracyMeters float64    `json:"accuracy_meters"`
	Timestamp      time.Time  `json:"timestamp"`
}

// Fix converts the cached entry back into a fix tagged as a cache hit.
func (c CachedLocation) Fix() LocationFix {
	return LocationFix{
		Coordinate:     c.Coordinate,
		AccuracyMeters: c.AccuracyMeters,
		Timestamp:      c.Timestamp,
		Source:         SourceCache,
	}
}

// SavedLocation is a user-labelled address such as "home" or "work".
type SavedLocation struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	Address    string     `json:"address"`
	Coordinate Coordinate `json:"coordinate"`
	CreatedAt  time.Time  `json:"created_at"`
}
