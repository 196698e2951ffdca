// Package geo holds small geometric helpers shared by the location
// components: accuracy classification, distances and radius presets.
package geo

import "slices"

// Band classifies the reported accuracy of a fix.
type Band int

const (
	BandGood Band = iota
	BandModerate
	BandPoor
)

const (
	// GoodAccuracyMeters is the upper bound of an immediately acceptable fix.
	GoodAccuracyMeters = 100.0
	// ModerateAccuracyMeters is the upper bound of the moderate band.
	ModerateAccuracyMeters = 500.0
	// CacheableAccuracyMeters is the loosest accuracy a cached fix may have.
	CacheableAccuracyMeters = 50.0
)

func (b Band) String() string {
	switch b {
	case BandGood:
		return "good"
	case BandModerate:
		return "moderate"
	case BandPoor:
		return "poor"
	}
	return "unknown"
}

// Classify places an accuracy radius into its band.
func Classify(accuracyMeters float64) Band {
	switch {
	case accuracyMeters <= GoodAccuracyMeters:
		return BandGood
	case accuracyMeters <= ModerateAccuracyMeters:
		return BandModerate
	default:
		return BandPoor
	}
}

// RadiusPresets are the selectable search radii in kilometres.
var RadiusPresets = []float64{0.2, 0.5, 1, 2}

// DefaultRadius is used when nothing valid has been persisted.
const DefaultRadius = 0.5

// IsRadiusPreset reports whether r is one of RadiusPresets.
func IsRadiusPreset(r float64) bool {
	return slices.Contains(RadiusPresets, r)
}
