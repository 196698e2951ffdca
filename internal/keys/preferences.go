package keys

import (
	"fmt"
	"strings"
)

// Names of the persisted preference entries.
const (
	Radius            = "search_radius"
	CachedLocation    = "cached_location"
	PermissionGranted = "location_permission_granted"
	SavedLocations    = "saved_locations"
)

// sanitizeKey replaces spaces with hyphens and lowercases the string.
func sanitizeKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}

// Scoped namespaces a preference name under a profile, so several devices
// or users can share one backing store.
func Scoped(profile, name string) string {
	profile = sanitizeKey(profile)
	if profile == "" {
		profile = "default"
	}
	return profile + "/" + name
}

// Object returns the object-storage key holding a scoped preference.
func Object(key string) string {
	return fmt.Sprintf("preferences/%s.json", key)
}
