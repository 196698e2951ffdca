package keys

import "testing"

func TestScoped(t *testing.T) {
	cases := []struct {
		name     string
		profile  string
		key      string
		expected string
	}{
		{"plain profile", "alice", Radius, "alice/search_radius"},
		{"spaces and case", " Front Desk ", CachedLocation, "front-desk/cached_location"},
		{"empty profile", "", PermissionGranted, "default/location_permission_granted"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Scoped(tc.profile, tc.key); got != tc.expected {
				t.Fatalf("Scoped(%q, %q) = %q; want %q", tc.profile, tc.key, got, tc.expected)
			}
		})
	}
}

func TestObject(t *testing.T) {
	if got := Object("alice/search_radius"); got != "preferences/alice/search_radius.json" {
		t.Fatalf("Object() = %q", got)
	}
}
