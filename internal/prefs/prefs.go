// Package prefs is the typed front of every persisted setting: the search
// radius, the location-permission flag, saved addresses and the last
// known location fix.
package prefs

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"nearby/internal/keys"
	"nearby/internal/storage"
	"nearby/models"
	"nearby/pkg/geo"
)

// MaxCacheAge bounds how old a cached fix may be and still be reused.
const MaxCacheAge = 5 * time.Minute

var ErrInvalidRadius = eris.New("prefs: radius is not a preset")

// Store reads and writes preferences for one profile.
type Store struct {
	backend storage.Store
	profile string
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(backend storage.Store, profile string, opts ...Option) *Store {
	s := &Store{backend: backend, profile: profile, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(name string) string {
	return keys.Scoped(s.profile, name)
}

// Radius returns the persisted search radius, or the default when nothing
// valid is stored.
func (s *Store) Radius(ctx context.Context) float64 {
	raw, ok, err := s.backend.Get(ctx, s.key(keys.Radius))
	if err != nil {
		zap.L().Warn("read search radius", zap.Error(err))
		return geo.DefaultRadius
	}
	if !ok {
		return geo.DefaultRadius
	}
	r, err := strconv.ParseFloat(raw, 64)
	if err != nil || !geo.IsRadiusPreset(r) {
		return geo.DefaultRadius
	}
	return r
}

// SetRadius persists r, which must be one of geo.RadiusPresets.
func (s *Store) SetRadius(ctx context.Context, r float64) error {
	if !geo.IsRadiusPreset(r) {
		return eris.Wrapf(ErrInvalidRadius, "radius %v", r)
	}
	return s.backend.Set(ctx, s.key(keys.Radius), strconv.FormatFloat(r, 'f', -1, 64))
}

// PermissionGranted reports whether location permission was granted before.
func (s *Store) PermissionGranted(ctx context.Context) bool {
	raw, ok, err := s.backend.Get(ctx, s.key(keys.PermissionGranted))
	if err != nil {
		zap.L().Warn("read permission flag", zap.Error(err))
		return false
	}
	return ok && raw == "true"
}

func (s *Store) SetPermissionGranted(ctx context.Context, granted bool) error {
	return s.backend.Set(ctx, s.key(keys.PermissionGranted), strconv.FormatBool(granted))
}

// CachedLocation returns the last fix only while it is younger than
// MaxCacheAge and at least as precise as geo.CacheableAccuracyMeters.
// Anything else, including unreadable entries, is reported as absent.
func (s *Store) CachedLocation(ctx context.Context) (models.CachedLocation, bool) {
	raw, ok, err := s.backend.Get(ctx, s.key(keys.CachedLocation))
	if err != nil {
		zap.L().Warn("read cached location", zap.Error(err))
		return models.CachedLocation{}, false
	}
	if !ok {
		return models.CachedLocation{}, false
	}

	var cached models.CachedLocation
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		zap.L().Warn("decode cached location", zap.Error(err))
		return models.CachedLocation{}, false
	}
	if !Usable(cached, s.now()) {
		return models.CachedLocation{}, false
	}
	return cached, true
}

// Usable applies the reuse rule for a cached fix.
func Usable(c models.CachedLocation, now time.Time) bool {
	return now.Sub(c.Timestamp) < MaxCacheAge && c.AccuracyMeters <= geo.CacheableAccuracyMeters
}

// CacheLocation overwrites the cached fix, stamped with the current time.
func (s *Store) CacheLocation(ctx context.Context, fix models.LocationFix, address string) error {
	cached := models.CachedLocation{
		Address:        address,
		Coordinate:     fix.Coordinate,
		AccuracyMeters: fix.AccuracyMeters,
		Timestamp:      s.now(),
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return eris.Wrap(err, "prefs: encode cached location")
	}
	return s.backend.Set(ctx, s.key(keys.CachedLocation), string(data))
}

// SavedLocations lists the user's labelled addresses.
func (s *Store) SavedLocations(ctx context.Context) ([]models.SavedLocation, error) {
	raw, ok, err := s.backend.Get(ctx, s.key(keys.SavedLocations))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var saved []models.SavedLocation
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		return nil, eris.Wrap(err, "prefs: decode saved locations")
	}
	return saved, nil
}

// SaveLocation stores an address under label, replacing any entry with the
// same label.
func (s *Store) SaveLocation(ctx context.Context, label, address string, coord models.Coordinate) (models.SavedLocation, error) {
	saved, err := s.SavedLocations(ctx)
	if err != nil {
		return models.SavedLocation{}, err
	}

	entry := models.SavedLocation{
		ID:         uuid.NewString(),
		Label:      label,
		Address:    address,
		Coordinate: coord,
		CreatedAt:  s.now(),
	}
	out := make([]models.SavedLocation, 0, len(saved)+1)
	for _, l := range saved {
		if l.Label != label {
			out = append(out, l)
		}
	}
	out = append(out, entry)

	data, err := json.Marshal(out)
	if err != nil {
		return models.SavedLocation{}, eris.Wrap(err, "prefs: encode saved locations")
	}
	if err := s.backend.Set(ctx, s.key(keys.SavedLocations), string(data)); err != nil {
		return models.SavedLocation{}, err
	}
	return entry, nil
}
