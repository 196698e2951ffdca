package prefs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nearby/internal/keys"
	"nearby/internal/storage"
	"nearby/models"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newStore(c *clock) *Store {
	return New(storage.NewMemoryStore(), "alice", WithClock(c.now))
}

func TestCachedLocation_ReuseRule(t *testing.T) {
	base := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		age      time.Duration
		accuracy float64
		want     bool
	}{
		{"fresh and precise", 4 * time.Minute, 40, true},
		{"accuracy boundary", time.Minute, 50, true},
		{"too old", 6 * time.Minute, 10, false},
		{"age boundary", 5 * time.Minute, 10, false},
		{"too coarse", 2 * time.Minute, 60, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &clock{t: base}
			store := newStore(c)
			ctx := context.Background()

			fix := models.LocationFix{
				Coordinate:     models.Coordinate{Lat: 12.9, Lng: 77.6},
				AccuracyMeters: tt.accuracy,
				Source:         models.SourceGPS,
			}
			require.NoError(t, store.CacheLocation(ctx, fix, "MG Road"))

			c.t = base.Add(tt.age)
			got, ok := store.CachedLocation(ctx)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, "MG Road", got.Address)
				assert.Equal(t, fix.Coordinate, got.Coordinate)
				assert.Equal(t, models.SourceCache, got.Fix().Source)
			} else {
				assert.Equal(t, models.CachedLocation{}, got)
			}
		})
	}
}

func TestCacheLocation_Overwrites(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
	store := newStore(c)
	ctx := context.Background()

	first := models.LocationFix{Coordinate: models.Coordinate{Lat: 1, Lng: 1}, AccuracyMeters: 5}
	second := models.LocationFix{Coordinate: models.Coordinate{Lat: 2, Lng: 2}, AccuracyMeters: 30}
	require.NoError(t, store.CacheLocation(ctx, first, "first"))
	c.t = c.t.Add(time.Minute)
	require.NoError(t, store.CacheLocation(ctx, second, "second"))

	got, ok := store.CachedLocation(ctx)
	require.True(t, ok)
	assert.Equal(t, "second", got.Address)
	assert.True(t, c.t.Equal(got.Timestamp))
}

func TestCachedLocation_CorruptEntry(t *testing.T) {
	backend := storage.NewMemoryStore()
	require.NoError(t, backend.Set(context.Background(), keys.Scoped("alice", keys.CachedLocation), "{not json"))

	store := New(backend, "alice")
	_, ok := store.CachedLocation(context.Background())
	assert.False(t, ok)
}

func TestRadius(t *testing.T) {
	ctx := context.Background()
	store := newStore(&clock{t: time.Now()})

	assert.Equal(t, 0.5, store.Radius(ctx))

	require.NoError(t, store.SetRadius(ctx, 2))
	assert.Equal(t, 2.0, store.Radius(ctx))

	err := store.SetRadius(ctx, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRadius)
	assert.Equal(t, 2.0, store.Radius(ctx))
}

func TestRadius_InvalidStoredValue(t *testing.T) {
	backend := storage.NewMemoryStore()
	require.NoError(t, backend.Set(context.Background(), keys.Scoped("alice", keys.Radius), "7"))

	store := New(backend, "alice")
	assert.Equal(t, 0.5, store.Radius(context.Background()))
}

func TestPermissionGranted(t *testing.T) {
	ctx := context.Background()
	store := newStore(&clock{t: time.Now()})

	assert.False(t, store.PermissionGranted(ctx))
	require.NoError(t, store.SetPermissionGranted(ctx, true))
	assert.True(t, store.PermissionGranted(ctx))
	require.NoError(t, store.SetPermissionGranted(ctx, false))
	assert.False(t, store.PermissionGranted(ctx))
}

func TestSaveLocation_ReplacesLabel(t *testing.T) {
	ctx := context.Background()
	store := newStore(&clock{t: time.Now()})

	_, err := store.SaveLocation(ctx, "home", "Old Street", models.Coordinate{Lat: 1, Lng: 1})
	require.NoError(t, err)
	_, err = store.SaveLocation(ctx, "work", "Office Park", models.Coordinate{Lat: 2, Lng: 2})
	require.NoError(t, err)
	home, err := store.SaveLocation(ctx, "home", "New Street", models.Coordinate{Lat: 3, Lng: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, home.ID)

	saved, err := store.SavedLocations(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "work", saved[0].Label)
	assert.Equal(t, "New Street", saved[1].Address)
}

type failingStore struct{ mock.Mock }

func (f *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := f.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	return f.Called(ctx, key, value).Error(0)
}

func TestBackendErrorsDegradeToDefaults(t *testing.T) {
	backend := &failingStore{}
	backend.On("Get", mock.Anything, mock.Anything).Return("", false, assert.AnError)

	store := New(backend, "alice")
	ctx := context.Background()

	assert.Equal(t, 0.5, store.Radius(ctx))
	assert.False(t, store.PermissionGranted(ctx))
	_, ok := store.CachedLocation(ctx)
	assert.False(t, ok)
	_, err := store.SavedLocations(ctx)
	assert.Error(t, err)
	backend.AssertExpectations(t)
}
