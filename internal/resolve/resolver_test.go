package resolve

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearby/models"
	"nearby/pkg/location"
)

type stubGeocoder struct {
	address string
	err     error
}

func (s stubGeocoder) Reverse(context.Context, models.Coordinate) (string, error) {
	return s.address, s.err
}

func (stubGeocoder) Autocomplete(context.Context, string, int, *models.Coordinate) ([]location.Place, error) {
	return nil, nil
}

type sink struct {
	mu       sync.Mutex
	cached   []string
	searched []Resolution
	cacheErr error
}

func (s *sink) CacheLocation(_ context.Context, _ models.LocationFix, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = append(s.cached, address)
	return s.cacheErr
}

func (s *sink) search(_ context.Context, r Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searched = append(s.searched, r)
	return nil
}

var fix = models.LocationFix{
	Coordinate:     models.Coordinate{Lat: 12.9716, Lng: 77.5946},
	AccuracyMeters: 42.4,
	Timestamp:      time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	Source:         models.SourceGPS,
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		geocoder     stubGeocoder
		want         string
		wantFallback bool
	}{
		{"address found", stubGeocoder{address: "MG Road, Bengaluru"}, "MG Road, Bengaluru", false},
		{"service unavailable", stubGeocoder{err: eris.Wrap(location.ErrServiceUnavailable, "reverse")}, "Current Location (±42m)", true},
		{"other failure", stubGeocoder{err: errors.New("boom")}, "Current Location (±42m)", true},
		{"blank address", stubGeocoder{address: "  "}, "Current Location (±42m)", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &sink{}
			got := New(tt.geocoder, s, s.search).Resolve(context.Background(), fix)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{tt.want}, s.cached)
			require.Len(t, s.searched, 1)
			assert.Equal(t, fix.Coordinate, s.searched[0].Fix.Coordinate)
			assert.Equal(t, tt.wantFallback, s.searched[0].Fallback)
		})
	}
}

func TestResolve_CacheFailureStillSearches(t *testing.T) {
	s := &sink{cacheErr: errors.New("disk full")}
	got := New(stubGeocoder{address: "HSR Layout"}, s, s.search).Resolve(context.Background(), fix)

	assert.Equal(t, "HSR Layout", got)
	assert.Len(t, s.searched, 1)
}

type cancellingGeocoder struct {
	cancel context.CancelFunc
}

func (g cancellingGeocoder) Reverse(context.Context, models.Coordinate) (string, error) {
	g.cancel()
	return "MG Road, Bengaluru", nil
}

func (cancellingGeocoder) Autocomplete(context.Context, string, int, *models.Coordinate) ([]location.Place, error) {
	return nil, nil
}

func TestResolve_CancelledDuringGeocodeSkipsSideEffects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := &sink{}

	got := New(cancellingGeocoder{cancel: cancel}, s, s.search).Resolve(ctx, fix)

	assert.Equal(t, "MG Road, Bengaluru", got)
	assert.Empty(t, s.cached)
	assert.Empty(t, s.searched)
}

func TestAddress_NoSideEffects(t *testing.T) {
	s := &sink{}
	address, ok := New(stubGeocoder{address: "Koramangala"}, s, s.search).Address(context.Background(), fix)

	assert.True(t, ok)
	assert.Equal(t, "Koramangala", address)
	assert.Empty(t, s.cached)
	assert.Empty(t, s.searched)
}

func TestFallback_Rounds(t *testing.T) {
	assert.Equal(t, "Current Location (±13m)", Fallback(12.5))
	assert.Equal(t, "Current Location (±0m)", Fallback(0))
}
