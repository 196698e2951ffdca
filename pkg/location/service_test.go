package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearby/internal/retry"
	"nearby/models"
)

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 2, InitialBackoff: time.Millisecond}
}

func TestClient_Reverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode", r.URL.Path)
		assert.Equal(t, "12.900000", r.URL.Query().Get("lat"))
		assert.Equal(t, "77.600000", r.URL.Query().Get("lng"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"address":"100 Feet Rd, Indiranagar, Bengaluru"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	got, err := c.Reverse(context.Background(), models.Coordinate{Lat: 12.9, Lng: 77.6})

	require.NoError(t, err)
	assert.Equal(t, "100 Feet Rd, Indiranagar, Bengaluru", got)
}

func TestClient_ReverseUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	_, err := c.Reverse(context.Background(), models.Coordinate{Lat: 12.9, Lng: 77.6})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Equal(t, int32(1), calls.Load(), "503 is not retried")
}

func TestClient_RetriesBadGateway(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"address":"Koramangala"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	got, err := c.Reverse(context.Background(), models.Coordinate{Lat: 12.93, Lng: 77.62})

	require.NoError(t, err)
	assert.Equal(t, "Koramangala", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Autocomplete(t *testing.T) {
	tests := []struct {
		name    string
		near    *models.Coordinate
		wantLat string
	}{
		{"without bias", nil, ""},
		{"biased to current position", &models.Coordinate{Lat: 12.97, Lng: 77.59}, "12.970000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				assert.Equal(t, "/autocomplete", r.URL.Path)
				assert.Equal(t, "indira", q.Get("q"))
				assert.Equal(t, "5", q.Get("limit"))
				assert.Equal(t, tt.wantLat, q.Get("lat"))
				_, _ = w.Write([]byte(`{"suggestions":[{"id":"p1","title":"Indiranagar","subtitle":"Bengaluru","lat":12.97,"lng":77.64}]}`))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, WithRetry(fastRetry()))
			got, err := c.Autocomplete(context.Background(), "indira", 5, tt.near)

			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "Indiranagar", got[0].Title)
			assert.Equal(t, models.Coordinate{Lat: 12.97, Lng: 77.64}, got[0].Coordinate())
		})
	}
}

func TestClient_AutocompleteBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"suggestions":`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	_, err := c.Autocomplete(context.Background(), "x", 5, nil)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrServiceUnavailable)
}
