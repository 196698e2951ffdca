package catalog

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
)

func TestCategories_Split(t *testing.T) {
	cats := NewCategories([]Category{
		{ID: "hair", Label: "Hair", Popular: true},
		{ID: "waxing", Label: "Waxing"},
		{ID: "nails", Label: "Nails", Popular: true},
	})

	popular, rest := cats.Split()
	assert.Equal(t, []string{"hair", "nails"}, ids(popular))
	assert.Equal(t, []string{"waxing"}, ids(rest))

	got, ok := cats.Lookup("HAIR")
	require.True(t, ok)
	assert.Equal(t, "Hair", got.Label)
}

func ids(cats []Category) []string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.ID)
	}
	return out
}

func TestClient_ServicesCached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/services", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"s1","name":"Haircut","category":"hair","description":"Wash and cut","priceInPaisa":50000,"durationMinutes":45}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithServicesTTL(time.Minute))
	for i := 0; i < 3; i++ {
		services, err := c.Services(context.Background())
		require.NoError(t, err)
		require.Len(t, services, 1)
		assert.Equal(t, "Haircut", services[0].Name)
		assert.Equal(t, int64(50000), services[0].PriceInPaisa)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_SearchSalons(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/salons", r.URL.Path)
		assert.Equal(t, "hair", r.URL.Query().Get("service"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"results":[
			{"id":"a","name":"Hair Studio"},{"id":"b","name":"Glow"},
			{"id":"c","name":"Cuts"},{"id":"d","name":"Extra"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	salons, err := c.SearchSalons(context.Background(), "hair", 3)

	require.NoError(t, err)
	assert.Len(t, salons, 3)
	assert.Equal(t, "Hair Studio", salons[0].Name)
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(retry.Config{MaxAttempts: 1}))
	_, err := c.SearchSalons(context.Background(), "hair", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
