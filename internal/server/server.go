// Package server exposes suggestion ranking, place lookup, reverse
// geocoding and search building over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"nearby/internal/query"
	"nearby/internal/session"
	"nearby/models"
	"nearby/pkg/geo"
)

const maxBodyBytes = 64 << 10

// Suggester ranks query suggestions. *suggest.Aggregator implements it.
type Suggester interface {
	Rank(ctx context.Context, text string) []models.Suggestion
}

// Places looks up location suggestions. *autocomplete.Client implements it.
type Places interface {
	Lookup(ctx context.Context, text string, near *models.Coordinate) []models.Suggestion
}

// Addresses reverse geocodes. *resolve.Resolver implements it.
type Addresses interface {
	Address(ctx context.Context, fix models.LocationFix) (string, bool)
}

type Config struct {
	Suggester Suggester
	Places    Places
	Addresses Addresses
	Emitter   session.Emitter
	Profile   string
	Now       func() time.Time
}

type handler struct {
	cfg Config
}

func NewRouter(cfg Config) http.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	h := &handler{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog)
	r.Use(middleware.RequestSize(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/suggestions", h.suggestions)
	r.Get("/locations", h.locations)
	r.Get("/reverse", h.reverse)
	r.Get("/radius", h.radius)
	r.Post("/search", h.search)
	return r
}

func (h *handler) suggestions(w http.ResponseWriter, r *http.Request) {
	success(w, http.StatusOK, h.cfg.Suggester.Rank(r.Context(), r.URL.Query().Get("q")))
}

func (h *handler) locations(w http.ResponseWriter, r *http.Request) {
	var near *models.Coordinate
	if r.URL.Query().Has("lat") || r.URL.Query().Has("lng") {
		c, err := parseCoordinate(r)
		if err != nil {
			failure(w, http.StatusBadRequest, err.Error())
			return
		}
		near = &c
	}
	success(w, http.StatusOK, h.cfg.Places.Lookup(r.Context(), r.URL.Query().Get("q"), near))
}

type reverseResponse struct {
	Address  string `json:"address"`
	Fallback bool   `json:"fallback"`
}

func (h *handler) reverse(w http.ResponseWriter, r *http.Request) {
	c, err := parseCoordinate(r)
	if err != nil {
		failure(w, http.StatusBadRequest, err.Error())
		return
	}
	accuracy := 0.0
	if raw := r.URL.Query().Get("accuracy"); raw != "" {
		accuracy, err = strconv.ParseFloat(raw, 64)
		if err != nil || accuracy < 0 {
			failure(w, http.StatusBadRequest, "accuracy must be a non-negative number")
			return
		}
	}

	fix := models.LocationFix{Coordinate: c, AccuracyMeters: accuracy, Timestamp: h.cfg.Now(), Source: models.SourceManual}
	address, ok := h.cfg.Addresses.Address(r.Context(), fix)
	success(w, http.StatusOK, reverseResponse{Address: address, Fallback: !ok})
}

type radiusResponse struct {
	Presets []float64 `json:"presets"`
	Default float64   `json:"default"`
}

func (h *handler) radius(w http.ResponseWriter, r *http.Request) {
	success(w, http.StatusOK, radiusResponse{Presets: geo.RadiusPresets, Default: geo.DefaultRadius})
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	var state query.State
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		failure(w, http.StatusBadRequest, "invalid search state")
		return
	}
	if state.Coordinate != nil && !geo.Valid(*state.Coordinate) {
		failure(w, http.StatusBadRequest, "coordinate out of range")
		return
	}

	params := query.Build(state)
	ev := models.SearchEvent{
		ID:        uuid.NewString(),
		Profile:   h.cfg.Profile,
		Trigger:   "api",
		Params:    params,
		CreatedAt: h.cfg.Now(),
	}
	if h.cfg.Emitter != nil {
		if err := h.cfg.Emitter.Emit(r.Context(), ev); err != nil {
			zap.L().Error("emit search", zap.String("id", ev.ID), zap.Error(err))
			failure(w, http.StatusBadGateway, "search could not be published")
			return
		}
	}
	success(w, http.StatusOK, params)
}

type coordinateError string

func (e coordinateError) Error() string { return string(e) }

func parseCoordinate(r *http.Request) (models.Coordinate, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.URL.Query().Get("lat")), 64)
	if err != nil {
		return models.Coordinate{}, coordinateError("lat must be a number")
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(r.URL.Query().Get("lng")), 64)
	if err != nil {
		return models.Coordinate{}, coordinateError("lng must be a number")
	}
	c := models.Coordinate{Lat: lat, Lng: lng}
	if !geo.Valid(c) {
		return models.Coordinate{}, coordinateError("coordinate out of range")
	}
	return c, nil
}
