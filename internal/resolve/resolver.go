// Package resolve turns an accepted fix into a display address, then
// caches it and triggers the proximity search.
package resolve

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"nearby/internal/enrich"
	"nearby/models"
	"nearby/pkg/location"
)

// Cache persists the resolved location.
type Cache interface {
	CacheLocation(ctx context.Context, fix models.LocationFix, address string) error
}

// SearchFunc starts a proximity search around the resolved fix.
type SearchFunc func(ctx context.Context, r Resolution) error

// Resolution is the outcome of one Resolve call.
type Resolution struct {
	Fix     models.LocationFix
	Address string
	// Fallback is set when the address was synthesized from the accuracy.
	Fallback bool
}

type Resolver struct {
	geocoder location.Geocoder
	after    *enrich.Pipeline[Resolution]
}

// New builds a Resolver. Caching and searching run concurrently once the
// address is known, whichever branch produced it.
func New(geocoder location.Geocoder, cache Cache, search SearchFunc) *Resolver {
	persist := enrich.NewStep("cache-location", func(ctx context.Context, r *Resolution) error {
		return cache.CacheLocation(ctx, r.Fix, r.Address)
	})
	emit := enrich.NewStep("search", func(ctx context.Context, r *Resolution) error {
		return search(ctx, *r)
	})
	return &Resolver{
		geocoder: geocoder,
		after:    enrich.NewPipeline("resolve", enrich.NewStage(persist, emit)),
	}
}

// Resolve always yields an address. Geocoding failures fall back to a
// synthesized label and never block the search. A ctx cancelled while
// geocoding skips caching and searching.
func (r *Resolver) Resolve(ctx context.Context, fix models.LocationFix) string {
	address, ok := r.Address(ctx, fix)
	res := Resolution{Fix: fix, Address: address, Fallback: !ok}
	if ctx.Err() != nil {
		zap.L().Debug("resolve cancelled, skipping cache and search")
		return res.Address
	}
	r.after.Run(ctx, &res)
	return res.Address
}

// Address reverse geocodes fix without side effects. ok is false when the
// fallback label was used.
func (r *Resolver) Address(ctx context.Context, fix models.LocationFix) (address string, ok bool) {
	address, err := r.geocoder.Reverse(ctx, fix.Coordinate)
	switch {
	case err == nil && strings.TrimSpace(address) != "":
		return address, true
	case err == nil:
		zap.L().Debug("reverse geocode returned an empty address")
	case eris.Is(err, location.ErrServiceUnavailable):
		zap.L().Info("reverse geocoding unavailable, using fallback label")
	default:
		zap.L().Warn("reverse geocoding failed", zap.Error(err))
	}
	return Fallback(fix.AccuracyMeters), false
}

// Fallback is the label used when no address could be resolved.
func Fallback(accuracyMeters float64) string {
	return fmt.Sprintf("Current Location (±%dm)", int(math.Round(accuracyMeters)))
}
