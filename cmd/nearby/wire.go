package main

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"nearby/internal/acquire"
	"nearby/internal/env"
	"nearby/internal/prefs"
	"nearby/internal/session"
	"nearby/internal/storage"
	"nearby/models"
	"nearby/pkg/catalog"
	"nearby/pkg/device"
	"nearby/pkg/kafkaclient"
	"nearby/pkg/location"
)

// app holds the components built from the configuration.
type app struct {
	prefs      *prefs.Store
	geocoder   location.Geocoder
	categories *catalog.Categories
	catalog    *catalog.Client
	positioner device.Positioner
	emitter    session.Emitter
	closers    []func() error
}

func buildApp(ctx context.Context, c *env.Config) (*app, error) {
	a := &app{categories: catalog.NewCategories(catalog.DefaultCategories)}

	backend, err := a.store(ctx, c)
	if err != nil {
		a.close()
		return nil, err
	}
	a.prefs = prefs.New(backend, c.Profile)

	switch c.Geocoder {
	case "api":
		a.geocoder = location.NewClient(c.APIBaseURL)
	default:
		a.geocoder = location.NewNominatim(
			location.WithNominatimURL(c.NominatimURL),
			location.WithLanguage(c.Language),
		)
	}

	if c.APIBaseURL != "" {
		a.catalog = catalog.NewClient(c.APIBaseURL)
	}

	switch c.Positioner {
	case "google":
		g, err := device.NewGoogleGeolocation(c.GoogleAPIKey)
		if err != nil {
			a.close()
			return nil, err
		}
		a.positioner = g
		a.closers = append(a.closers, g.Close)
	case "static":
		a.positioner = device.Static{Reading: device.Reading{Lat: c.StaticLat, Lng: c.StaticLng, AccuracyMeters: c.StaticAccuracyM}}
	default:
		a.positioner = device.Unsupported{}
	}

	if c.HasKafka() {
		p := kafkaclient.NewProducer(c.KafkaBroker, c.KafkaTopic)
		a.emitter = p
		a.closers = append(a.closers, p.Close)
	} else {
		a.emitter = session.EmitterFunc(logSearch)
	}
	return a, nil
}

func (a *app) store(ctx context.Context, c *env.Config) (storage.Store, error) {
	switch c.Store {
	case "postgres":
		pool, store, err := storage.ConnectPostgres(ctx, c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		return store, nil
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Options{
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			UseSSL:    c.S3UseSSL,
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
		})
	default:
		return storage.NewMemoryStore(), nil
	}
}

// source returns the suggestion catalog, or an empty one when no backend
// is configured.
func (a *app) source() catalogSource {
	if a.catalog == nil {
		return offlineCatalog{}
	}
	return a.catalog
}

func (a *app) acquirer() *acquire.Acquirer {
	return acquire.New(a.positioner)
}

func (a *app) close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	if err := errors.Join(errs...); err != nil {
		zap.L().Warn("shutdown", zap.Error(err))
	}
}

type catalogSource interface {
	Services(ctx context.Context) ([]catalog.Service, error)
	SearchSalons(ctx context.Context, service string, limit int) ([]catalog.Salon, error)
}

// offlineCatalog ranks categories only.
type offlineCatalog struct{}

func (offlineCatalog) Services(context.Context) ([]catalog.Service, error) { return nil, nil }

func (offlineCatalog) SearchSalons(context.Context, string, int) ([]catalog.Salon, error) {
	return nil, nil
}

func logSearch(_ context.Context, ev models.SearchEvent) error {
	params, err := json.Marshal(ev.Params)
	if err != nil {
		return err
	}
	zap.L().Info("search",
		zap.String("id", ev.ID),
		zap.String("trigger", ev.Trigger),
		zap.ByteString("params", params))
	return nil
}
