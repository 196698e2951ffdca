// Command searchlog consumes search events from Kafka and logs a summary
// of each one.
package main

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"

	"nearby/internal/enrich"
	"nearby/internal/env"
	"nearby/internal/service"
	"nearby/models"
	"nearby/pkg/graceful"
	"nearby/pkg/kafkaclient"
)

func main() {
	cfg, err := env.Load()
	if err != nil {
		zap.L().Fatal("load config", zap.Error(err))
	}
	logger, err := env.Logger(cfg)
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.HasKafka() {
		logger.Fatal("NEARBY_KAFKA_BROKER is not set")
	}

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	logger.Info("connecting to kafka",
		zap.String("broker", cfg.KafkaBroker),
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group", cfg.KafkaGroupID))

	consumer := kafkaclient.NewConsumer(cfg.KafkaBroker, cfg.KafkaTopic, cfg.KafkaGroupID)
	consumer.Start(ctx)

	var t tally
	pipeline := newPipeline(logger, &t)

	events := service.NewIterator(consumer, service.JSON[models.SearchEvent])
	pipeline.Process(ctx, events.Objects(ctx))

	consumer.Stop()
	logger.Info("search log stopped", zap.Any("by_trigger", t.snapshot()))
}

// newPipeline logs every decoded event and counts it per trigger.
func newPipeline(logger *zap.Logger, t *tally) *enrich.Pipeline[service.Decoded[models.SearchEvent]] {
	return enrich.NewPipeline("searchlog", enrich.NewStage(
		enrich.NewStep("log", func(_ context.Context, ev *service.Decoded[models.SearchEvent]) error {
			logEvent(logger, ev.Data)
			return nil
		}),
		enrich.NewStep("tally", func(_ context.Context, ev *service.Decoded[models.SearchEvent]) error {
			t.add(ev.Data.Trigger)
			return nil
		}),
	))
}

// tally counts consumed events per trigger.
type tally struct {
	mu     sync.Mutex
	counts map[string]int
}

func (t *tally) add(trigger string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	t.counts[trigger]++
}

func (t *tally) snapshot() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

func logEvent(logger *zap.Logger, ev models.SearchEvent) {
	p := ev.Params
	fields := []zap.Field{
		zap.String("id", ev.ID),
		zap.String("profile", ev.Profile),
		zap.String("trigger", ev.Trigger),
		zap.String("mode", string(p.Mode())),
		zap.String("service", p.Service),
		zap.String("sort", p.SortBy),
	}
	if p.Coordinates != nil {
		fields = append(fields,
			zap.Float64("lat", p.Coordinates.Lat),
			zap.Float64("lng", p.Coordinates.Lng))
	}
	if p.Radius != nil {
		fields = append(fields, zap.Float64("radius_km", *p.Radius))
	}
	if p.Location != "" {
		fields = append(fields, zap.String("location", p.Location))
	}
	if err := p.Validate(); err != nil {
		fields = append(fields, zap.Error(err))
		logger.Warn("invalid search event", fields...)
		return
	}
	logger.Info("search", fields...)
}
