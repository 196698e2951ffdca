package suggest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nearby/internal/debounce"
	"nearby/models"
	"nearby/pkg/catalog"
)

// Source provides the remote catalogs. *catalog.Client implements it.
type Source interface {
	Services(ctx context.Context) ([]catalog.Service, error)
	SearchSalons(ctx context.Context, service string, limit int) ([]catalog.Salon, error)
}

// Update is one published suggestion list. Each update replaces the
// previous list entirely.
type Update struct {
	Seq         uint64
	Query       string
	Suggestions []models.Suggestion
}

// Aggregator debounces query input and publishes merged suggestions.
type Aggregator struct {
	categories *catalog.Categories
	source     Source
	publish    func(Update)
	debouncer  *debounce.Debouncer
	timeout    time.Duration

	// pubMu makes "is this still current" and "publish" one step.
	pubMu    sync.Mutex
	mu       sync.Mutex
	inflight inflightLookup
}

type inflightLookup struct {
	seq    uint64
	cancel context.CancelFunc
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithDelay overrides the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(a *Aggregator) { a.debouncer = debounce.New(d) }
}

// WithTimeout bounds each aggregated lookup.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.timeout = d }
}

func NewAggregator(categories *catalog.Categories, source Source, publish func(Update), opts ...Option) *Aggregator {
	a := &Aggregator{
		categories: categories,
		source:     source,
		publish:    publish,
		debouncer:  debounce.New(debounce.DefaultDelay),
		timeout:    5 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Focus publishes the browse list for an empty field.
func (a *Aggregator) Focus() {
	a.publishNow("")
}

// Input handles a keystroke. Empty text publishes the browse list at once;
// anything else is looked up after the debounce delay.
func (a *Aggregator) Input(text string) {
	if normalize(text) == "" {
		a.publishNow(text)
		return
	}
	seq := a.debouncer.Schedule(func(seq uint64) {
		a.run(seq, text)
	})
	a.cancelBefore(seq)
}

// Dismiss drops any pending lookup, e.g. after a selection or blur.
func (a *Aggregator) Dismiss() {
	a.cancelBefore(a.debouncer.Invalidate())
}

// Close stops pending timers and lookups.
func (a *Aggregator) Close() {
	a.debouncer.Close()
	a.cancelBefore(^uint64(0))
}

func (a *Aggregator) publishNow(text string) {
	a.pubMu.Lock()
	defer a.pubMu.Unlock()
	seq := a.debouncer.Invalidate()
	a.cancelBefore(seq)
	a.publish(Update{Seq: seq, Query: text, Suggestions: EmptyQuery(a.categories)})
}

func (a *Aggregator) run(seq uint64, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	a.mu.Lock()
	if seq > a.inflight.seq {
		a.inflight = inflightLookup{seq: seq, cancel: cancel}
	}
	a.mu.Unlock()
	defer cancel()

	suggestions := a.Rank(ctx, text)

	a.pubMu.Lock()
	defer a.pubMu.Unlock()
	if !a.debouncer.Current(seq) {
		zap.L().Debug("dropping stale suggestions", zap.String("query", text), zap.Uint64("seq", seq))
		return
	}
	a.publish(Update{Seq: seq, Query: text, Suggestions: suggestions})
}

// cancelBefore aborts the running lookup if it was issued before seq.
func (a *Aggregator) cancelBefore(seq uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inflight.cancel != nil && a.inflight.seq < seq {
		a.inflight.cancel()
		a.inflight.cancel = nil
	}
}

// Rank computes the suggestion list for text without debouncing. Remote
// failures drop the affected pass instead of failing the list.
func (a *Aggregator) Rank(ctx context.Context, text string) []models.Suggestion {
	if normalize(text) == "" {
		return EmptyQuery(a.categories)
	}

	var services []catalog.Service
	var salons []catalog.Salon

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := a.source.Services(gctx)
		if err != nil {
			zap.L().Warn("service catalog unavailable for suggestions", zap.Error(err))
			return nil
		}
		services = s
		return nil
	})
	g.Go(func() error {
		s, err := a.source.SearchSalons(gctx, normalize(text), MaxSalonSuggestions)
		if err != nil {
			zap.L().Warn("provider search unavailable for suggestions", zap.Error(err))
			return nil
		}
		salons = s
		return nil
	})
	_ = g.Wait()

	return Merge(
		CategoryPass(text, a.categories.All()),
		ServicePass(text, services),
		SalonPass(text, salons),
	)
}
