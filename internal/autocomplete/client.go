// Package autocomplete drives the location field: saved places on focus,
// debounced forward geocoding while typing.
package autocomplete

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"nearby/internal/debounce"
	"nearby/models"
	"nearby/pkg/geo"
	"nearby/pkg/location"
)

// Limit is the number of places requested per lookup.
const Limit = 5

// UnavailableID identifies the single row shown when lookups fail.
const UnavailableID = "location_unavailable"

// SavedLabels are the saved-location slots offered on focus.
var SavedLabels = []string{"home", "work"}

// Prefs is the part of the preference store the panel reads.
type Prefs interface {
	PermissionGranted(ctx context.Context) bool
	SavedLocations(ctx context.Context) ([]models.SavedLocation, error)
}

// Update is one published location list.
type Update struct {
	Seq         uint64
	Query       string
	Suggestions []models.Suggestion
}

// Client debounces location input and publishes place suggestions.
type Client struct {
	geocoder  location.Geocoder
	prefs     Prefs
	publish   func(Update)
	debouncer *debounce.Debouncer
	timeout   time.Duration
	near      func() *models.Coordinate

	pubMu    sync.Mutex
	mu       sync.Mutex
	inflight struct {
		seq    uint64
		cancel context.CancelFunc
	}
}

type Option func(*Client)

// WithDelay overrides the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(c *Client) { c.debouncer = debounce.New(d) }
}

// WithTimeout bounds each lookup.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithBias supplies the coordinate lookups are biased towards. It is read
// when the lookup fires, not when the key is pressed.
func WithBias(near func() *models.Coordinate) Option {
	return func(c *Client) { c.near = near }
}

func New(geocoder location.Geocoder, prefs Prefs, publish func(Update), opts ...Option) *Client {
	c := &Client{
		geocoder:  geocoder,
		prefs:     prefs,
		publish:   publish,
		debouncer: debounce.New(debounce.DefaultDelay),
		timeout:   5 * time.Second,
		near:      func() *models.Coordinate { return nil },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Focus publishes the list shown for an empty field.
func (c *Client) Focus(ctx context.Context) {
	list := c.EmptyList(ctx)

	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	seq := c.debouncer.Invalidate()
	c.cancelBefore(seq)
	c.publish(Update{Seq: seq, Suggestions: list})
}

// Input handles a keystroke in the location field.
func (c *Client) Input(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		c.Focus(ctx)
		return
	}
	seq := c.debouncer.Schedule(func(seq uint64) {
		c.run(seq, text)
	})
	c.cancelBefore(seq)
}

// Dismiss drops pending lookups.
func (c *Client) Dismiss() {
	c.cancelBefore(c.debouncer.Invalidate())
}

func (c *Client) Close() {
	c.debouncer.Close()
	c.cancelBefore(^uint64(0))
}

func (c *Client) run(seq uint64, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	c.mu.Lock()
	if seq > c.inflight.seq {
		c.inflight.seq, c.inflight.cancel = seq, cancel
	}
	c.mu.Unlock()

	list := c.Lookup(ctx, text, c.near())

	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if !c.debouncer.Current(seq) {
		zap.L().Debug("dropping stale places", zap.String("query", text), zap.Uint64("seq", seq))
		return
	}
	c.publish(Update{Seq: seq, Query: text, Suggestions: list})
}

func (c *Client) cancelBefore(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight.cancel != nil && c.inflight.seq < seq {
		c.inflight.cancel()
		c.inflight.cancel = nil
	}
}

// EmptyList builds the focus list: current location when permission was
// granted before, then saved places, then prompts for missing slots.
func (c *Client) EmptyList(ctx context.Context) []models.Suggestion {
	var out []models.Suggestion
	if c.prefs.PermissionGranted(ctx) {
		out = append(out, models.Suggestion{
			Type:  models.SuggestionCurrent,
			ID:    "current",
			Title: "Use current location",
		})
	}

	saved, err := c.prefs.SavedLocations(ctx)
	if err != nil {
		zap.L().Warn("saved locations unavailable", zap.Error(err))
	}
	have := make(map[string]bool, len(saved))
	for _, s := range saved {
		have[s.Label] = true
		out = append(out, models.Suggestion{
			Type:     models.SuggestionSaved,
			ID:       s.ID,
			Title:    titleCase(s.Label),
			Subtitle: s.Address,
			Payload:  s,
		})
	}
	for _, label := range SavedLabels {
		if have[label] {
			continue
		}
		out = append(out, models.Suggestion{
			Type:    models.SuggestionAddSaved,
			ID:      "add-" + label,
			Title:   "Add " + label,
			Payload: label,
		})
	}
	return out
}

// Lookup geocodes text without debouncing. Any failure yields the single
// unavailable row.
func (c *Client) Lookup(ctx context.Context, text string, near *models.Coordinate) []models.Suggestion {
	q := strings.TrimSpace(text)
	if q == "" {
		return c.EmptyList(ctx)
	}
	places, err := c.geocoder.Autocomplete(ctx, q, Limit, near)
	if err != nil {
		if eris.Is(err, location.ErrServiceUnavailable) {
			zap.L().Warn("geocoder unavailable", zap.String("query", q))
		} else {
			zap.L().Warn("place lookup failed", zap.String("query", q), zap.Error(err))
		}
		return []models.Suggestion{Unavailable()}
	}

	out := make([]models.Suggestion, 0, len(places))
	for _, p := range places {
		if len(out) == Limit {
			break
		}
		out = append(out, models.Suggestion{
			Type:     models.SuggestionLocation,
			ID:       p.ID,
			Title:    p.Title,
			Subtitle: withDistance(p, near),
			Payload:  p,
		})
	}
	return out
}

// Unavailable is the row shown instead of results when lookups fail.
func Unavailable() models.Suggestion {
	return models.Suggestion{
		Type:     models.SuggestionError,
		ID:       UnavailableID,
		Title:    "Location search is unavailable",
		Subtitle: "Type an area name and search, or try again shortly",
	}
}

// withDistance appends how far the place is from near, when known.
func withDistance(p location.Place, near *models.Coordinate) string {
	if near == nil {
		return p.Subtitle
	}
	d := fmt.Sprintf("%.1f km", geo.DistanceKm(*near, p.Coordinate()))
	if p.Subtitle == "" {
		return d
	}
	return p.Subtitle + " · " + d
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
