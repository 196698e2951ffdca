// Package session owns the mutable search state of one user and wires the
// location, suggestion and search components together.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"nearby/internal/acquire"
	"nearby/internal/autocomplete"
	"nearby/internal/prefs"
	"nearby/internal/query"
	"nearby/internal/resolve"
	"nearby/internal/suggest"
	"nearby/models"
	"nearby/pkg/catalog"
	"nearby/pkg/location"
)

// DefaultSettleDelay is how long Start waits before acquiring a position
// for a user who granted permission earlier.
const DefaultSettleDelay = time.Second

// Search triggers recorded on emitted events.
const (
	TriggerCache      = "cache"
	TriggerGPS        = "gps"
	TriggerLocation   = "location"
	TriggerSuggestion = "suggestion"
	TriggerRadius     = "radius"
	TriggerSort       = "sort"
	TriggerFilters    = "filters"
	TriggerManual     = "manual"
)

// Emitter receives every search the session issues.
type Emitter interface {
	Emit(ctx context.Context, ev models.SearchEvent) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, ev models.SearchEvent) error

func (f EmitterFunc) Emit(ctx context.Context, ev models.SearchEvent) error { return f(ctx, ev) }

// View is a snapshot of the session for rendering.
type View struct {
	Query             query.State
	Address           string
	ManualEntry       bool
	Acquisition       acquire.State
	Suggestions       []models.Suggestion
	Locations         []models.Suggestion
	LocationPanelOpen bool
	LastSearch        *models.SearchParams
}

// Deps are the collaborators of a Session.
type Deps struct {
	Prefs      *prefs.Store
	Acquirer   *acquire.Acquirer
	Geocoder   location.Geocoder
	Categories *catalog.Categories
	Catalog    suggest.Source
	Emitter    Emitter
}

type Session struct {
	deps     Deps
	profile  string
	settle   time.Duration
	debounce time.Duration
	now      func() time.Time
	onChange func(View)
	onSave   func(label string)

	resolver *resolve.Resolver
	agg      *suggest.Aggregator
	places   *autocomplete.Client

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	state       query.State
	address     string
	manualEntry bool
	lastCoord   *models.Coordinate
	suggestions []models.Suggestion
	locations   []models.Suggestion
	panelOpen   bool
	lastSearch  *models.SearchParams
	acqCancel   context.CancelFunc
	acqID       uint64
	settleTimer *time.Timer
	closed      bool
}

type Option func(*Session)

// WithProfile tags emitted events with the profile name.
func WithProfile(p string) Option {
	return func(s *Session) { s.profile = p }
}

// WithSettleDelay overrides DefaultSettleDelay.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Session) { s.settle = d }
}

// WithDebounce overrides the keystroke debounce of both panels.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounce = d }
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithListener is called with a fresh View after every change. It must not
// call back into the session synchronously.
func WithListener(fn func(View)) Option {
	return func(s *Session) { s.onChange = fn }
}

// WithSaveHook handles "add home/work" selections.
func WithSaveHook(fn func(label string)) Option {
	return func(s *Session) { s.onSave = fn }
}

func New(deps Deps, opts ...Option) *Session {
	s := &Session{
		deps:    deps,
		profile: "default",
		settle:  DefaultSettleDelay,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.state.Radius = deps.Prefs.Radius(s.ctx)

	s.resolver = resolve.New(deps.Geocoder, deps.Prefs, func(ctx context.Context, r resolve.Resolution) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		coord := r.Fix.Coordinate
		_, err := s.searchWith(ctx, TriggerGPS, func(st *query.State) {
			st.Coordinate = &coord
			st.LocationText = r.Address
		})
		return err
	})

	var aggOpts []suggest.Option
	placeOpts := []autocomplete.Option{autocomplete.WithBias(s.bias)}
	if s.debounce > 0 {
		aggOpts = append(aggOpts, suggest.WithDelay(s.debounce))
		placeOpts = append(placeOpts, autocomplete.WithDelay(s.debounce))
	}
	s.agg = suggest.NewAggregator(deps.Categories, deps.Catalog, s.onSuggestions, aggOpts...)
	s.places = autocomplete.New(deps.Geocoder, deps.Prefs, s.onLocations, placeOpts...)
	return s
}

// Start restores the last session: a usable cached fix searches at once,
// otherwise a previously granted permission triggers acquisition after the
// settle delay. Without either the session stays idle.
func (s *Session) Start(ctx context.Context) {
	if cached, ok := s.deps.Prefs.CachedLocation(ctx); ok {
		coord := cached.Coordinate
		s.mu.Lock()
		s.state.Coordinate = &coord
		s.lastCoord = &coord
		s.state.LocationText = cached.Address
		s.address = cached.Address
		s.mu.Unlock()
		s.notify()

		zap.L().Info("using cached location", zap.Duration("age", s.now().Sub(cached.Timestamp)))
		s.background(func(ctx context.Context) {
			if _, err := s.search(ctx, TriggerCache); err != nil {
				zap.L().Warn("search from cached location failed", zap.Error(err))
			}
		})
		return
	}

	if !s.deps.Prefs.PermissionGranted(ctx) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.wg.Add(1)
	s.settleTimer = time.AfterFunc(s.settle, func() {
		defer s.wg.Done()
		if _, err := s.Locate(s.ctx); err != nil && !isAbort(err) {
			zap.L().Info("automatic location failed", zap.Error(err))
		}
	})
}

// Locate acquires a position. On success the coordinate is set, permission
// is recorded and the address is resolved, which caches the fix and
// searches. On failure the coordinate is cleared and manual entry opens.
func (s *Session) Locate(ctx context.Context) (models.LocationFix, error) {
	actx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return models.LocationFix{}, context.Canceled
	}
	if s.acqCancel != nil {
		s.mu.Unlock()
		return models.LocationFix{}, acquire.ErrInFlight
	}
	s.acqID++
	id := s.acqID
	s.acqCancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.acqID == id {
			s.acqCancel = nil
		}
		s.mu.Unlock()
	}()

	s.notify()
	fix, err := s.deps.Acquirer.Acquire(actx)
	if err != nil {
		if isAbort(err) || actx.Err() != nil {
			s.notify()
			return models.LocationFix{}, err
		}
		s.onLocateFailed(ctx, err)
		return models.LocationFix{}, err
	}

	if err := s.deps.Prefs.SetPermissionGranted(ctx, true); err != nil {
		zap.L().Warn("persist permission flag", zap.Error(err))
	}
	coord := fix.Coordinate
	s.mu.Lock()
	if !s.ownsAcquisition(actx, id) {
		s.mu.Unlock()
		return models.LocationFix{}, context.Canceled
	}
	s.state.Coordinate = &coord
	s.lastCoord = &coord
	s.manualEntry = false
	s.mu.Unlock()

	address := s.resolver.Resolve(actx, fix)

	s.mu.Lock()
	if !s.ownsAcquisition(actx, id) {
		s.mu.Unlock()
		s.notify()
		return models.LocationFix{}, context.Canceled
	}
	s.address = address
	s.state.LocationText = address
	s.mu.Unlock()
	s.notify()
	return fix, nil
}

// ownsAcquisition reports whether acquisition id may still write location
// state. A manual edit or a newer Locate revokes it. Caller holds s.mu.
func (s *Session) ownsAcquisition(actx context.Context, id uint64) bool {
	return actx.Err() == nil && s.acqID == id && s.acqCancel != nil
}

func (s *Session) onLocateFailed(ctx context.Context, err error) {
	s.mu.Lock()
	s.state.Coordinate = nil
	s.manualEntry = true
	s.mu.Unlock()

	if reason, ok := acquire.ReasonOf(err); ok && reason == acquire.ReasonPermissionDenied {
		if err := s.deps.Prefs.SetPermissionGranted(ctx, false); err != nil {
			zap.L().Warn("persist permission flag", zap.Error(err))
		}
	}
	s.notify()
}

// LocationFocus opens the location panel with saved places.
func (s *Session) LocationFocus() {
	s.mu.Lock()
	s.panelOpen = true
	s.mu.Unlock()
	s.places.Focus(s.ctx)
}

// LocationInput handles a manual edit of the location field. It cancels a
// running acquisition and drops the coordinate.
func (s *Session) LocationInput(text string) {
	s.mu.Lock()
	cancel := s.acqCancel
	s.acqCancel = nil
	s.state.Coordinate = nil
	s.state.LocationText = text
	s.address = text
	s.manualEntry = true
	s.panelOpen = true
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.places.Input(s.ctx, text)
	s.notify()
}

// SelectLocation applies a row of the location panel.
func (s *Session) SelectLocation(ctx context.Context, sug models.Suggestion) error {
	sel := autocomplete.Select(sug)
	switch sel.Action {
	case autocomplete.ActionUseLocation:
		s.places.Dismiss()
		coord := sel.Coordinate
		s.mu.Lock()
		s.state.Coordinate = &coord
		s.lastCoord = &coord
		s.state.LocationText = sel.Address
		s.address = sel.Address
		s.manualEntry = false
		s.panelOpen = false
		s.locations = nil
		s.mu.Unlock()
		_, err := s.search(ctx, TriggerLocation)
		return err

	case autocomplete.ActionLocate:
		s.places.Dismiss()
		s.mu.Lock()
		s.panelOpen = false
		s.mu.Unlock()
		_, err := s.Locate(ctx)
		return err

	case autocomplete.ActionAddSaved:
		if s.onSave != nil {
			s.onSave(sel.Label)
		}
	}
	return nil
}

// QueryFocus shows the browse list for the query field.
func (s *Session) QueryFocus() {
	s.agg.Focus()
}

// QueryInput handles a keystroke in the query field.
func (s *Session) QueryInput(text string) {
	s.mu.Lock()
	s.state.Text = text
	s.mu.Unlock()
	s.agg.Input(text)
	s.notify()
}

// SelectSuggestion applies a row of the query panel and searches when the
// selection asks for it.
func (s *Session) SelectSuggestion(ctx context.Context, sug models.Suggestion) (bool, error) {
	s.mu.Lock()
	next, fire := suggest.Apply(s.state, sug)
	s.state = next
	s.mu.Unlock()

	if !fire {
		return false, nil
	}
	s.agg.Dismiss()
	s.mu.Lock()
	s.suggestions = nil
	s.mu.Unlock()
	_, err := s.search(ctx, TriggerSuggestion)
	return true, err
}

// SetRadius persists r and re-runs a proximity search.
func (s *Session) SetRadius(ctx context.Context, r float64) error {
	if err := s.deps.Prefs.SetRadius(ctx, r); err != nil {
		return err
	}
	s.mu.Lock()
	s.state.Radius = r
	proximity := s.state.Coordinate != nil
	s.mu.Unlock()

	if !proximity {
		s.notify()
		return nil
	}
	_, err := s.search(ctx, TriggerRadius)
	return err
}

func (s *Session) SetSortBy(ctx context.Context, sortBy string) error {
	s.mu.Lock()
	s.state.SortBy = sortBy
	s.mu.Unlock()
	_, err := s.search(ctx, TriggerSort)
	return err
}

func (s *Session) SetFilters(ctx context.Context, f query.FilterState) error {
	s.mu.Lock()
	s.state.Filters = f
	s.mu.Unlock()
	_, err := s.search(ctx, TriggerFilters)
	return err
}

// Search emits a search for the current state.
func (s *Session) Search(ctx context.Context) (models.SearchParams, error) {
	return s.search(ctx, TriggerManual)
}

// View returns the current snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Close stops timers, cancels acquisition and waits for background work.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.settleTimer != nil && s.settleTimer.Stop() {
		s.wg.Done()
	}
	if s.acqCancel != nil {
		s.acqCancel()
	}
	s.mu.Unlock()

	s.cancel()
	s.agg.Close()
	s.places.Close()
	s.wg.Wait()
}

func (s *Session) search(ctx context.Context, trigger string) (models.SearchParams, error) {
	return s.searchWith(ctx, trigger, nil)
}

// searchWith builds from a copy of the session state, adjusted by override
// when set, so callers can search a location the state no longer holds.
func (s *Session) searchWith(ctx context.Context, trigger string, override func(*query.State)) (models.SearchParams, error) {
	s.mu.Lock()
	st := s.state
	if override != nil {
		override(&st)
	}
	params := query.Build(st)
	s.lastSearch = &params
	s.mu.Unlock()
	s.notify()

	if err := params.Validate(); err != nil {
		return params, eris.Wrap(err, "session: build search")
	}
	ev := models.SearchEvent{
		ID:        uuid.NewString(),
		Profile:   s.profile,
		Trigger:   trigger,
		Params:    params,
		CreatedAt: s.now(),
	}
	zap.L().Debug("search",
		zap.String("id", ev.ID),
		zap.String("trigger", trigger),
		zap.String("mode", string(params.Mode())))
	if err := s.deps.Emitter.Emit(ctx, ev); err != nil {
		return params, eris.Wrapf(err, "session: emit %s search", trigger)
	}
	return params, nil
}

func (s *Session) background(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

func (s *Session) bias() *models.Coordinate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastCoord == nil {
		return nil
	}
	c := *s.lastCoord
	return &c
}

func (s *Session) onSuggestions(u suggest.Update) {
	s.mu.Lock()
	s.suggestions = u.Suggestions
	s.mu.Unlock()
	s.notify()
}

func (s *Session) onLocations(u autocomplete.Update) {
	s.mu.Lock()
	s.locations = u.Suggestions
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	if s.onChange == nil {
		return
	}
	s.onChange(s.View())
}

func (s *Session) viewLocked() View {
	v := View{
		Query:             s.state,
		Address:           s.address,
		ManualEntry:       s.manualEntry,
		Acquisition:       s.deps.Acquirer.State(),
		Suggestions:       s.suggestions,
		Locations:         s.locations,
		LocationPanelOpen: s.panelOpen,
	}
	if s.lastSearch != nil {
		p := *s.lastSearch
		v.LastSearch = &p
	}
	return v
}

func isAbort(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, acquire.ErrInFlight)
}
