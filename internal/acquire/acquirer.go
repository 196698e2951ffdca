package acquire

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"nearby/models"
	"nearby/pkg/device"
)

// DefaultOptions is the request issued for every attempt.
var DefaultOptions = device.Options{
	HighAccuracy: true,
	Timeout:      30 * time.Second,
	MaxCacheAge:  60 * time.Second,
}

// ErrInFlight is returned when Acquire is called while another acquisition
// is still running. The second call never reaches the device.
var ErrInFlight = eris.New("acquire: acquisition already in flight")

// Failure is the terminal error of an unsuccessful acquisition.
type Failure struct {
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("acquire: %s: %v", f.Reason, f.Err)
	}
	return "acquire: " + string(f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

// ReasonOf returns the failure reason carried by err, if any.
func ReasonOf(err error) (Reason, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason, true
	}
	return "", false
}

// Acquirer runs one acquisition at a time against a Positioner.
type Acquirer struct {
	positioner device.Positioner
	opts       device.Options
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
	onChange   func(State)

	mu    sync.Mutex
	state State
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithOptions overrides DefaultOptions.
func WithOptions(opts device.Options) Option {
	return func(a *Acquirer) { a.opts = opts }
}

// WithSleep replaces the retry delay implementation.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(a *Acquirer) { a.sleep = sleep }
}

// WithClock replaces time.Now for fix timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Acquirer) { a.now = now }
}

// WithStateListener is called after every state transition.
func WithStateListener(fn func(State)) Option {
	return func(a *Acquirer) { a.onChange = fn }
}

func New(positioner device.Positioner, opts ...Option) *Acquirer {
	a := &Acquirer{
		positioner: positioner,
		opts:       DefaultOptions,
		sleep:      sleepContext,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State returns a snapshot of the current acquisition state.
func (a *Acquirer) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Acquirer) apply(ev Event) (State, Decision) {
	a.mu.Lock()
	next, d := Reduce(a.state, ev)
	a.state = next
	a.mu.Unlock()

	if a.onChange != nil && (d.Action != ActionNone || ev.Kind == EventCancel) {
		a.onChange(next)
	}
	return next, d
}

// Acquire requests positions until the policy accepts a fix or fails.
// Cancelling ctx aborts the acquisition and returns ctx's error.
func (a *Acquirer) Acquire(ctx context.Context) (models.LocationFix, error) {
	if _, d := a.apply(Event{Kind: EventStart}); d.Action != ActionRequest {
		return models.LocationFix{}, ErrInFlight
	}

	for {
		ev, err := a.request(ctx)
		if ctx.Err() != nil {
			a.apply(Event{Kind: EventCancel})
			return models.LocationFix{}, ctx.Err()
		}

		state, d := a.apply(ev)
		switch d.Action {
		case ActionAccept:
			zap.L().Info("location acquired",
				zap.Float64("accuracy_m", state.Fix.AccuracyMeters),
				zap.Int("attempts", state.Attempts),
			)
			return *state.Fix, nil
		case ActionFail:
			zap.L().Warn("location acquisition failed",
				zap.String("reason", string(state.Reason)),
				zap.Int("attempts", state.Attempts),
				zap.Error(err),
			)
			return models.LocationFix{}, &Failure{Reason: state.Reason, Err: err}
		case ActionRetry:
			zap.L().Debug("retrying location request",
				zap.Int("attempt", state.Attempts),
				zap.Duration("delay", d.Delay),
			)
			if err := a.sleep(ctx, d.Delay); err != nil {
				a.apply(Event{Kind: EventCancel})
				return models.LocationFix{}, err
			}
		default:
			return models.LocationFix{}, eris.Errorf("acquire: unexpected decision %d", d.Action)
		}
	}
}

// request performs one device call and translates its outcome to an event.
func (a *Acquirer) request(ctx context.Context) (Event, error) {
	reqCtx := ctx
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	reading, err := a.positioner.RequestPosition(reqCtx, a.opts)
	if err == nil {
		return Event{Kind: EventReading, Fix: models.LocationFix{
			Coordinate:     models.Coordinate{Lat: reading.Lat, Lng: reading.Lng},
			AccuracyMeters: reading.AccuracyMeters,
			Timestamp:      a.now(),
			Source:         models.SourceGPS,
		}}, nil
	}

	if errors.Is(err, device.ErrUnsupported) {
		return Event{Kind: EventUnsupported}, err
	}
	if code, ok := device.CodeOf(err); ok {
		return Event{Kind: EventDeviceError, Code: code}, err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Event{Kind: EventDeviceError, Code: device.Timeout}, err
	}
	return Event{Kind: EventDeviceError, Code: device.PositionUnavailable}, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
