// Package acquire drives device positioning through an accuracy-tiered
// retry policy. The policy is a pure reducer over State; Acquirer runs it
// against a device.Positioner.
package acquire

import (
	"time"

	"nearby/models"
	"nearby/pkg/device"
	"nearby/pkg/geo"
)

// Phase is the coarse status of an acquisition.
type Phase int

const (
	Idle Phase = iota
	Requesting
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Reason explains a failed acquisition.
type Reason string

const (
	ReasonPermissionDenied     Reason = "permission_denied"
	ReasonUnavailable          Reason = "unavailable"
	ReasonTimeout              Reason = "timeout"
	ReasonUnsupported          Reason = "unsupported"
	ReasonAccuracyInsufficient Reason = "accuracy_insufficient"
)

// Retry policy.
const (
	MaxModerateRetries    = 1
	MaxPoorRetries        = 2
	MaxUnavailableRetries = 2

	ModerateRetryDelay    = 3 * time.Second
	PoorRetryDelay        = 2 * time.Second
	UnavailableRetryDelay = 2 * time.Second
)

// State is the full acquisition state. Retry counters are per cause;
// accuracy retries of either band share the poor-band bound.
type State struct {
	Phase              Phase
	Attempts           int
	ModerateRetries    int
	PoorRetries        int
	UnavailableRetries int
	Fix                *models.LocationFix
	Reason             Reason
}

// Retries is the number of repeated device requests so far.
func (s State) Retries() int {
	return s.ModerateRetries + s.PoorRetries + s.UnavailableRetries
}

// EventKind enumerates the inputs of the reducer.
type EventKind int

const (
	EventStart EventKind = iota
	EventReading
	EventDeviceError
	EventUnsupported
	EventCancel
)

// Event is one input to Reduce. Fix is set for EventReading, Code for
// EventDeviceError.
type Event struct {
	Kind EventKind
	Fix  models.LocationFix
	Code device.ErrorCode
}

// Action tells the driver what to do next.
type Action int

const (
	ActionNone Action = iota
	ActionRequest
	ActionRetry
	ActionAccept
	ActionFail
)

// Decision is the reducer's instruction. Delay applies to ActionRetry.
type Decision struct {
	Action Action
	Delay  time.Duration
}

// Reduce returns the next state and what the driver must do.
func Reduce(s State, ev Event) (State, Decision) {
	switch ev.Kind {
	case EventStart:
		if s.Phase == Requesting {
			return s, Decision{Action: ActionNone}
		}
		return State{Phase: Requesting, Attempts: 1}, Decision{Action: ActionRequest}
	case EventCancel:
		return State{Phase: Idle}, Decision{Action: ActionNone}
	}

	if s.Phase != Requesting {
		return s, Decision{Action: ActionNone}
	}

	switch ev.Kind {
	case EventReading:
		return onReading(s, ev.Fix)
	case EventDeviceError:
		return onDeviceError(s, ev.Code)
	case EventUnsupported:
		return fail(s, ReasonUnsupported)
	}
	return s, Decision{Action: ActionNone}
}

func onReading(s State, fix models.LocationFix) (State, Decision) {
	switch geo.Classify(fix.AccuracyMeters) {
	case geo.BandGood:
		return accept(s, fix)
	case geo.BandModerate:
		if s.ModerateRetries < MaxModerateRetries {
			s.ModerateRetries++
			return retry(s, ModerateRetryDelay)
		}
		return accept(s, fix)
	default:
		// Moderate retries already spent count against the poor bound.
		if s.ModerateRetries+s.PoorRetries < MaxPoorRetries {
			s.PoorRetries++
			return retry(s, PoorRetryDelay)
		}
		return fail(s, ReasonAccuracyInsufficient)
	}
}

func onDeviceError(s State, code device.ErrorCode) (State, Decision) {
	switch code {
	case device.PermissionDenied:
		return fail(s, ReasonPermissionDenied)
	case device.Timeout:
		return fail(s, ReasonTimeout)
	default:
		if s.UnavailableRetries < MaxUnavailableRetries {
			s.UnavailableRetries++
			return retry(s, UnavailableRetryDelay)
		}
		return fail(s, ReasonUnavailable)
	}
}

func retry(s State, delay time.Duration) (State, Decision) {
	s.Attempts++
	return s, Decision{Action: ActionRetry, Delay: delay}
}

func accept(s State, fix models.LocationFix) (State, Decision) {
	s.Phase = Succeeded
	s.Fix = &fix
	return s, Decision{Action: ActionAccept}
}

func fail(s State, reason Reason) (State, Decision) {
	s.Phase = Failed
	s.Fix = nil
	s.Reason = reason
	return s, Decision{Action: ActionFail}
}
