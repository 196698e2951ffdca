// Package device abstracts the positioning capability of the host: a
// request for a single position reading with accuracy hints.
package device

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Options mirror the knobs of a platform position request.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxCacheAge  time.Duration
}

// Reading is one successful position sample.
type Reading struct {
	Lat            float64
	Lng            float64
	AccuracyMeters float64
}

// ErrorCode classifies a failed position request.
type ErrorCode int

const (
	PermissionDenied ErrorCode = iota + 1
	PositionUnavailable
	Timeout
)

func (c ErrorCode) String() string {
	switch c {
	case PermissionDenied:
		return "permission_denied"
	case PositionUnavailable:
		return "position_unavailable"
	case Timeout:
		return "timeout"
	}
	return "unknown"
}

// PositionError is returned by a Positioner when the request fails.
type PositionError struct {
	Code ErrorCode
	Err  error
}

func (e *PositionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("position error %s: %v", e.Code, e.Err)
	}
	return "position error " + e.Code.String()
}

func (e *PositionError) Unwrap() error { return e.Err }

// ErrUnsupported is returned when the host has no positioning capability.
var ErrUnsupported = errors.New("device: positioning not supported")

// Positioner requests a single position reading.
type Positioner interface {
	RequestPosition(ctx context.Context, opts Options) (Reading, error)
}

// CodeOf extracts the error code from err, reporting false when err is not
// a PositionError.
func CodeOf(err error) (ErrorCode, bool) {
	var pe *PositionError
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return 0, false
}
