package device

import "context"

// Static always reports the same reading. It backs hosts with a fixed,
// configured position such as a kiosk or a CLI run with --lat/--lng.
type Static struct {
	Reading Reading
}

func (s Static) RequestPosition(ctx context.Context, _ Options) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	return s.Reading, nil
}

// Unsupported is the Positioner of a host without positioning.
type Unsupported struct{}

func (Unsupported) RequestPosition(context.Context, Options) (Reading, error) {
	return Reading{}, ErrUnsupported
}
