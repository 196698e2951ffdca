package device

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"googlemaps.github.io/maps"
)

// GoogleGeolocation positions the host through the Google Geolocation API
// using its public IP, which is the closest thing a server process has to
// a GPS receiver.
type GoogleGeolocation struct {
	mu     sync.Mutex
	client *maps.Client
}

func NewGoogleGeolocation(apiKey string) (*GoogleGeolocation, error) {
	if apiKey == "" {
		return nil, eris.New("device: google API key cannot be empty")
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, eris.Wrap(err, "device: create google maps client")
	}
	return &GoogleGeolocation{client: client}, nil
}

func (g *GoogleGeolocation) RequestPosition(ctx context.Context, opts Options) (Reading, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client == nil {
		return Reading{}, ErrUnsupported
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	resp, err := g.client.Geolocate(ctx, &maps.GeolocationRequest{ConsiderIP: true})
	if err != nil {
		return Reading{}, classifyGoogleError(err)
	}
	return Reading{
		Lat:            resp.Location.Lat,
		Lng:            resp.Location.Lng,
		AccuracyMeters: resp.Accuracy,
	}, nil
}

// Close releases the client; later requests report ErrUnsupported.
func (g *GoogleGeolocation) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.client = nil
	return nil
}

func classifyGoogleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &PositionError{Code: Timeout, Err: err}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "keyinvalid"), strings.Contains(msg, "accessnotconfigured"),
		strings.Contains(msg, "request_denied"), strings.Contains(msg, "forbidden"):
		return &PositionError{Code: PermissionDenied, Err: err}
	default:
		return &PositionError{Code: PositionUnavailable, Err: err}
	}
}
