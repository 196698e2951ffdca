package location

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"nearby/internal/retry"
	"nearby/models"
)

const defaultNominatimURL = "https://nominatim.openstreetmap.org"

// nominatimPlace is the subset of a Nominatim search/reverse result we use.
type nominatimPlace struct {
	PlaceID     int64  `json:"place_id"`
	OsmType     string `json:"osm_type"`
	OsmID       int64  `json:"osm_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Address     struct {
		HouseNumber string `json:"house_number"`
		Road        string `json:"road"`
		Suburb      string `json:"suburb"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Postcode    string `json:"postcode"`
		Country     string `json:"country"`
	} `json:"address"`
	Error string `json:"error"`
}

// Nominatim geocodes against OpenStreetMap's Nominatim API. The public
// instance allows one request per second, which is the default limit.
type Nominatim struct {
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      retry.Config
}

// NominatimOption configures a Nominatim client.
type NominatimOption func(*Nominatim)

// WithNominatimURL points the client at a self-hosted instance.
func WithNominatimURL(u string) NominatimOption {
	return func(n *Nominatim) { n.baseURL = strings.TrimRight(u, "/") }
}

// WithNominatimHTTPClient sets a custom HTTP client.
func WithNominatimHTTPClient(hc *http.Client) NominatimOption {
	return func(n *Nominatim) { n.httpClient = hc }
}

// WithNominatimRateLimit caps outgoing requests per second.
func WithNominatimRateLimit(rps float64) NominatimOption {
	return func(n *Nominatim) { n.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithLanguage sets the accept-language used for display names.
func WithLanguage(lang string) NominatimOption {
	return func(n *Nominatim) { n.language = lang }
}

func NewNominatim(opts ...NominatimOption) *Nominatim {
	n := &Nominatim{
		baseURL:    defaultNominatimURL,
		language:   "en",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
		retry:      retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Nominatim) Reverse(ctx context.Context, c models.Coordinate) (string, error) {
	params := url.Values{}
	params.Set("lat", formatDegrees(c.Lat))
	params.Set("lon", formatDegrees(c.Lng))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("zoom", "18")
	params.Set("accept-language", n.language)

	var place nominatimPlace
	if err := n.get(ctx, "/reverse", params, &place); err != nil {
		return "", err
	}
	if place.Error != "" {
		return "", eris.Errorf("location: nominatim reverse: %s", place.Error)
	}
	if addr := shortAddress(place); addr != "" {
		return addr, nil
	}
	if place.DisplayName == "" {
		return "", eris.New("location: nominatim returned no address")
	}
	return place.DisplayName, nil
}

func (n *Nominatim) Autocomplete(ctx context.Context, query string, limit int, near *models.Coordinate) ([]Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("accept-language", n.language)
	if near != nil {
		// Unbounded viewbox: results near the user rank higher without
		// excluding the rest.
		params.Set("viewbox", viewbox(*near, 0.2))
	}

	var results []nominatimPlace
	if err := n.get(ctx, "/search", params, &results); err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lng, errLng := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLng != nil {
			continue
		}
		title := r.Name
		if title == "" {
			title = shortAddress(r)
		}
		if title == "" {
			title = r.DisplayName
		}
		places = append(places, Place{
			ID:       fmt.Sprintf("%s:%d", r.OsmType, r.OsmID),
			Title:    title,
			Subtitle: r.DisplayName,
			Lat:      lat,
			Lng:      lng,
		})
	}
	return places, nil
}

func (n *Nominatim) get(ctx context.Context, path string, params url.Values, out any) error {
	u := fmt.Sprintf("%s%s?%s", n.baseURL, path, params.Encode())
	_, err := retry.Do(ctx, n.retry, func(ctx context.Context) (struct{}, error) {
		if err := n.limiter.Wait(ctx); err != nil {
			return struct{}{}, eris.Wrap(err, "location: rate limit wait")
		}
		return struct{}{}, doJSON(ctx, n.httpClient, u, out)
	})
	return err
}

// shortAddress builds "road house, suburb, city" from the address parts.
func shortAddress(p nominatimPlace) string {
	city := p.Address.City
	if city == "" {
		city = p.Address.Town
	}
	if city == "" {
		city = p.Address.Village
	}

	street := strings.TrimSpace(p.Address.Road + " " + p.Address.HouseNumber)
	var parts []string
	for _, s := range []string{street, p.Address.Suburb, city} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func viewbox(c models.Coordinate, deltaDeg float64) string {
	return fmt.Sprintf("%s,%s,%s,%s",
		formatDegrees(c.Lng-deltaDeg), formatDegrees(c.Lat+deltaDeg),
		formatDegrees(c.Lng+deltaDeg), formatDegrees(c.Lat-deltaDeg),
	)
}
