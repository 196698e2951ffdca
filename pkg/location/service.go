package location

import (
	"context"
	"encoding/json"
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

// Client talks to the search backend's /geocode and /autocomplete endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      retry.Config
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(10, 10),
		retry:      retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type reverseResponse struct {
	Address string `json:"address"`
}

type autocompleteResponse struct {
	Suggestions []Place `json:"suggestions"`
}

func (c *Client) Reverse(ctx context.Context, coord models.Coordinate) (string, error) {
	params := url.Values{}
	params.Set("lat", formatDegrees(coord.Lat))
	params.Set("lng", formatDegrees(coord.Lng))

	var out reverseResponse
	if err := c.getJSON(ctx, "/geocode", params, &out); err != nil {
		return "", err
	}
	if out.Address == "" {
		return "", eris.New("location: empty address in reverse geocode response")
	}
	return out.Address, nil
}

func (c *Client) Autocomplete(ctx context.Context, query string, limit int, near *models.Coordinate) ([]Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	if near != nil {
		params.Set("lat", formatDegrees(near.Lat))
		params.Set("lng", formatDegrees(near.Lng))
	}

	var out autocompleteResponse
	if err := c.getJSON(ctx, "/autocomplete", params, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	_, err := retry.Do(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return struct{}{}, eris.Wrap(err, "location: rate limit wait")
		}
		return struct{}{}, doJSON(ctx, c.httpClient, u, out)
	})
	return err
}

// doJSON performs a GET and decodes a JSON body, mapping 503 to
// ErrServiceUnavailable and 429/502/504 to retryable errors.
func doJSON(ctx context.Context, hc *http.Client, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return eris.Wrap(err, "location: build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := hc.Do(req)
	if err != nil {
		return retry.Transient(eris.Wrap(err, "location: request"), 0)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return ErrServiceUnavailable
	case retry.IsTransientStatus(resp.StatusCode):
		return retry.Transient(eris.Errorf("location: unexpected status %s", resp.Status), resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return eris.Errorf("location: unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "location: decode response")
	}
	return nil
}

const userAgent = "nearby-geocoder/1.0"

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
