package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"nearby/internal/retry"
)

// Client reads the service catalog and searches providers on the backend.
// The service catalog is fetched once and kept for servicesTTL.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	retry       retry.Config
	servicesTTL time.Duration

	mu        sync.Mutex
	services  []Service
	fetchedAt time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithServicesTTL controls how long the service catalog is reused.
func WithServicesTTL(ttl time.Duration) Option {
	return func(c *Client) { c.servicesTTL = ttl }
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		limiter:     rate.NewLimiter(20, 20),
		retry:       retry.DefaultConfig(),
		servicesTTL: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Services returns the service catalog, from memory when still fresh.
func (c *Client) Services(ctx context.Context) ([]Service, error) {
	c.mu.Lock()
	if c.services != nil && time.Since(c.fetchedAt) < c.servicesTTL {
		services := c.services
		c.mu.Unlock()
		return services, nil
	}
	c.mu.Unlock()

	var services []Service
	if err := c.getJSON(ctx, c.baseURL+"/services", &services); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.services = services
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	zap.L().Debug("service catalog refreshed", zap.Int("services", len(services)))
	return services, nil
}

type salonsResponse struct {
	Results []Salon `json:"results"`
}

// SearchSalons returns up to limit providers matching service.
func (c *Client) SearchSalons(ctx context.Context, service string, limit int) ([]Salon, error) {
	params := url.Values{}
	params.Set("service", service)
	params.Set("limit", strconv.Itoa(limit))

	var out salonsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/salons?%s", c.baseURL, params.Encode()), &out); err != nil {
		return nil, err
	}
	if len(out.Results) > limit {
		out.Results = out.Results[:limit]
	}
	return out.Results, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	_, err := retry.Do(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return struct{}{}, eris.Wrap(err, "catalog: rate limit wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return struct{}{}, eris.Wrap(err, "catalog: build request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return struct{}{}, retry.Transient(eris.Wrap(err, "catalog: request"), 0)
		}
		defer resp.Body.Close()

		if retry.IsTransientStatus(resp.StatusCode) {
			return struct{}{}, retry.Transient(eris.Errorf("catalog: unexpected status %s", resp.Status), resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return struct{}{}, eris.Errorf("catalog: unexpected status %s", resp.Status)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, eris.Wrap(err, "catalog: decode response")
		}
		return struct{}{}, nil
	})
	return err
}
