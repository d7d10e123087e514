// Package gbif provides a thin client for the GBIF-style species match API.
// The service's own matching heuristics are opaque; trellis only consumes
// its rank, usage, and classification output.
package gbif

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Usage describes one name usage record, either nested in a match response
// or fetched via the detail endpoint.
type Usage struct {
	Key            int64  `json:"key"`
	Name           string `json:"name"`
	ScientificName string `json:"scientificName"`
	CanonicalName  string `json:"canonicalName"`
	Rank           string `json:"rank"`
	Status         string `json:"status"`
}

// DisplayName returns the best human-usable name carried by the usage.
func (u *Usage) DisplayName() string {
	if u == nil {
		return ""
	}
	for _, candidate := range []string{u.CanonicalName, u.Name, u.ScientificName} {
		if strings.TrimSpace(candidate) != "" {
			return strings.TrimSpace(candidate)
		}
	}
	return ""
}

// RankedName is one entry of a classification chain.
type RankedName struct {
	Key  int64  `json:"key"`
	Name string `json:"name"`
	Rank string `json:"rank"`
}

// MatchResult models the species match response.
type MatchResult struct {
	UsageKey         int64        `json:"usageKey"`
	AcceptedUsageKey int64        `json:"acceptedUsageKey"`
	ScientificName   string       `json:"scientificName"`
	CanonicalName    string       `json:"canonicalName"`
	Rank             string       `json:"rank"`
	Status           string       `json:"status"`
	MatchType        string       `json:"matchType"`
	Confidence       int          `json:"confidence"`
	Synonym          bool         `json:"synonym"`
	Usage            *Usage       `json:"usage"`
	AcceptedUsage    *Usage       `json:"acceptedUsage"`
	Classification   []RankedName `json:"classification"`
}

// NoMatch reports whether the service explicitly declined to match the name.
func (m *MatchResult) NoMatch() bool {
	return m == nil || strings.EqualFold(m.MatchType, "NONE")
}

// Matcher defines the match operations the taxonomy resolver needs. It
// exists so the external service can be swapped for a local database or a
// test double.
type Matcher interface {
	Match(ctx context.Context, name string) (*MatchResult, error)
	SpeciesDetail(ctx context.Context, key int64) (*Usage, error)
}

// Client provides access to the species match API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Matcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a species match client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("gbif base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Match queries the species match endpoint for the supplied name.
func (c *Client) Match(ctx context.Context, name string) (*MatchResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/species/match")
	if err != nil {
		return nil, fmt.Errorf("parse gbif url: %w", err)
	}
	params := url.Values{}
	params.Set("name", name)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gbif match returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload MatchResult
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode gbif response: %w", err)
	}
	return &payload, nil
}

// SpeciesDetail fetches a single name usage by key, used to resolve the
// canonical accepted name behind a synonym.
func (c *Client) SpeciesDetail(ctx context.Context, key int64) (*Usage, error) {
	if key <= 0 {
		return nil, errors.New("usage key must be positive")
	}
	endpoint, err := url.Parse(fmt.Sprintf("%s/species/%d", c.baseURL, key))
	if err != nil {
		return nil, fmt.Errorf("parse gbif url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gbif species detail returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload Usage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode species detail: %w", err)
	}
	return &payload, nil
}
