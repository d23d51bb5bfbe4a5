// Package ipinfo provides an IP geolocation source backed by ipinfo.io.
package ipinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/provider/resilience"
	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

const (
	// DefaultBaseURL is the ipinfo.io endpoint.
	DefaultBaseURL = "https://ipinfo.io"

	// ProviderName identifies this provider.
	ProviderName = "ipinfo"
)

// ClientConfig holds configuration for the ipinfo client.
type ClientConfig struct {
	BaseURL string

	// Token raises the anonymous rate limit. Optional.
	Token string

	HTTPClient HTTPDoer
	Registry   *resilience.Registry
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client looks up IP addresses on ipinfo.io. It implements location.IPLocator.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPDoer
}

var _ location.IPLocator = (*Client)(nil)

// NewClient creates a new ipinfo client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:       ProviderName,
			Timeout:    4 * time.Second,
			MaxRetries: resilience.NoRetries,
			Registry:   cfg.Registry,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      cfg.Token,
		httpClient: httpClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

type lookupResponse struct {
	Loc   string `json:"loc"`
	City  string `json:"city"`
	Bogon bool   `json:"bogon"`
}

// Locate returns the approximate position of ip. An empty ip looks up the
// address the request originates from.
func (c *Client) Locate(ctx context.Context, ip string) (location.Fix, error) {
	endpoint := c.baseURL + "/json"
	if ip != "" {
		endpoint = c.baseURL + "/" + url.PathEscape(ip) + "/json"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return location.Fix{}, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return location.Fix{}, fmt.Errorf("lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return location.Fix{}, fmt.Errorf("unexpected status %d from lookup endpoint", resp.StatusCode)
	}

	var result lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return location.Fix{}, fmt.Errorf("decode lookup response: %w", err)
	}

	if result.Bogon {
		return location.Fix{}, fmt.Errorf("%w: bogon address", location.ErrNoResult)
	}

	coord, err := parseLoc(result.Loc)
	if err != nil {
		return location.Fix{}, err
	}

	return location.Fix{
		Coordinate: coord,
		AccuracyM:  location.IPAccuracyM,
		Source:     ProviderName,
	}, nil
}

// parseLoc parses ipinfo's "lat,lon" field.
func parseLoc(loc string) (geo.Coordinate, error) {
	latStr, lonStr, ok := strings.Cut(loc, ",")
	if !ok {
		return geo.Coordinate{}, fmt.Errorf("%w: malformed loc %q", location.ErrNoResult, loc)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: malformed latitude %q", location.ErrNoResult, latStr)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: malformed longitude %q", location.ErrNoResult, lonStr)
	}

	return geo.NewCoordinate(lat, lon)
}
