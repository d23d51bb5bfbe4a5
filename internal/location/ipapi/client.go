// Package ipapi provides an IP geolocation source backed by ipapi.co.
package ipapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/provider/resilience"
	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

const (
	// DefaultBaseURL is the ipapi.co endpoint.
	DefaultBaseURL = "https://ipapi.co"

	// ProviderName identifies this provider.
	ProviderName = "ipapi"
)

// ClientConfig holds configuration for the ipapi client.
type ClientConfig struct {
	BaseURL    string
	HTTPClient HTTPDoer
	Registry   *resilience.Registry
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client looks up IP addresses on ipapi.co. It implements location.IPLocator.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

var _ location.IPLocator = (*Client)(nil)

// NewClient creates a new ipapi client.
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
		httpClient: httpClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// numeric fields arrive as numbers or strings depending on plan.
type lookupResponse struct {
	Latitude  json.Number `json:"latitude"`
	Longitude json.Number `json:"longitude"`
	City      string      `json:"city"`
	Error     bool        `json:"error"`
	Reason    string      `json:"reason"`
}

// Locate returns the approximate position of ip. An empty ip looks up the
// address the request originates from.
func (c *Client) Locate(ctx context.Context, ip string) (location.Fix, error) {
	endpoint := c.baseURL + "/json/"
	if ip != "" {
		endpoint = c.baseURL + "/" + url.PathEscape(ip) + "/json/"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return location.Fix{}, fmt.Errorf("create request: %w", err)
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

	if result.Error {
		return location.Fix{}, fmt.Errorf("%w: %s", location.ErrNoResult, result.Reason)
	}

	lat, latErr := result.Latitude.Float64()
	lon, lonErr := result.Longitude.Float64()
	// Zero coordinates mean the service did not know the address.
	if latErr != nil || lonErr != nil || lat == 0 || lon == 0 {
		return location.Fix{}, fmt.Errorf("%w: missing coordinates", location.ErrNoResult)
	}

	return location.Fix{
		Coordinate: geo.Coordinate{Lat: lat, Lon: lon},
		AccuracyM:  location.IPAccuracyM,
		Source:     ProviderName,
	}, nil
}
