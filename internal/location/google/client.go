// Package google provides a reverse geocoder backed by the Google Geocoding API.
package google

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
	// DefaultBaseURL is the Geocoding API endpoint.
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

	// ProviderName identifies this provider.
	ProviderName = "google"
)

// ClientConfig holds configuration for the Google geocoder.
type ClientConfig struct {
	// BaseURL is the API endpoint (defaults to DefaultBaseURL).
	BaseURL string

	// APIKey is required. Without it every call fails with location.ErrMissingCredential.
	APIKey string

	// Language for returned names (default: "en").
	Language string

	// HTTPClient is the HTTP client to use. If nil, a resilient client is created.
	HTTPClient HTTPDoer

	// Registry receives provider health when the default client is created. Optional.
	Registry *resilience.Registry
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a Google Geocoding API client. It implements location.Geocoder.
type Client struct {
	baseURL    string
	apiKey     string
	language   string
	httpClient HTTPDoer
}

var _ location.Geocoder = (*Client)(nil)

// NewClient creates a new Google geocoder.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	language := cfg.Language
	if language == "" {
		language = "en"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         5 * time.Second,
			MaxRetries:      1,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     time.Second,
			Registry:        cfg.Registry,
		})
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		language:   language,
		httpClient: httpClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress  string             `json:"formatted_address"`
	AddressComponents []addressComponent `json:"address_components"`
}

type addressComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

// ReverseGeocode resolves a coordinate using the first result returned.
func (c *Client) ReverseGeocode(ctx context.Context, coord geo.Coordinate) (location.ResolvedLocation, error) {
	if c.apiKey == "" {
		return location.ResolvedLocation{}, location.ErrMissingCredential
	}

	q := url.Values{}
	q.Set("latlng", formatFloat(coord.Lat)+","+formatFloat(coord.Lon))
	q.Set("key", c.apiKey)
	q.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return location.ResolvedLocation{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return location.ResolvedLocation{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return location.ResolvedLocation{}, fmt.Errorf("unexpected status %d from geocode endpoint", resp.StatusCode)
	}

	var result geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return location.ResolvedLocation{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if result.Status != "OK" || len(result.Results) == 0 {
		return location.ResolvedLocation{}, fmt.Errorf("%w: status %s %s", location.ErrNoResult, result.Status, result.ErrorMessage)
	}

	return toLocation(coord, result.Results[0]), nil
}

func toLocation(coord geo.Coordinate, r geocodeResult) location.ResolvedLocation {
	comps := components(r.AddressComponents)

	formatted := r.FormattedAddress
	if formatted == "" {
		formatted = formatFloat(coord.Lat) + ", " + formatFloat(coord.Lon)
	}

	return location.ResolvedLocation{
		Coordinate:       coord,
		Locality:         comps.first("sublocality_level_1", "neighborhood", "sublocality"),
		City:             orUnknown(comps.first("locality", "administrative_area_level_2")),
		District:         comps.first("administrative_area_level_2"),
		State:            orUnknown(comps.first("administrative_area_level_1")),
		Country:          orUnknown(comps.first("country")),
		FormattedAddress: formatted,
		Source:           ProviderName,
	}
}

type components []addressComponent

// first returns the long name of the first component carrying any of types,
// checking types in preference order.
func (cs components) first(types ...string) string {
	for _, t := range types {
		for _, c := range cs {
			if hasType(c.Types, t) && strings.TrimSpace(c.LongName) != "" {
				return c.LongName
			}
		}
	}
	return ""
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

func orUnknown(s string) string {
	if s == "" {
		return location.Unknown
	}
	return s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
