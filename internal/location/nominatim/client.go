// Package nominatim provides a reverse geocoder backed by OpenStreetMap Nominatim.
package nominatim

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
	// DefaultBaseURL is the public Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent identifies the application, as the usage policy requires.
	DefaultUserAgent = "LocalAirGuardian/1.0 (contact: support@localairguardian.app)"

	// ProviderName identifies this provider.
	ProviderName = "nominatim"
)

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	BaseURL   string
	UserAgent string

	// HTTPClient is the HTTP client to use. If nil, a resilient client is created.
	HTTPClient HTTPDoer

	// Registry receives provider health when the default client is created. Optional.
	Registry *resilience.Registry
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a Nominatim reverse-geocoding client. It implements location.Geocoder.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient HTTPDoer
}

var _ location.Geocoder = (*Client)(nil)

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Public instance allows one request per second; do not hammer it on retries.
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         8 * time.Second,
			MaxRetries:      1,
			InitialInterval: time.Second,
			MaxInterval:     2 * time.Second,
			UserAgent:       userAgent,
			Registry:        cfg.Registry,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

type reverseResponse struct {
	Error       string  `json:"error"`
	DisplayName string  `json:"display_name"`
	Address     address `json:"address"`
}

type address struct {
	Neighbourhood string `json:"neighbourhood"`
	Suburb        string `json:"suburb"`
	Borough       string `json:"borough"`
	Quarter       string `json:"quarter"`
	Hamlet        string `json:"hamlet"`
	Road          string `json:"road"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	CityDistrict  string `json:"city_district"`
	County        string `json:"county"`
	State         string `json:"state"`
	Region        string `json:"region"`
	Country       string `json:"country"`
}

// ReverseGeocode resolves a coordinate at street-level zoom.
func (c *Client) ReverseGeocode(ctx context.Context, coord geo.Coordinate) (location.ResolvedLocation, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", formatFloat(coord.Lat))
	q.Set("lon", formatFloat(coord.Lon))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")
	q.Set("accept-language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), http.NoBody)
	if err != nil {
		return location.ResolvedLocation{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return location.ResolvedLocation{}, fmt.Errorf("reverse request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return location.ResolvedLocation{}, fmt.Errorf("unexpected status %d from reverse endpoint", resp.StatusCode)
	}

	var result reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return location.ResolvedLocation{}, fmt.Errorf("decode reverse response: %w", err)
	}

	if result.Error != "" {
		return location.ResolvedLocation{}, fmt.Errorf("%w: %s", location.ErrNoResult, result.Error)
	}

	return toLocation(coord, result), nil
}

func toLocation(coord geo.Coordinate, r reverseResponse) location.ResolvedLocation {
	a := r.Address

	// Without a neighbourhood, a road plus its suburb is finer than the
	// suburb alone.
	locality := firstNonEmpty(a.Neighbourhood)
	if road, suburb := strings.TrimSpace(a.Road), strings.TrimSpace(a.Suburb); locality == "" && road != "" && suburb != "" {
		locality = road + ", " + suburb
	}
	if locality == "" {
		locality = firstNonEmpty(a.Suburb, a.Borough, a.Quarter, a.Hamlet)
	}

	formatted := r.DisplayName
	if formatted == "" {
		formatted = formatFloat(coord.Lat) + ", " + formatFloat(coord.Lon)
	}

	return location.ResolvedLocation{
		Coordinate:       coord,
		City:             orUnknown(firstNonEmpty(a.City, a.Town, a.Village, a.CityDistrict, a.County)),
		Locality:         locality,
		District:         firstNonEmpty(a.CityDistrict, a.County),
		State:            orUnknown(firstNonEmpty(a.State, a.Region)),
		Country:          orUnknown(a.Country),
		FormattedAddress: formatted,
		Source:           ProviderName,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
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
