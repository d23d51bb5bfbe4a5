// Package cpcb provides a client for the CPCB real-time air quality resource
// published on the data.gov.in open data API.
package cpcb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/airquality"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the data.gov.in resource for real-time station AQI.
	DefaultBaseURL = "https://api.data.gov.in/resource/3b01bcb8-0b14-4abf-b6f2-c1bfd384ba69"

	// ProviderName identifies this provider.
	ProviderName = "cpcb"

	// DefaultLimit is the number of records requested per fetch.
	DefaultLimit = 100
)

// ErrMissingAPIKey is returned when no data.gov.in API key is configured.
var ErrMissingAPIKey = errors.New("cpcb: api key not configured")

// ClientConfig holds configuration for the CPCB client.
type ClientConfig struct {
	// BaseURL is the resource URL (defaults to DefaultBaseURL).
	BaseURL string

	// APIKey is the data.gov.in api-key query parameter.
	APIKey string

	// Limit caps the records returned per fetch (default: DefaultLimit).
	Limit int

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Registry receives provider health when the default client is created. Optional.
	Registry *resilience.Registry
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a CPCB data.gov.in client. It implements airquality.Source.
type Client struct {
	baseURL    string
	apiKey     string
	limit      int
	httpClient HTTPDoer
}

var _ airquality.Source = (*Client)(nil)

// NewClient creates a new CPCB client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// The directory bounds the whole fetch at 10s, so retries stay short.
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         8 * time.Second,
			MaxRetries:      2,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Registry:        cfg.Registry,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
		limit:      limit,
		httpClient: httpClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

type recordsResponse struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Total   json.Number         `json:"total"`
	Records []airquality.Record `json:"records"`
}

// FetchRecords retrieves the current station records.
func (c *Client) FetchRecords(ctx context.Context) ([]airquality.Record, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	q := url.Values{}
	q.Set("api-key", c.apiKey)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(c.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from records endpoint", resp.StatusCode)
	}

	var result recordsResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("decode records response: %w", err)
	}

	if strings.EqualFold(result.Status, "error") {
		return nil, fmt.Errorf("records endpoint error: %s", result.Message)
	}

	if len(result.Records) == 0 {
		return nil, airquality.ErrNoStations
	}

	return result.Records, nil
}
