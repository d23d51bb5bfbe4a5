package google_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location/google"
	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

const bandraResponse = `{
	"status": "OK",
	"results": [{
		"formatted_address": "Hill Rd, Bandra West, Mumbai, Maharashtra 400050, India",
		"address_components": [
			{"long_name": "Hill Road", "types": ["route"]},
			{"long_name": "Pali Hill", "types": ["neighborhood", "political"]},
			{"long_name": "Bandra West", "types": ["political", "sublocality", "sublocality_level_1"]},
			{"long_name": "Mumbai", "types": ["locality", "political"]},
			{"long_name": "Mumbai Suburban", "types": ["administrative_area_level_2", "political"]},
			{"long_name": "Maharashtra", "types": ["administrative_area_level_1", "political"]},
			{"long_name": "India", "types": ["country", "political"]}
		]
	}, {
		"formatted_address": "Mumbai, Maharashtra, India",
		"address_components": []
	}]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, key string) *google.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return google.NewClient(google.ClientConfig{
		BaseURL:    server.URL,
		APIKey:     key,
		HTTPClient: http.DefaultClient,
	})
}

func TestClient_ReverseGeocode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "19.0596,72.8295", r.URL.Query().Get("latlng"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "en", r.URL.Query().Get("language"))
		_, _ = w.Write([]byte(bandraResponse))
	}, "secret")

	coord := geo.Coordinate{Lat: 19.0596, Lon: 72.8295}
	loc, err := client.ReverseGeocode(context.Background(), coord)
	require.NoError(t, err)

	assert.Equal(t, "Bandra West", loc.Locality, "sublocality_level_1 preferred over neighborhood")
	assert.Equal(t, "Mumbai", loc.City)
	assert.Equal(t, "Mumbai Suburban", loc.District)
	assert.Equal(t, "Maharashtra", loc.State)
	assert.Equal(t, "India", loc.Country)
	assert.Equal(t, "Hill Rd, Bandra West, Mumbai, Maharashtra 400050, India", loc.FormattedAddress)
	assert.Equal(t, google.ProviderName, loc.Source)
	assert.Equal(t, coord, loc.Coordinate)
}

func TestClient_ReverseGeocode_FieldFallbacks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"address_components":[
			{"long_name": "Koramangala", "types": ["neighborhood"]},
			{"long_name": "Bangalore Urban", "types": ["administrative_area_level_2"]}
		]}]}`))
	}, "k")

	loc, err := client.ReverseGeocode(context.Background(), geo.Coordinate{Lat: 12.9352, Lon: 77.6245})
	require.NoError(t, err)

	assert.Equal(t, "Koramangala", loc.Locality)
	assert.Equal(t, "Bangalore Urban", loc.City, "administrative_area_level_2 stands in for locality")
	assert.Equal(t, location.Unknown, loc.State)
	assert.Equal(t, location.Unknown, loc.Country)
	assert.Equal(t, "12.9352, 77.6245", loc.FormattedAddress)
}

func TestClient_ReverseGeocode_MissingKey(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) { calls.Add(1) }, "")

	_, err := client.ReverseGeocode(context.Background(), geo.Coordinate{Lat: 19, Lon: 72})
	assert.ErrorIs(t, err, location.ErrMissingCredential)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_ReverseGeocode_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"zero results", http.StatusOK, `{"status":"ZERO_RESULTS","results":[]}`},
		{"denied", http.StatusOK, `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`},
		{"ok without results", http.StatusOK, `{"status":"OK","results":[]}`},
		{"http error", http.StatusForbidden, `{}`},
		{"malformed", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, "k")

			_, err := client.ReverseGeocode(context.Background(), geo.Coordinate{Lat: 19, Lon: 72})
			assert.Error(t, err)
		})
	}
}
