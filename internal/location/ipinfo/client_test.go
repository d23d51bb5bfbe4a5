package ipinfo_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location/ipinfo"
)

func newTestClient(t *testing.T, token string, handler http.HandlerFunc) *ipinfo.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return ipinfo.NewClient(ipinfo.ClientConfig{BaseURL: server.URL, Token: token, HTTPClient: http.DefaultClient})
}

func TestClient_Locate(t *testing.T) {
	client := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/106.51.0.1/json", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"ip":"106.51.0.1","city":"Bengaluru","loc":"12.9719,77.5937"}`))
	})

	fix, err := client.Locate(context.Background(), "106.51.0.1")
	require.NoError(t, err)

	assert.Equal(t, 12.9719, fix.Coordinate.Lat)
	assert.Equal(t, 77.5937, fix.Coordinate.Lon)
	assert.Equal(t, float64(location.IPAccuracyM), fix.AccuracyM)
	assert.Equal(t, ipinfo.ProviderName, fix.Source)
}

func TestClient_Locate_Self(t *testing.T) {
	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"loc":" 28.6519, 77.2315 "}`))
	})

	fix, err := client.Locate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 28.6519, fix.Coordinate.Lat)
	assert.Equal(t, 77.2315, fix.Coordinate.Lon)
}

func TestClient_Locate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"bogon", http.StatusOK, `{"ip":"192.168.1.1","bogon":true}`},
		{"missing loc", http.StatusOK, `{"ip":"1.1.1.1"}`},
		{"malformed loc", http.StatusOK, `{"loc":"north,east"}`},
		{"out of range", http.StatusOK, `{"loc":"95.0,10.0"}`},
		{"server error", http.StatusInternalServerError, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, "", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Locate(context.Background(), "192.168.1.1")
			assert.Error(t, err)
		})
	}
}
