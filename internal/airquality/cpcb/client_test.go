package cpcb_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/airquality"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/airquality/cpcb"
)

const recordsBody = `{
	"status": "ok",
	"total": 2,
	"records": [
		{
			"station_id": "site_301",
			"station": "Anand Vihar, Delhi - DPCC",
			"state": "Delhi",
			"city": "Delhi",
			"latitude": "28.646835",
			"longitude": "77.316032",
			"aqi": "312",
			"pm25": "182.5",
			"pm10": 301,
			"last_update": "17-10-2026 09:00:00"
		},
		{
			"station": "Sion, Mumbai - MPCB",
			"state": "Maharashtra",
			"city": "Mumbai",
			"latitude": 19.047,
			"longitude": 72.8746,
			"aqi": 118
		}
	]
}`

func TestClient_FetchRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(recordsBody))
	}))
	defer server.Close()

	client := cpcb.NewClient(cpcb.ClientConfig{
		BaseURL:    server.URL,
		APIKey:     "test-key",
		HTTPClient: http.DefaultClient,
	})

	records, err := client.FetchRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	stations := airquality.ParseStations(records, now)

	assert.Equal(t, "site_301", stations[0].ID)
	assert.Equal(t, "Anand Vihar, Delhi - DPCC", stations[0].Name)
	assert.Equal(t, 312, stations[0].AQI)
	assert.Equal(t, airquality.CategoryVeryPoor, stations[0].Category)
	assert.InDelta(t, 28.646835, stations[0].Coordinate.Lat, 1e-9)
	assert.InDelta(t, 182.5, stations[0].Pollutants.PM25, 1e-9)
	assert.InDelta(t, 301.0, stations[0].Pollutants.PM10, 1e-9)
	assert.Equal(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC), stations[0].LastUpdate)

	assert.Equal(t, "station_1", stations[1].ID)
	assert.Equal(t, 118, stations[1].AQI)
	assert.Equal(t, airquality.CategoryModerate, stations[1].Category)
	assert.Equal(t, now, stations[1].LastUpdate)
}

func TestClient_FetchRecords_MissingAPIKey(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := cpcb.NewClient(cpcb.ClientConfig{BaseURL: server.URL, HTTPClient: http.DefaultClient})

	_, err := client.FetchRecords(context.Background())
	assert.ErrorIs(t, err, cpcb.ErrMissingAPIKey)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_FetchRecords_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{name: "server error", status: http.StatusServiceUnavailable, body: `{}`},
		{name: "malformed body", status: http.StatusOK, body: `{"records": [`},
		{name: "api error", status: http.StatusOK, body: `{"status":"error","message":"Invalid key"}`},
		{name: "empty records", status: http.StatusOK, body: `{"status":"ok","records":[]}`, target: airquality.ErrNoStations},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := cpcb.NewClient(cpcb.ClientConfig{
				BaseURL:    server.URL,
				APIKey:     "k",
				HTTPClient: http.DefaultClient,
			})

			records, err := client.FetchRecords(context.Background())
			require.Error(t, err)
			assert.Nil(t, records)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestClient_Name(t *testing.T) {
	client := cpcb.NewClient(cpcb.ClientConfig{APIKey: "k"})
	assert.Equal(t, cpcb.ProviderName, client.Name())
}
