package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"APP_PORT", "APP_ENV", "OTEL_ENABLED", "STATION_CACHE_TTL", "STATION_FETCH_TIMEOUT",
		"ENABLE_MUMBAI_SNAP", "DEVICE_LOCATION_CONSENT", "REDIS_ADDR", "IP_CACHE_TTL",
		"WORKER_REFRESH_INTERVAL", "COVERAGE_RADIUS_KM", "OTEL_SAMPLE_RATIO", "LOG_LEVEL", "REQUIRE_TLS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "development", cfg.App.Env)
	assert.False(t, cfg.App.RequireTLS)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRatio)
	assert.Equal(t, "info", cfg.Telemetry.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.Stations.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.Stations.FetchTimeout)
	assert.False(t, cfg.Geocoding.EnableMumbaiSnap)
	assert.False(t, cfg.Device.Consent)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IPCacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.Worker.RefreshInterval)
	assert.Equal(t, 50.0, cfg.Worker.CoverageRadiusKm)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_PORT", "9090")
	t.Setenv("STATION_CACHE_TTL", "90s")
	t.Setenv("ENABLE_MUMBAI_SNAP", "true")
	t.Setenv("DEVICE_LOCATION_CONSENT", "1")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("COVERAGE_RADIUS_KM", "25.5")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REQUIRE_TLS", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 90*time.Second, cfg.Stations.CacheTTL)
	assert.True(t, cfg.Geocoding.EnableMumbaiSnap)
	assert.True(t, cfg.Device.Consent)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 25.5, cfg.Worker.CoverageRadiusKm)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.True(t, cfg.DatabaseConfigured())
	assert.True(t, cfg.App.RequireTLS)
}

func TestLoad_InvalidValuesUseDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STATION_FETCH_TIMEOUT", "soon")
	t.Setenv("OTEL_ENABLED", "maybe")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Stations.FetchTimeout)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GOOGLE_MAPS_API_KEY=from-dotenv\nGPSD_ADDR=127.0.0.1:2947\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("GOOGLE_MAPS_API_KEY")
		os.Unsetenv("GPSD_ADDR")
	})

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Geocoding.GoogleAPIKey)
	assert.Equal(t, "127.0.0.1:2947", cfg.Device.GPSDAddr)
}
