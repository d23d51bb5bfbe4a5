// Package config loads service configuration from the environment and an
// optional .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/database"
)

// Config is the full configuration shared by the binaries.
type Config struct {
	App       AppConfig
	Telemetry TelemetryConfig
	Stations  StationsConfig
	Geocoding GeocodingConfig
	Device    DeviceConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Database  database.Config
	Worker    WorkerConfig
}

type AppConfig struct {
	Port string
	Env  string

	// RequireTLS rejects requests a proxy forwarded over plain HTTP.
	RequireTLS bool
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	OTLPInsecure bool
	SampleRatio  float64
	LogLevel     string
}

type StationsConfig struct {
	APIKey       string
	BaseURL      string
	CacheTTL     time.Duration
	FetchTimeout time.Duration
}

type GeocodingConfig struct {
	GoogleAPIKey       string
	NominatimUserAgent string
	IPInfoToken        string

	// EnableMumbaiSnap seeds the locality snapping flag.
	EnableMumbaiSnap bool
}

type DeviceConfig struct {
	// GPSDAddr is empty when no gpsd daemon is configured.
	GPSDAddr string
	Consent  bool
}

// RedisConfig configures the IP lookup cache. Addr empty disables it.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	IPCacheTTL time.Duration
}

type AuthConfig struct {
	JWTSigningKey string
}

type WorkerConfig struct {
	PubSubProjectID    string
	PubSubSubscription string
	RefreshInterval    time.Duration
	CoverageRadiusKm   float64
}

// Load reads configuration, applying defaults for unset values.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	return &Config{
		App: AppConfig{
			Port: getEnv("APP_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),

			RequireTLS: getEnvAsBool("REQUIRE_TLS", false),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			OTLPInsecure: getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			SampleRatio:  getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
		},
		Stations: StationsConfig{
			APIKey:       getEnv("CPCB_API_KEY", ""),
			BaseURL:      getEnv("CPCB_BASE_URL", ""),
			CacheTTL:     getEnvAsDuration("STATION_CACHE_TTL", 5*time.Minute),
			FetchTimeout: getEnvAsDuration("STATION_FETCH_TIMEOUT", 10*time.Second),
		},
		Geocoding: GeocodingConfig{
			GoogleAPIKey:       getEnv("GOOGLE_MAPS_API_KEY", ""),
			NominatimUserAgent: getEnv("NOMINATIM_USER_AGENT", ""),
			IPInfoToken:        getEnv("IPINFO_TOKEN", ""),
			EnableMumbaiSnap:   getEnvAsBool("ENABLE_MUMBAI_SNAP", false),
		},
		Device: DeviceConfig{
			GPSDAddr: getEnv("GPSD_ADDR", ""),
			Consent:  getEnvAsBool("DEVICE_LOCATION_CONSENT", false),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			IPCacheTTL: getEnvAsDuration("IP_CACHE_TTL", 24*time.Hour),
		},
		Auth: AuthConfig{
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", ""),
		},
		Database: database.ConfigFromEnv(),
		Worker: WorkerConfig{
			PubSubProjectID:    getEnv("PUBSUB_PROJECT_ID", ""),
			PubSubSubscription: getEnv("PUBSUB_SUBSCRIPTION", "station-refresh"),
			RefreshInterval:    getEnvAsDuration("WORKER_REFRESH_INTERVAL", 5*time.Minute),
			CoverageRadiusKm:   getEnvAsFloat("COVERAGE_RADIUS_KM", 50),
		},
	}, nil
}

// DatabaseConfigured reports whether DATABASE_URL or DB_HOST was set.
func (c *Config) DatabaseConfigured() bool {
	return c.Database.Configured()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
