// Package app assembles the services shared by the API, worker and locate
// binaries from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/airquality"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/airquality/cpcb"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/config"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/database"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/featureflags"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location/google"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location/gpsd"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location/ipapi"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location/ipcache"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location/ipinfo"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location/nominatim"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/provider/resilience"
)

// Metrics receives provider request and cache outcomes.
type Metrics interface {
	airquality.CacheRecorder
	location.RequestRecorder
}

// Deps holds the optional collaborators shared by the builders.
type Deps struct {
	Logger   zerolog.Logger
	Metrics  Metrics
	Registry *resilience.Registry
}

// DefaultFlags returns the built-in flag defaults seeded from configuration.
func DefaultFlags(cfg *config.Config) map[string]*featureflags.Flag {
	flags := featureflags.DefaultFlags()
	flags[featureflags.FlagEnableLocalitySnap].Value = cfg.Geocoding.EnableMumbaiSnap
	flags[featureflags.FlagCoverageRadiusKm].Value = cfg.Worker.CoverageRadiusKm
	return flags
}

// NewFeatureFlags creates the flag service. With a database configured flags
// are stored in Postgres, otherwise in memory. The returned pool is nil in
// the in-memory case and must be closed by the caller otherwise.
func NewFeatureFlags(ctx context.Context, cfg *config.Config, deps Deps) (*featureflags.Service, *pgxpool.Pool, error) {
	defaults := DefaultFlags(cfg)

	if !cfg.DatabaseConfigured() {
		deps.Logger.Info().Msg("no database configured, feature flags kept in memory")
		return featureflags.NewService(featureflags.ServiceConfig{
			Repository:   featureflags.NewInMemoryRepositoryWithFlags(defaults),
			Logger:       deps.Logger,
			DefaultFlags: defaults,
		}), nil, nil
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect feature flag database: %w", err)
	}
	deps.Logger.Info().Str("target", database.Target(pool)).Msg("database connected")

	repo := featureflags.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx, defaults); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return featureflags.NewService(featureflags.ServiceConfig{
		Repository:   repo,
		Logger:       deps.Logger,
		DefaultFlags: defaults,
	}), pool, nil
}

// NewDirectory creates the station directory. Without a CPCB key only the
// built-in stations are served.
func NewDirectory(cfg *config.Config, deps Deps) *airquality.Directory {
	var source airquality.Source
	if cfg.Stations.APIKey != "" {
		source = cpcb.NewClient(cpcb.ClientConfig{
			BaseURL:  cfg.Stations.BaseURL,
			APIKey:   cfg.Stations.APIKey,
			Registry: deps.Registry,
		})
	} else {
		deps.Logger.Warn().Msg("CPCB_API_KEY not set, serving built-in stations")
	}

	dc := airquality.DirectoryConfig{
		Source:       source,
		Logger:       deps.Logger,
		CacheTTL:     cfg.Stations.CacheTTL,
		FetchTimeout: cfg.Stations.FetchTimeout,
	}
	if deps.Metrics != nil {
		dc.Metrics = deps.Metrics
	}
	return airquality.NewDirectory(dc)
}

// NewResolver creates the location resolver. The returned close function
// releases the Redis connection when the IP cache is enabled.
func NewResolver(cfg *config.Config, flags *featureflags.Service, deps Deps) (*location.Resolver, func() error) {
	closeFn := func() error { return nil }

	precise := google.NewClient(google.ClientConfig{
		APIKey:   cfg.Geocoding.GoogleAPIKey,
		Registry: deps.Registry,
	})
	open := nominatim.NewClient(nominatim.ClientConfig{
		UserAgent: cfg.Geocoding.NominatimUserAgent,
		Registry:  deps.Registry,
	})

	ipLocators := []location.IPLocator{
		ipapi.NewClient(ipapi.ClientConfig{Registry: deps.Registry}),
		ipinfo.NewClient(ipinfo.ClientConfig{Token: cfg.Geocoding.IPInfoToken, Registry: deps.Registry}),
	}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		for i, l := range ipLocators {
			ipLocators[i] = ipcache.New(ipcache.Config{
				Next:   l,
				Store:  rdb,
				TTL:    cfg.Redis.IPCacheTTL,
				Logger: deps.Logger,
			})
		}
		closeFn = rdb.Close
		deps.Logger.Info().Str("addr", cfg.Redis.Addr).Msg("IP lookup cache enabled")
	}

	rc := location.ResolverConfig{
		Geocoders: []location.Geocoder{
			location.Gate(precise, func(ctx context.Context) bool {
				return !flags.IsPrecisionGeocoderDisabled(ctx)
			}),
			// Snapping applies to open-geocoder results only.
			location.Refine(open, location.NewMumbaiSnapper(flags.IsLocalitySnapEnabled)),
		},
		IPLocators: ipLocators,
		DeviceEnabled: func(ctx context.Context) bool {
			return !flags.IsDeviceLocationDisabled(ctx)
		},
		Logger: deps.Logger,
	}
	if cfg.Device.GPSDAddr != "" {
		rc.Device = gpsd.NewClient(gpsd.Config{
			Addr:    cfg.Device.GPSDAddr,
			Consent: cfg.Device.Consent,
			Logger:  deps.Logger,
		})
	}
	if deps.Metrics != nil {
		rc.Metrics = deps.Metrics
	}

	return location.NewResolver(rc), closeFn
}
