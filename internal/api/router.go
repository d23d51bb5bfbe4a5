// Package api provides the HTTP API for Local Air Guardian.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/airquality"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/handler"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/middleware"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/response"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/auth"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/dashboard"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/featureflags"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool

	// JWT validates admin bearer tokens. Nil leaves the admin routes unmounted.
	JWT middleware.TokenValidator

	Directory    *airquality.Directory
	Resolver     *location.Resolver
	Dashboard    *dashboard.Service
	FeatureFlags *featureflags.Service
	Registry     *resilience.Registry
	Subsystems   []handler.StatusChecker
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "local-air-guardian-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.URL.Path)
	})

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:    cfg.Version,
		BuildTime:  cfg.BuildTime,
		Directory:  cfg.Directory,
		Registry:   cfg.Registry,
		Subsystems: cfg.Subsystems,
	})

	lookupRateLimit := middleware.RateLimitByIP(middleware.LookupRateLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		if cfg.Directory != nil {
			stationsHandler := handler.NewStationsHandler(cfg.Directory)
			r.Route("/stations", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/", stationsHandler.ListStations)
				r.Get("/nearest", stationsHandler.NearestStation)
				r.Get("/search", stationsHandler.SearchStations)
			})
		}

		if cfg.Resolver != nil {
			locationsHandler := handler.NewLocationsHandler(cfg.Resolver)
			r.Route("/locations", func(r chi.Router) {
				r.Get("/region", locationsHandler.CheckRegion)
				r.Get("/suggestions", locationsHandler.Suggestions)
				// Upstream lookups are metered by third parties.
				r.With(lookupRateLimit).Get("/reverse", locationsHandler.ReverseGeocode)
				r.With(lookupRateLimit).Get("/ip", locationsHandler.ApproximateByIP)
			})
		}

		// The advisory table is static and served even without a dashboard.
		dashboardHandler := handler.NewDashboardHandler(cfg.Dashboard)
		r.With(standardRateLimit).Get("/advisories", dashboardHandler.GetAdvisory)
		if cfg.Dashboard != nil {
			r.With(lookupRateLimit).Get("/dashboard", dashboardHandler.GetDashboard)
		}

		if cfg.JWT != nil && cfg.FeatureFlags != nil {
			featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlags, cfg.Logger)
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, auth.RoleAdmin))
				r.Use(middleware.RateLimitByUser(middleware.AdminRateLimit))

				r.Route("/feature-flags", func(r chi.Router) {
					r.Get("/", featureFlagsHandler.ListFeatureFlags)
					r.With(middleware.RequireJSON).Put("/", featureFlagsHandler.UpsertFeatureFlags)
					r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
					r.Get("/{key}/history", featureFlagsHandler.FlagHistory)
				})
			})
		}
	})

	return r
}
