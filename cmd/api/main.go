// Package main provides the entrypoint for the Local Air Guardian API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/handler"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/middleware"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/app"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/auth"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/config"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/dashboard"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/database"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/provider/resilience"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "local-air-guardian-api"

	issueToken := flag.String("issue-admin-token", "", "print an admin bearer token for the given subject and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := telemetry.NewLogger(os.Stdout, telemetry.LogConfig{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.App.Env,
		Level:          cfg.Telemetry.LogLevel,
	})

	var jwtService *auth.JWTService
	if cfg.Auth.JWTSigningKey != "" {
		jwtService, err = auth.NewJWTService(auth.JWTConfig{SigningKey: cfg.Auth.JWTSigningKey})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize JWT service")
		}
	}

	if *issueToken != "" {
		if jwtService == nil {
			log.Fatal().Msg("JWT_SIGNING_KEY must be set to issue tokens")
		}
		token, expiresAt, err := jwtService.Issue(*issueToken, auth.RoleAdmin)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to issue token")
		}
		fmt.Println(token)
		fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
		return
	}

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Local Air Guardian API")

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.App.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.OTLPInsecure,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	providerMetrics, err := middleware.NewProviderMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize provider metrics")
	}

	registry := resilience.NewRegistry(resilience.WithLogger(log))
	deps := app.Deps{
		Logger:   log,
		Metrics:  providerMetrics,
		Registry: registry,
	}

	flags, pool, err := app.NewFeatureFlags(ctx, cfg, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize feature flags")
	}
	var subsystems []handler.StatusChecker
	if pool != nil {
		defer pool.Close()
		ping := database.HealthCheck(pool, 2*time.Second)
		subsystems = append(subsystems, handler.StatusChecker{
			Name:  "database",
			Check: func(r *http.Request) error { return ping(r.Context()) },
		})
	}
	log.Info().Msg("feature flags service initialized")

	directory := app.NewDirectory(cfg, deps)

	resolver, closeResolver := app.NewResolver(cfg, flags, deps)
	defer func() {
		if err := closeResolver(); err != nil {
			log.Warn().Err(err).Msg("failed to close IP cache")
		}
	}()

	dashboardService := dashboard.NewService(dashboard.ServiceConfig{
		Stations: directory,
		Locator:  resolver,
		Logger:   log,
	})

	routerCfg := api.RouterConfig{
		Version:      Version,
		BuildTime:    BuildTime,
		Logger:       log,
		ServiceName:  serviceName,
		Metrics:      metrics,
		RequireTLS:   cfg.App.RequireTLS,
		Directory:    directory,
		Resolver:     resolver,
		Dashboard:    dashboardService,
		FeatureFlags: flags,
		Registry:     registry,
		Subsystems:   subsystems,
	}
	if jwtService != nil {
		routerCfg.JWT = jwtService
	} else {
		log.Warn().Msg("JWT_SIGNING_KEY not set, admin endpoints disabled")
	}

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      api.NewRouter(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Load the station list before the first request.
	go directory.GetAllStations(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
