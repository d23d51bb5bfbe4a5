// Package main provides a command that resolves the current position and
// prints the nearest station's dashboard record as JSON.
//
// The position comes from gpsd when GPSD_ADDR is set and
// DEVICE_LOCATION_CONSENT is true, otherwise from the public IP address.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/models"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/app"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/config"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/dashboard"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/provider/resilience"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/telemetry"
)

func main() {
	ip := flag.String("ip", "", "look up this address instead of the caller's public IP")
	timeout := flag.Duration("timeout", 45*time.Second, "overall time limit")
	skipDevice := flag.Bool("no-device", false, "skip device location even when gpsd is configured")
	flag.Parse()

	if err := run(*ip, *timeout, *skipDevice); err != nil {
		fmt.Fprintf(os.Stderr, "locate: %v\n", err)
		os.Exit(1)
	}
}

func run(ip string, timeout time.Duration, skipDevice bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := telemetry.NewLogger(os.Stderr, telemetry.LogConfig{
		Environment: cfg.App.Env,
		Level:       cfg.Telemetry.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	deps := app.Deps{Logger: log, Registry: resilience.NewRegistry(resilience.WithLogger(log))}

	flags, pool, err := app.NewFeatureFlags(ctx, cfg, deps)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	resolver, closeResolver := app.NewResolver(cfg, flags, deps)
	defer func() { _ = closeResolver() }()

	svc := dashboard.NewService(dashboard.ServiceConfig{
		Stations: app.NewDirectory(cfg, deps),
		Locator:  resolver,
		Logger:   log,
	})

	req := dashboard.Request{IP: ip}
	if cfg.Device.GPSDAddr != "" && !skipDevice && ip == "" {
		fix, err := resolver.CurrentDeviceLocation(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("device location unavailable, using IP")
		} else {
			req.Position = &fix
		}
	}
	if req.Position == nil && ctx.Err() != nil {
		return ctx.Err()
	}

	record := svc.Compose(ctx, req)
	if record.Position.Source == location.SourceDefault {
		log.Warn().Msg("no position source succeeded, showing the default location")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(models.NewDashboard(record))
}
