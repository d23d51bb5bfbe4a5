// Package dashboard composes a resolved place and its nearest station into
// the record shown to a user.
package dashboard

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/airquality"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

// SourceRequest labels a position supplied by the caller.
const SourceRequest = "request"

// Stations answers nearest-station queries.
type Stations interface {
	FindNearestStation(ctx context.Context, c geo.Coordinate) (airquality.Nearest, bool)
}

// Locator resolves positions and places.
type Locator interface {
	ApproximateLocationByIP(ctx context.Context, ip string) location.Fix
	ReverseGeocode(ctx context.Context, c geo.Coordinate) location.ResolvedLocation
}

// Request selects the position to compose a record for. Position takes
// precedence over Coordinate; without either the position is approximated
// from IP.
type Request struct {
	Position   *location.Fix
	Coordinate *geo.Coordinate
	IP         string
}

// Record is the composed display record.
type Record struct {
	Position location.Fix
	Location location.ResolvedLocation

	// Substituted is set when the requested position was outside the
	// service region and DefaultCoordinate was used instead.
	Substituted bool

	// Station is nil when no station is known.
	Station    *airquality.Station
	DistanceKm float64
	Advisory   *airquality.Advisory

	GeneratedAt time.Time
}

// ServiceConfig holds configuration for the dashboard service.
type ServiceConfig struct {
	Stations Stations
	Locator  Locator
	Logger   zerolog.Logger
	Clock    clockwork.Clock
}

// Service composes dashboard records.
type Service struct {
	stations Stations
	locator  Locator
	logger   zerolog.Logger
	clock    clockwork.Clock
}

// NewService creates a new dashboard service.
func NewService(cfg ServiceConfig) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		stations: cfg.Stations,
		locator:  cfg.Locator,
		logger:   cfg.Logger,
		clock:    clock,
	}
}

// Compose resolves the request position, then labels it and finds its
// nearest station concurrently. It never fails; missing pieces are left nil.
func (s *Service) Compose(ctx context.Context, req Request) Record {
	position := s.position(ctx, req)

	c, inRegion := location.InRegionOrDefault(position.Coordinate)
	record := Record{Position: position, Substituted: !inRegion}
	if !inRegion {
		s.logger.Info().
			Str("requested", position.Coordinate.String()).
			Msg("position outside service region, using default")
		record.Position = location.Fix{
			Coordinate: c,
			AccuracyM:  location.DefaultAccuracyM,
			Timestamp:  position.Timestamp,
			Source:     location.SourceDefault,
		}
	}

	var (
		place   location.ResolvedLocation
		nearest airquality.Nearest
		found   bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		place = s.locator.ReverseGeocode(gctx, c)
		return nil
	})
	g.Go(func() error {
		nearest, found = s.stations.FindNearestStation(gctx, c)
		return nil
	})
	_ = g.Wait()

	record.Location = place
	if found {
		station := nearest.Station
		advisory := airquality.AdvisoryFor(station.AQI)
		record.Station = &station
		record.DistanceKm = nearest.DistanceKm
		record.Advisory = &advisory
	} else {
		s.logger.Warn().Str("coordinate", c.String()).Msg("no station available for dashboard")
	}
	record.GeneratedAt = s.clock.Now()

	return record
}

func (s *Service) position(ctx context.Context, req Request) location.Fix {
	if req.Position != nil {
		return *req.Position
	}
	if req.Coordinate != nil {
		return location.Fix{
			Coordinate: *req.Coordinate,
			Timestamp:  s.clock.Now(),
			Source:     SourceRequest,
		}
	}
	return s.locator.ApproximateLocationByIP(ctx, req.IP)
}
