package location

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

const tracerName = "github.com/SaniyaPatil13/local-air-guardian-now/internal/location"

// ResolverConfig holds configuration for the location resolver.
type ResolverConfig struct {
	// Geocoders are tried in order; the first success wins. Tier-specific
	// refinement is attached with Refine.
	Geocoders []Geocoder

	// IPLocators are tried in order by ApproximateLocationByIP.
	IPLocators []IPLocator

	// Device is the device location source. Nil means no capability.
	Device DeviceSource

	// DeviceEnabled gates device location per call. Nil means always enabled.
	DeviceEnabled func(ctx context.Context) bool

	// Device sampling parameters (defaults: 8s, 30m, 10s, 5m).
	HighAccuracyWait time.Duration
	TargetAccuracyM  float64
	StandardTimeout  time.Duration
	MaxFixAge        time.Duration

	// IPTimeout bounds each IP source (default: 5s).
	IPTimeout time.Duration

	// GeocodeTimeout bounds each geocoder (default: 10s).
	GeocodeTimeout time.Duration

	// Metrics records per-tier outcomes. Optional.
	Metrics RequestRecorder

	Logger zerolog.Logger
	Clock  clockwork.Clock
	Tracer trace.Tracer
}

// RequestRecorder records the duration and outcome of upstream calls.
type RequestRecorder interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
}

// Resolver answers device, IP and reverse-geocoding queries.
type Resolver struct {
	geocoders     []Geocoder
	ipLocators    []IPLocator
	device        DeviceSource
	deviceEnabled func(ctx context.Context) bool

	highAccuracyWait time.Duration
	targetAccuracyM  float64
	standardTimeout  time.Duration
	maxFixAge        time.Duration
	ipTimeout        time.Duration
	geocodeTimeout   time.Duration

	metrics RequestRecorder
	logger  zerolog.Logger
	clock   clockwork.Clock
	tracer  trace.Tracer
}

// NewResolver creates a new location resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	r := &Resolver{
		geocoders:        cfg.Geocoders,
		ipLocators:       cfg.IPLocators,
		device:           cfg.Device,
		deviceEnabled:    cfg.DeviceEnabled,
		highAccuracyWait: cfg.HighAccuracyWait,
		targetAccuracyM:  cfg.TargetAccuracyM,
		standardTimeout:  cfg.StandardTimeout,
		maxFixAge:        cfg.MaxFixAge,
		ipTimeout:        cfg.IPTimeout,
		geocodeTimeout:   cfg.GeocodeTimeout,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger,
		clock:            cfg.Clock,
		tracer:           cfg.Tracer,
	}

	if r.highAccuracyWait == 0 {
		r.highAccuracyWait = 8 * time.Second
	}
	if r.targetAccuracyM == 0 {
		r.targetAccuracyM = 30
	}
	if r.standardTimeout == 0 {
		r.standardTimeout = 10 * time.Second
	}
	if r.maxFixAge == 0 {
		r.maxFixAge = 5 * time.Minute
	}
	if r.ipTimeout == 0 {
		r.ipTimeout = 5 * time.Second
	}
	if r.geocodeTimeout == 0 {
		r.geocodeTimeout = 10 * time.Second
	}
	if r.clock == nil {
		r.clock = clockwork.NewRealClock()
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(tracerName)
	}

	return r
}

// ReverseGeocode resolves c to a place. Geocoders run one at a time in
// configured order. If all of them fail the result is FallbackLocation(c).
// It never fails.
func (r *Resolver) ReverseGeocode(ctx context.Context, c geo.Coordinate) ResolvedLocation {
	ctx, span := r.tracer.Start(ctx, "location.reverse_geocode",
		trace.WithAttributes(
			attribute.Float64("geo.lat", c.Lat),
			attribute.Float64("geo.lon", c.Lon),
		),
	)
	defer span.End()

	for _, g := range r.geocoders {
		loc, err := r.attempt(ctx, g, c)
		if err != nil {
			continue
		}

		span.SetAttributes(attribute.String("location.source", loc.Source))
		return loc
	}

	r.logger.Warn().
		Str("coordinate", c.String()).
		Msg("all geocoders failed, using coordinate fallback")

	span.SetAttributes(
		attribute.String("location.source", SourceFallback),
		attribute.Bool("location.low_confidence", true),
	)
	return FallbackLocation(c)
}

func (r *Resolver) attempt(ctx context.Context, g Geocoder, c geo.Coordinate) (ResolvedLocation, error) {
	ctx, span := r.tracer.Start(ctx, "location.geocoder."+g.Name())
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.geocodeTimeout)
	defer cancel()

	start := r.clock.Now()
	loc, err := g.ReverseGeocode(ctx, c)
	if !isSkip(err) {
		r.record(g.Name(), "reverse_geocode", start, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		// Disabled and unconfigured tiers are expected, not failures.
		ev := r.logger.Warn()
		if isSkip(err) {
			ev = r.logger.Debug()
		}
		ev.Err(err).Str("provider", g.Name()).Msg("geocoder failed, trying next")
		return ResolvedLocation{}, err
	}

	loc.normalize(c)
	if loc.Source == "" {
		loc.Source = g.Name()
	}

	r.logger.Debug().
		Str("provider", g.Name()).
		Str("city", loc.City).
		Str("locality", loc.Locality).
		Msg("geocoder resolved location")

	return loc, nil
}

func (r *Resolver) record(provider, operation string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordRequest(provider, operation, r.clock.Since(start), err)
}
