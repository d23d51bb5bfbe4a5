package location

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// IPLocator approximates a position from an IP address. An empty ip means the
// address the request leaves from.
type IPLocator interface {
	Name() string
	Locate(ctx context.Context, ip string) (Fix, error)
}

// ApproximateLocationByIP tries each IP source in order and returns the first
// valid fix. If every source fails it returns DefaultCoordinate. It never fails.
func (r *Resolver) ApproximateLocationByIP(ctx context.Context, ip string) Fix {
	ctx, span := r.tracer.Start(ctx, "location.ip_approximation")
	defer span.End()

	for _, l := range r.ipLocators {
		fix, err := r.locate(ctx, l, ip)
		if err != nil {
			r.logger.Warn().Err(err).Str("provider", l.Name()).Msg("ip lookup failed, trying next")
			continue
		}
		span.SetAttributes(attribute.String("location.source", fix.Source))
		return fix
	}

	r.logger.Warn().Bool("client_ip", ip != "").Msg("all ip lookups failed, using default coordinate")
	span.SetAttributes(attribute.String("location.source", SourceDefault))

	return Fix{
		Coordinate: DefaultCoordinate,
		AccuracyM:  DefaultAccuracyM,
		Timestamp:  r.clock.Now(),
		Source:     SourceDefault,
	}
}

func (r *Resolver) locate(ctx context.Context, l IPLocator, ip string) (Fix, error) {
	ctx, cancel := context.WithTimeout(ctx, r.ipTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "location.ip."+l.Name(), trace.WithAttributes(attribute.Bool("location.client_ip", ip != "")))
	defer span.End()

	start := r.clock.Now()
	fix, err := l.Locate(ctx, ip)
	r.record(l.Name(), "locate_ip", start, err)
	if err != nil {
		span.RecordError(err)
		return Fix{}, err
	}
	if err := fix.Coordinate.Validate(); err != nil {
		return Fix{}, fmt.Errorf("%s returned %w", l.Name(), err)
	}

	if fix.AccuracyM <= 0 {
		fix.AccuracyM = IPAccuracyM
	}
	if fix.Source == "" {
		fix.Source = l.Name()
	}
	if fix.Timestamp.IsZero() {
		fix.Timestamp = r.clock.Now()
	}
	return fix, nil
}
