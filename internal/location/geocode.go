package location

import (
	"context"
	"errors"

	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

// Geocoder is one reverse-geocoding strategy. An error means "try the next one".
type Geocoder interface {
	Name() string
	ReverseGeocode(ctx context.Context, c geo.Coordinate) (ResolvedLocation, error)
}

// Refiner adjusts a successful geocoder result in place.
type Refiner interface {
	Refine(ctx context.Context, c geo.Coordinate, loc *ResolvedLocation)
}

// Refine wraps g so that refiners run on its successful results only. Other
// tiers in the chain are left untouched.
func Refine(g Geocoder, refiners ...Refiner) Geocoder {
	return refined{next: g, refiners: refiners}
}

type refined struct {
	next     Geocoder
	refiners []Refiner
}

func (r refined) Name() string { return r.next.Name() }

func (r refined) ReverseGeocode(ctx context.Context, c geo.Coordinate) (ResolvedLocation, error) {
	loc, err := r.next.ReverseGeocode(ctx, c)
	if err != nil {
		return ResolvedLocation{}, err
	}
	for _, ref := range r.refiners {
		ref.Refine(ctx, c, &loc)
	}
	return loc, nil
}

// Gate wraps g so that it only runs while enabled reports true. A gated-off
// geocoder fails with ErrDisabled and the chain moves on.
func Gate(g Geocoder, enabled func(ctx context.Context) bool) Geocoder {
	return gated{next: g, enabled: enabled}
}

type gated struct {
	next    Geocoder
	enabled func(ctx context.Context) bool
}

func (g gated) Name() string { return g.next.Name() }

func (g gated) ReverseGeocode(ctx context.Context, c geo.Coordinate) (ResolvedLocation, error) {
	if !g.enabled(ctx) {
		return ResolvedLocation{}, ErrDisabled
	}
	return g.next.ReverseGeocode(ctx, c)
}

func isSkip(err error) bool {
	return errors.Is(err, ErrDisabled) || errors.Is(err, ErrMissingCredential)
}
