// Package location resolves where a user is: device fixes, IP approximation,
// reverse geocoding through an ordered chain of geocoders, and the service
// region check.
package location

import (
	"errors"
	"time"

	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

// Failure conditions surfaced to callers. Geocoder and IP-source errors never
// leave this package; device location errors are always one of the first three.
var (
	// ErrNoCapability is returned when no device location source is available.
	ErrNoCapability = errors.New("location: device location not available")

	// ErrPermissionDenied is returned when the user has not consented to device location.
	ErrPermissionDenied = errors.New("location: permission denied")

	// ErrTimeout is returned when no fix was obtained in time.
	ErrTimeout = errors.New("location: timed out waiting for a fix")

	// ErrNoResult is returned by a geocoder or IP source that answered without a usable result.
	ErrNoResult = errors.New("location: no result")

	// ErrMissingCredential is returned by a geocoder that needs an access key it was not given.
	ErrMissingCredential = errors.New("location: missing credential")

	// ErrDisabled is returned by a geocoder switched off at runtime.
	ErrDisabled = errors.New("location: strategy disabled")
)

const (
	// Unknown fills place fields no strategy could determine.
	Unknown = "Unknown"

	// DefaultCountry is reported by the terminal fallback.
	DefaultCountry = "India"

	// SourceFallback labels a ResolvedLocation built without any geocoder.
	SourceFallback = "fallback"

	// SourceDefault labels the fixed default Fix.
	SourceDefault = "default"

	// IPAccuracyM is the nominal error radius of an IP-derived fix.
	IPAccuracyM = 50_000

	// DefaultAccuracyM is the error radius reported for DefaultCoordinate.
	DefaultAccuracyM = 100_000
)

// DefaultCoordinate is New Delhi. It is used when no better position is known.
var DefaultCoordinate = geo.Coordinate{Lat: 28.6139, Lon: 77.2090}

// Fix is a position estimate with its nominal error radius.
type Fix struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	AccuracyM  float64        `json:"accuracyMeters"`
	Timestamp  time.Time      `json:"timestamp"`
	Source     string         `json:"source"`
}

// ResolvedLocation is a human-readable place for a coordinate. City, State,
// Country and FormattedAddress are never empty.
type ResolvedLocation struct {
	Coordinate       geo.Coordinate `json:"coordinate"`
	City             string         `json:"city"`
	Locality         string         `json:"locality,omitempty"`
	District         string         `json:"district,omitempty"`
	State            string         `json:"state"`
	Country          string         `json:"country"`
	FormattedAddress string         `json:"formattedAddress"`

	// Source names the strategy that produced this result.
	Source string `json:"source"`

	// LowConfidence is set on the terminal fallback.
	LowConfidence bool `json:"lowConfidence"`
}

// FallbackLocation is the terminal result for c when every geocoder failed.
func FallbackLocation(c geo.Coordinate) ResolvedLocation {
	return ResolvedLocation{
		Coordinate:       c,
		City:             Unknown,
		State:            Unknown,
		Country:          DefaultCountry,
		FormattedAddress: c.Format(4),
		Source:           SourceFallback,
		LowConfidence:    true,
	}
}

// normalize fills empty required fields so a geocoder result upholds the
// ResolvedLocation contract.
func (l *ResolvedLocation) normalize(c geo.Coordinate) {
	l.Coordinate = c
	if l.City == "" {
		l.City = Unknown
	}
	if l.State == "" {
		l.State = Unknown
	}
	if l.Country == "" {
		l.Country = Unknown
	}
	if l.FormattedAddress == "" {
		l.FormattedAddress = c.Format(4)
	}
}
