// Package featureflags provides runtime switches for the location and
// station lookup behaviour, stored in Postgres or in memory.
package featureflags

import (
	"errors"
	"fmt"
	"time"
)

// Well-known feature flag keys.
const (
	// FlagEnableLocalitySnap enables snapping vague Mumbai localities to the
	// nearest named reference locality during reverse geocoding.
	FlagEnableLocalitySnap = "enable_locality_snap"

	// FlagDisablePrecisionGeocoder skips the credentialed geocoder even when a key is configured.
	FlagDisablePrecisionGeocoder = "disable_precision_geocoder"

	// FlagDisableDeviceLocation makes device location report no capability.
	FlagDisableDeviceLocation = "disable_device_location"

	// FlagCoverageRadiusKm is the distance beyond which a city counts as uncovered.
	FlagCoverageRadiusKm = "coverage_radius_km"
)

// Flag is a flag value and who last changed it.
type Flag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updatedAt"`
	UpdatedBy string      `json:"updatedBy,omitempty"`
	Reason    string      `json:"reason,omitempty"`
}

// FlagList represents a list of feature flags.
type FlagList struct {
	Items []Flag `json:"items"`
}

// FlagHistory lists past values of one flag, newest first.
type FlagHistory struct {
	Key   string `json:"key"`
	Items []Flag `json:"items"`
}

// FlagUpdate represents a single flag update request.
type FlagUpdate struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// FlagUpdateRequest represents a request to update feature flags.
type FlagUpdateRequest struct {
	Updates []FlagUpdate `json:"updates"`
	Reason  string       `json:"reason"`
}

var (
	ErrUnknownFlag  = errors.New("unknown feature flag")
	ErrInvalidValue = errors.New("invalid feature flag value")
)

// maxCoverageRadiusKm bounds the coverage radius to roughly the width of India.
const maxCoverageRadiusKm = 3000

// ValidateUpdate checks that key is a known flag and value has its type.
// Boolean flags take JSON booleans; the coverage radius takes a positive number.
func ValidateUpdate(key string, value interface{}) error {
	switch key {
	case FlagEnableLocalitySnap, FlagDisablePrecisionGeocoder, FlagDisableDeviceLocation:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %s must be a boolean", ErrInvalidValue, key)
		}
	case FlagCoverageRadiusKm:
		v, ok := value.(float64)
		if !ok || v <= 0 || v > maxCoverageRadiusKm {
			return fmt.Errorf("%w: %s must be a number in (0, %d]", ErrInvalidValue, key, maxCoverageRadiusKm)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFlag, key)
	}
	return nil
}

// IsKnown reports whether key is one of the well-known flags.
func IsKnown(key string) bool {
	_, ok := DefaultFlags()[key]
	return ok
}

// BoolValue returns the flag value as a boolean.
// Returns the default value if the flag is nil, not found, or not a boolean.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON unmarshals numbers as float64
		return v != 0
	default:
		return defaultValue
	}
}

// Float64Value returns the flag value as a float64.
// Returns the default value if the flag is nil, not found, or not a number.
func (f *Flag) Float64Value(defaultValue float64) float64 {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return defaultValue
	}
}

// DefaultFlags returns the flag values used when nothing is stored.
func DefaultFlags() map[string]*Flag {
	now := time.Now()
	return map[string]*Flag{
		FlagEnableLocalitySnap:       {Key: FlagEnableLocalitySnap, Value: false, UpdatedAt: now},
		FlagDisablePrecisionGeocoder: {Key: FlagDisablePrecisionGeocoder, Value: false, UpdatedAt: now},
		FlagDisableDeviceLocation:    {Key: FlagDisableDeviceLocation, Value: false, UpdatedAt: now},
		FlagCoverageRadiusKm:         {Key: FlagCoverageRadiusKm, Value: float64(50), UpdatedAt: now},
	}
}
