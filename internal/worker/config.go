// Package worker provides background station refresh and coverage checks.
package worker

import (
	"time"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

// CoverageTarget is a place that should have a monitoring station nearby.
type CoverageTarget struct {
	Name       string
	State      string
	Coordinate geo.Coordinate
}

// RefreshConfig holds configuration for the station refresh job.
type RefreshConfig struct {
	// Targets are the places checked for coverage.
	// If empty, uses DefaultTargets.
	Targets []CoverageTarget

	// Concurrency is the number of concurrent coverage checks.
	// Default: 3
	Concurrency int

	// Timeout bounds each coverage check.
	// Default: 30 seconds
	Timeout time.Duration

	// CoverageRadiusKm is the distance beyond which a target counts as
	// uncovered. Default: 50
	CoverageRadiusKm float64
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:          DefaultTargets(),
		Concurrency:      3,
		Timeout:          30 * time.Second,
		CoverageRadiusKm: 50,
	}
}

// DefaultTargets returns the suggestion cities as coverage targets.
func DefaultTargets() []CoverageTarget {
	targets := make([]CoverageTarget, 0, len(location.Cities))
	for _, c := range location.Cities {
		targets = append(targets, CoverageTarget{Name: c.Name, State: c.State, Coordinate: c.Coordinate})
	}
	return targets
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	def := DefaultRefreshConfig()
	if len(c.Targets) == 0 {
		c.Targets = def.Targets
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	if c.CoverageRadiusKm == 0 {
		c.CoverageRadiusKm = def.CoverageRadiusKm
	}
	return c
}
