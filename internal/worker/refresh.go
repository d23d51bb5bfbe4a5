package worker

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/airquality"
)

// Directory is the station directory the job maintains.
type Directory interface {
	GetAllStations(ctx context.Context) []airquality.Station
	Refresh(ctx context.Context) []airquality.Station
	CacheStatus() airquality.CacheStatus
}

// RefreshJob reloads the station directory and reports coverage gaps.
type RefreshJob struct {
	config    RefreshConfig
	directory Directory
	radius    func(ctx context.Context) float64
	logger    zerolog.Logger
	clock     clockwork.Clock

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns      int64
	StationReloads int64
	CoverageChecks int64
	LastGapCount   int

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
	LastProvider    string
	LastStationSize int
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config    RefreshConfig
	Directory Directory

	// CoverageRadius overrides Config.CoverageRadiusKm per run when set,
	// typically from the feature flag service.
	CoverageRadius func(ctx context.Context) float64

	Logger zerolog.Logger
	Clock  clockwork.Clock
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &RefreshJob{
		config:    cfg.Config.withDefaults(),
		directory: cfg.Directory,
		radius:    cfg.CoverageRadius,
		logger:    cfg.Logger,
		clock:     clock,
		metrics:   &RefreshMetrics{},
	}
}

// CoverageGap is a target whose nearest station is too far away, or which
// has no station at all.
type CoverageGap struct {
	Target         CoverageTarget
	NearestStation string
	DistanceKm     float64
}

// RefreshResult contains the result of a run.
type RefreshResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Reloaded     bool
	Provider     string
	StationCount int

	RadiusKm     float64
	TotalTargets int
	Checked      int
	Covered      int
	Gaps         []CoverageGap
}

// Run reloads the station directory from its source and then checks coverage.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	return j.run(ctx, true)
}

// CheckCoverage checks coverage against the currently cached stations.
func (j *RefreshJob) CheckCoverage(ctx context.Context) *RefreshResult {
	return j.run(ctx, false)
}

func (j *RefreshJob) run(ctx context.Context, reload bool) *RefreshResult {
	startTime := j.clock.Now()
	result := &RefreshResult{
		StartTime:    startTime,
		Reloaded:     reload,
		RadiusKm:     j.radiusKm(ctx),
		TotalTargets: len(j.config.Targets),
	}

	j.logger.Info().
		Bool("reload", reload).
		Int("targets", result.TotalTargets).
		Int("concurrency", j.config.Concurrency).
		Msg("starting station refresh job")

	var stations []airquality.Station
	if reload {
		stations = j.directory.Refresh(ctx)
	} else {
		stations = j.directory.GetAllStations(ctx)
	}
	result.StationCount = len(stations)
	result.Provider = j.directory.CacheStatus().Provider

	j.checkCoverage(ctx, stations, result)

	result.EndTime = j.clock.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	ev := j.logger.Info()
	if len(result.Gaps) > 0 {
		ev = j.logger.Warn()
	}
	ev.Dur("duration", result.Duration).
		Str("provider", result.Provider).
		Int("stations", result.StationCount).
		Int("covered", result.Covered).
		Int("gaps", len(result.Gaps)).
		Float64("radius_km", result.RadiusKm).
		Msg("station refresh job completed")

	return result
}

func (j *RefreshJob) radiusKm(ctx context.Context) float64 {
	if j.radius != nil {
		if r := j.radius(ctx); r > 0 {
			return r
		}
	}
	return j.config.CoverageRadiusKm
}

type targetResult struct {
	target  CoverageTarget
	nearest airquality.Nearest
	found   bool
}

func (j *RefreshJob) checkCoverage(ctx context.Context, stations []airquality.Station, result *RefreshResult) {
	targets := make(chan CoverageTarget, len(j.config.Targets))
	results := make(chan targetResult, len(j.config.Targets))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.coverageWorker(ctx, stations, targets, results)
		}()
	}

	for _, t := range j.config.Targets {
		targets <- t
	}
	close(targets)

	go func() {
		wg.Wait()
		close(results)
	}()

	byName := make(map[string]targetResult, len(j.config.Targets))
	for tr := range results {
		byName[tr.target.Name] = tr
	}

	// Report in configured order regardless of completion order.
	for _, t := range j.config.Targets {
		tr, ok := byName[t.Name]
		if !ok {
			continue
		}
		result.Checked++
		switch {
		case !tr.found:
			result.Gaps = append(result.Gaps, CoverageGap{Target: t, DistanceKm: -1})
		case tr.nearest.DistanceKm > result.RadiusKm:
			result.Gaps = append(result.Gaps, CoverageGap{
				Target:         t,
				NearestStation: tr.nearest.Station.ID,
				DistanceKm:     tr.nearest.DistanceKm,
			})
		default:
			result.Covered++
		}
	}
}

func (j *RefreshJob) coverageWorker(ctx context.Context, stations []airquality.Station, targets <-chan CoverageTarget, results chan<- targetResult) {
	for t := range targets {
		select {
		case <-ctx.Done():
			return
		default:
		}

		nearest, found := airquality.NearestStation(stations, t.Coordinate)
		if found {
			j.logger.Debug().
				Str("target", t.Name).
				Str("station", nearest.Station.ID).
				Float64("distance_km", nearest.DistanceKm).
				Msg("coverage checked")
		}
		results <- targetResult{target: t, nearest: nearest, found: found}
	}
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	if result.Reloaded {
		j.metrics.StationReloads++
	}
	j.metrics.CoverageChecks += int64(result.Checked)
	j.metrics.LastGapCount = len(result.Gaps)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
	j.metrics.LastProvider = result.Provider
	j.metrics.LastStationSize = result.StationCount
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		StationReloads:  j.metrics.StationReloads,
		CoverageChecks:  j.metrics.CoverageChecks,
		LastGapCount:    j.metrics.LastGapCount,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
		LastProvider:    j.metrics.LastProvider,
		LastStationSize: j.metrics.LastStationSize,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"station_reloads":   m.StationReloads,
		"coverage_checks":   m.CoverageChecks,
		"last_gap_count":    m.LastGapCount,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
		"last_provider":     m.LastProvider,
		"last_station_size": m.LastStationSize,
	}
}
