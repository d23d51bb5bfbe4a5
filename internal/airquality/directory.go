package airquality

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

// Source fetches raw station records from an external data provider.
type Source interface {
	// Name identifies the provider in logs and cache status.
	Name() string

	// FetchRecords returns the provider's current station records.
	FetchRecords(ctx context.Context) ([]Record, error)
}

// CacheRecorder receives cache hit/miss notifications.
type CacheRecorder interface {
	RecordCacheHit(provider, operation string)
	RecordCacheMiss(provider, operation string)
}

// DirectoryConfig holds configuration for the station directory.
type DirectoryConfig struct {
	// Source is the station data provider. If nil, the built-in list is always served.
	Source Source

	// Logger for directory operations.
	Logger zerolog.Logger

	// CacheTTL is how long a loaded station list is served without I/O (default: 5 minutes).
	CacheTTL time.Duration

	// FetchTimeout bounds a single fetch from Source (default: 10 seconds).
	FetchTimeout time.Duration

	// Clock is the time source (default: real clock).
	Clock clockwork.Clock

	// Fallback produces the station list used when the source fails
	// (default: BuiltinStations).
	Fallback func(now time.Time) []Station

	// Metrics records cache hits and misses. Optional.
	Metrics CacheRecorder
}

// Directory owns the set of known monitoring stations and answers spatial and
// text queries against it. The station list is replaced wholesale on refresh.
type Directory struct {
	source       Source
	logger       zerolog.Logger
	cacheTTL     time.Duration
	fetchTimeout time.Duration
	clock        clockwork.Clock
	fallback     func(now time.Time) []Station
	metrics      CacheRecorder

	group singleflight.Group

	mu        sync.RWMutex
	stations  []Station
	fetchedAt time.Time
	provider  string
}

// NewDirectory creates a new station directory.
func NewDirectory(cfg DirectoryConfig) *Directory {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = 10 * time.Second
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	fallback := cfg.Fallback
	if fallback == nil {
		fallback = BuiltinStations
	}

	return &Directory{
		source:       cfg.Source,
		logger:       cfg.Logger,
		cacheTTL:     cacheTTL,
		fetchTimeout: fetchTimeout,
		clock:        clock,
		fallback:     fallback,
		metrics:      cfg.Metrics,
	}
}

// GetAllStations returns every known station. It serves the cached list while
// it is younger than the cache TTL, otherwise fetches from the source. Fetch
// failures are absorbed: the built-in list is cached and returned instead.
func (d *Directory) GetAllStations(ctx context.Context) []Station {
	if stations, ok := d.cached(); ok {
		d.recordHit()
		return stations
	}
	d.recordMiss()

	// Concurrent misses share one fetch.
	v, _, _ := d.group.Do("stations", func() (interface{}, error) {
		if stations, ok := d.cached(); ok {
			return stations, nil
		}
		return d.load(ctx), nil
	})

	return clone(v.([]Station))
}

// FindNearestStation returns the station closest to c by great-circle distance.
// The boolean is false when the directory holds no stations.
func (d *Directory) FindNearestStation(ctx context.Context, c geo.Coordinate) (Nearest, bool) {
	return NearestStation(d.GetAllStations(ctx), c)
}

// SearchStationsByCity returns stations whose city, state or name contains text,
// ignoring case. Order is preserved. Empty text matches every station.
func (d *Directory) SearchStationsByCity(ctx context.Context, text string) []Station {
	stations := d.GetAllStations(ctx)
	term := strings.ToLower(text)

	matches := make([]Station, 0, len(stations))
	for _, s := range stations {
		if strings.Contains(strings.ToLower(s.City), term) ||
			strings.Contains(strings.ToLower(s.State), term) ||
			strings.Contains(strings.ToLower(s.Name), term) {
			matches = append(matches, s)
		}
	}
	return matches
}

// Refresh discards the cached list and loads a new one.
func (d *Directory) Refresh(ctx context.Context) []Station {
	d.InvalidateCache()
	return d.GetAllStations(ctx)
}

// InvalidateCache clears the cached station list.
func (d *Directory) InvalidateCache() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stations = nil
	d.fetchedAt = time.Time{}
	d.provider = ""
}

// CacheStatus represents the current state of the station cache.
type CacheStatus struct {
	HasData      bool
	FetchedAt    time.Time
	ExpiresAt    time.Time
	IsExpired    bool
	StationCount int
	Provider     string
}

// CacheStatus returns information about the current cache state.
func (d *Directory) CacheStatus() CacheStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stations == nil {
		return CacheStatus{HasData: false}
	}

	expiresAt := d.fetchedAt.Add(d.cacheTTL)
	return CacheStatus{
		HasData:      true,
		FetchedAt:    d.fetchedAt,
		ExpiresAt:    expiresAt,
		IsExpired:    !d.clock.Now().Before(expiresAt),
		StationCount: len(d.stations),
		Provider:     d.provider,
	}
}

func (d *Directory) cached() ([]Station, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stations == nil || d.clock.Since(d.fetchedAt) >= d.cacheTTL {
		return nil, false
	}
	return clone(d.stations), true
}

// load fetches from the source, falling back to the built-in list, and stores
// the result. It never fails.
func (d *Directory) load(ctx context.Context) []Station {
	stations, provider := d.fetch(ctx)
	if stations == nil {
		// A nil list reads as "not loaded"; an empty one is cached like any other.
		stations = []Station{}
	}
	now := d.clock.Now()

	d.mu.Lock()
	d.stations = stations
	d.fetchedAt = now
	d.provider = provider
	d.mu.Unlock()

	d.logger.Info().
		Str("provider", provider).
		Int("stations", len(stations)).
		Time("expires_at", now.Add(d.cacheTTL)).
		Msg("station directory refreshed")

	return stations
}

func (d *Directory) fetch(ctx context.Context) ([]Station, string) {
	if d.source == nil {
		return d.fallback(d.clock.Now()), BuiltinProvider
	}

	// The fetch is shared by every waiting caller, so one caller's
	// cancellation must not abort it.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.fetchTimeout)
	defer cancel()

	d.logger.Debug().Str("provider", d.source.Name()).Msg("fetching stations")

	records, err := d.source.FetchRecords(fetchCtx)
	if err == nil && len(records) == 0 {
		err = ErrNoStations
	}
	if err != nil {
		d.logger.Warn().
			Err(err).
			Str("provider", d.source.Name()).
			Msg("station fetch failed, serving built-in stations")
		return d.fallback(d.clock.Now()), BuiltinProvider
	}

	return ParseStations(records, d.clock.Now()), d.source.Name()
}

func (d *Directory) recordHit() {
	if d.metrics != nil {
		d.metrics.RecordCacheHit(d.sourceName(), "stations")
	}
}

func (d *Directory) recordMiss() {
	if d.metrics != nil {
		d.metrics.RecordCacheMiss(d.sourceName(), "stations")
	}
}

func (d *Directory) sourceName() string {
	if d.source == nil {
		return BuiltinProvider
	}
	return d.source.Name()
}

func clone(stations []Station) []Station {
	out := make([]Station, len(stations))
	copy(out, stations)
	return out
}
