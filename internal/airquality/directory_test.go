package airquality_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/airquality"
	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

// mockSource is a test source that returns configurable records.
type mockSource struct {
	records    []airquality.Record
	err        error
	fetchCount atomic.Int32
	fetchDelay time.Duration
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) FetchRecords(ctx context.Context) ([]airquality.Record, error) {
	m.fetchCount.Add(1)
	if m.fetchDelay > 0 {
		select {
		case <-time.After(m.fetchDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

type countingRecorder struct {
	hits, misses atomic.Int32
}

func (c *countingRecorder) RecordCacheHit(_, _ string)  { c.hits.Add(1) }
func (c *countingRecorder) RecordCacheMiss(_, _ string) { c.misses.Add(1) }

func testRecords() []airquality.Record {
	return []airquality.Record{
		{"station_id": "dl_1", "station_name": "Delhi - Anand Vihar", "state": "Delhi", "city": "Delhi",
			"latitude": "28.6469", "longitude": "77.3152", "aqi": "310"},
		{"station_id": "mh_1", "station_name": "Mumbai - Sion", "state": "Maharashtra", "city": "Mumbai",
			"latitude": "19.0473", "longitude": "72.8626", "aqi": "156"},
		{"station_id": "ka_1", "station_name": "Bengaluru - BTM Layout", "state": "Karnataka", "city": "Bengaluru",
			"latitude": "12.9135", "longitude": "77.6101", "aqi": "64"},
	}
}

func newTestDirectory(src airquality.Source, clock clockwork.Clock) *airquality.Directory {
	return airquality.NewDirectory(airquality.DirectoryConfig{
		Source:   src,
		Logger:   zerolog.New(io.Discard),
		CacheTTL: 5 * time.Minute,
		Clock:    clock,
	})
}

func TestDirectory_GetAllStations_UsesCache(t *testing.T) {
	src := &mockSource{records: testRecords()}
	clock := clockwork.NewFakeClock()
	dir := newTestDirectory(src, clock)
	ctx := context.Background()

	stations := dir.GetAllStations(ctx)
	require.Len(t, stations, 3)
	assert.Equal(t, int32(1), src.fetchCount.Load())

	clock.Advance(4 * time.Minute)
	stations2 := dir.GetAllStations(ctx)
	assert.Equal(t, stations, stations2)
	assert.Equal(t, int32(1), src.fetchCount.Load(), "second call within TTL must not fetch")
}

func TestDirectory_GetAllStations_RefetchesAfterTTL(t *testing.T) {
	src := &mockSource{records: testRecords()}
	clock := clockwork.NewFakeClock()
	dir := newTestDirectory(src, clock)
	ctx := context.Background()

	dir.GetAllStations(ctx)
	clock.Advance(5 * time.Minute)

	dir.GetAllStations(ctx)
	assert.Equal(t, int32(2), src.fetchCount.Load(), "expired cache triggers exactly one fetch")

	dir.GetAllStations(ctx)
	assert.Equal(t, int32(2), src.fetchCount.Load())
}

func TestDirectory_GetAllStations_FallbackOnError(t *testing.T) {
	src := &mockSource{err: errors.New("network unreachable")}
	clock := clockwork.NewFakeClock()
	dir := newTestDirectory(src, clock)
	ctx := context.Background()

	stations := dir.GetAllStations(ctx)
	require.NotEmpty(t, stations)
	assert.Equal(t, airquality.BuiltinStations(clock.Now()), stations)

	status := dir.CacheStatus()
	assert.True(t, status.HasData)
	assert.Equal(t, airquality.BuiltinProvider, status.Provider)

	// The fallback is cached so the failing source is not hammered.
	dir.GetAllStations(ctx)
	assert.Equal(t, int32(1), src.fetchCount.Load())
}

func TestDirectory_GetAllStations_FallbackOnEmptyRecords(t *testing.T) {
	src := &mockSource{records: []airquality.Record{}}
	dir := newTestDirectory(src, clockwork.NewFakeClock())

	stations := dir.GetAllStations(context.Background())
	assert.Len(t, stations, len(airquality.BuiltinStations(time.Now())))
}

func TestDirectory_GetAllStations_FallbackOnTimeout(t *testing.T) {
	src := &mockSource{records: testRecords(), fetchDelay: time.Second}
	dir := airquality.NewDirectory(airquality.DirectoryConfig{
		Source:       src,
		Logger:       zerolog.New(io.Discard),
		FetchTimeout: 20 * time.Millisecond,
	})

	stations := dir.GetAllStations(context.Background())
	assert.Equal(t, "delhi_anand_vihar", stations[0].ID)
	assert.Equal(t, airquality.BuiltinProvider, dir.CacheStatus().Provider)
}

func TestDirectory_GetAllStations_NoSource(t *testing.T) {
	dir := newTestDirectory(nil, clockwork.NewFakeClock())

	stations := dir.GetAllStations(context.Background())
	assert.NotEmpty(t, stations)
}

func TestDirectory_GetAllStations_CoalescesConcurrentMisses(t *testing.T) {
	src := &mockSource{records: testRecords(), fetchDelay: 50 * time.Millisecond}
	dir := newTestDirectory(src, clockwork.NewRealClock())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stations := dir.GetAllStations(context.Background())
			assert.Len(t, stations, 3)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.fetchCount.Load(), "concurrent misses should share one fetch")
}

func TestDirectory_GetAllStations_ReturnsCopy(t *testing.T) {
	dir := newTestDirectory(&mockSource{records: testRecords()}, clockwork.NewFakeClock())
	ctx := context.Background()

	stations := dir.GetAllStations(ctx)
	stations[0].Name = "mutated"

	assert.Equal(t, "Delhi - Anand Vihar", dir.GetAllStations(ctx)[0].Name)
}

func TestDirectory_FindNearestStation(t *testing.T) {
	dir := newTestDirectory(&mockSource{records: testRecords()}, clockwork.NewFakeClock())

	nearest, ok := dir.FindNearestStation(context.Background(), geo.Coordinate{Lat: 19.0596, Lon: 72.8295})
	require.True(t, ok)
	assert.Equal(t, "mh_1", nearest.Station.ID)
	assert.InDelta(t, 3.8, nearest.DistanceKm, 0.5)
}

func TestDirectory_FindNearestStation_Empty(t *testing.T) {
	dir := airquality.NewDirectory(airquality.DirectoryConfig{
		Logger:   zerolog.New(io.Discard),
		Fallback: func(time.Time) []airquality.Station { return []airquality.Station{} },
	})

	_, ok := dir.FindNearestStation(context.Background(), geo.Coordinate{Lat: 28.6, Lon: 77.2})
	assert.False(t, ok)
}

func TestDirectory_CachesNilFallback(t *testing.T) {
	src := &mockSource{err: errors.New("connection refused")}
	clock := clockwork.NewFakeClock()
	dir := airquality.NewDirectory(airquality.DirectoryConfig{
		Source:   src,
		Logger:   zerolog.New(io.Discard),
		CacheTTL: 5 * time.Minute,
		Clock:    clock,
		Fallback: func(time.Time) []airquality.Station { return nil },
	})
	ctx := context.Background()

	assert.Empty(t, dir.GetAllStations(ctx))
	assert.Empty(t, dir.GetAllStations(ctx))
	_, ok := dir.FindNearestStation(ctx, geo.Coordinate{Lat: 28.6, Lon: 77.2})
	assert.False(t, ok)
	assert.Equal(t, int32(1), src.fetchCount.Load(), "failed fetch should be cached for the TTL")

	status := dir.CacheStatus()
	assert.True(t, status.HasData)
	assert.Zero(t, status.StationCount)

	clock.Advance(5 * time.Minute)
	dir.GetAllStations(ctx)
	assert.Equal(t, int32(2), src.fetchCount.Load())
}

func TestNearestStation_Minimality(t *testing.T) {
	stations := airquality.BuiltinStations(time.Now())
	queries := []geo.Coordinate{
		{Lat: 28.6, Lon: 77.2},
		{Lat: 19.1, Lon: 72.9},
		{Lat: 18.9, Lon: 72.8},
		{Lat: 13.0, Lon: 77.6},
		{Lat: 51.5, Lon: -0.1},
		{Lat: -33.9, Lon: 151.2},
	}

	for _, q := range queries {
		nearest, ok := airquality.NearestStation(stations, q)
		require.True(t, ok)
		for _, s := range stations {
			assert.LessOrEqual(t, nearest.DistanceKm, geo.Distance(q, s.Coordinate))
		}
	}
}

func TestNearestStation_TieKeepsFirst(t *testing.T) {
	stations := []airquality.Station{
		{ID: "north", Coordinate: geo.Coordinate{Lat: 1, Lon: 0}},
		{ID: "south", Coordinate: geo.Coordinate{Lat: -1, Lon: 0}},
	}

	nearest, ok := airquality.NearestStation(stations, geo.Coordinate{})
	require.True(t, ok)
	assert.Equal(t, "north", nearest.Station.ID)

	_, ok = airquality.NearestStation(nil, geo.Coordinate{})
	assert.False(t, ok)
}

func TestDirectory_SearchStationsByCity(t *testing.T) {
	dir := newTestDirectory(nil, clockwork.NewFakeClock())
	ctx := context.Background()

	lower := dir.SearchStationsByCity(ctx, "delhi")
	upper := dir.SearchStationsByCity(ctx, "DELHI")
	require.Len(t, lower, 1)
	assert.Equal(t, lower, upper)
	assert.Equal(t, "Delhi - Anand Vihar", lower[0].Name)

	byState := dir.SearchStationsByCity(ctx, "maharashtra")
	require.Len(t, byState, 6)
	assert.Equal(t, "mumbai_bandra", byState[0].ID, "original order preserved")
	assert.Equal(t, "mumbai_colaba", byState[5].ID)

	byName := dir.SearchStationsByCity(ctx, "btm")
	require.Len(t, byName, 1)

	assert.Empty(t, dir.SearchStationsByCity(ctx, "london"))
	assert.Len(t, dir.SearchStationsByCity(ctx, ""), 8, "empty text matches everything")
}

func TestDirectory_RefreshAndInvalidate(t *testing.T) {
	src := &mockSource{records: testRecords()}
	clock := clockwork.NewFakeClock()
	dir := newTestDirectory(src, clock)
	ctx := context.Background()

	assert.False(t, dir.CacheStatus().HasData)

	dir.GetAllStations(ctx)
	status := dir.CacheStatus()
	assert.True(t, status.HasData)
	assert.Equal(t, 3, status.StationCount)
	assert.Equal(t, "mock", status.Provider)
	assert.Equal(t, clock.Now().Add(5*time.Minute), status.ExpiresAt)
	assert.False(t, status.IsExpired)

	dir.Refresh(ctx)
	assert.Equal(t, int32(2), src.fetchCount.Load())

	dir.InvalidateCache()
	assert.False(t, dir.CacheStatus().HasData)
}

func TestDirectory_RecordsCacheMetrics(t *testing.T) {
	rec := &countingRecorder{}
	dir := airquality.NewDirectory(airquality.DirectoryConfig{
		Source:  &mockSource{records: testRecords()},
		Logger:  zerolog.New(io.Discard),
		Clock:   clockwork.NewFakeClock(),
		Metrics: rec,
	})
	ctx := context.Background()

	dir.GetAllStations(ctx)
	dir.GetAllStations(ctx)
	dir.GetAllStations(ctx)

	assert.Equal(t, int32(1), rec.misses.Load())
	assert.Equal(t, int32(2), rec.hits.Load())
}
