package ipcache_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location/ipcache"
	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

// memStore is an in-memory Store.
type memStore struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failGet error
	failSet error
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return redis.NewStringResult("", m.failGet)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return redis.NewStatusResult("", m.failSet)
	}
	m.data[key] = string(value.([]byte))
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

type countingLocator struct {
	calls int
	fix   location.Fix
	err   error
}

func (c *countingLocator) Name() string { return "ipapi" }

func (c *countingLocator) Locate(context.Context, string) (location.Fix, error) {
	c.calls++
	return c.fix, c.err
}

var mumbaiFix = location.Fix{
	Coordinate: geo.Coordinate{Lat: 19.0728, Lon: 72.8826},
	AccuracyM:  location.IPAccuracyM,
	Timestamp:  time.Date(2026, 10, 17, 6, 0, 0, 0, time.UTC),
	Source:     "ipapi",
}

func TestLocator_CachesSuccess(t *testing.T) {
	store := newMemStore()
	next := &countingLocator{fix: mumbaiFix}
	cached := ipcache.New(ipcache.Config{Next: next, Store: store, TTL: time.Hour, Logger: zerolog.Nop()})
	ctx := context.Background()

	first, err := cached.Locate(ctx, "49.36.0.1")
	require.NoError(t, err)
	second, err := cached.Locate(ctx, "49.36.0.1")
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, mumbaiFix, first)
	assert.Equal(t, first.Coordinate, second.Coordinate)
	assert.True(t, first.Timestamp.Equal(second.Timestamp))
	assert.Equal(t, time.Hour, store.ttls[ipcache.Key("ipapi", "49.36.0.1")])
	assert.Equal(t, "ipapi", cached.Name())
}

func TestLocator_DoesNotCacheFailuresOrSelf(t *testing.T) {
	store := newMemStore()
	next := &countingLocator{err: location.ErrNoResult}
	cached := ipcache.New(ipcache.Config{Next: next, Store: store, Logger: zerolog.Nop()})
	ctx := context.Background()

	_, err := cached.Locate(ctx, "10.0.0.1")
	assert.ErrorIs(t, err, location.ErrNoResult)
	_, _ = cached.Locate(ctx, "10.0.0.1")
	assert.Equal(t, 2, next.calls)
	assert.Empty(t, store.data)

	next.err = nil
	next.fix = mumbaiFix
	_, _ = cached.Locate(ctx, "")
	_, _ = cached.Locate(ctx, "")
	assert.Equal(t, 4, next.calls)
	assert.Empty(t, store.data)
}

func TestLocator_BypassesBrokenStore(t *testing.T) {
	store := newMemStore()
	store.failGet = errors.New("dial tcp: connection refused")
	store.failSet = errors.New("dial tcp: connection refused")
	next := &countingLocator{fix: mumbaiFix}
	cached := ipcache.New(ipcache.Config{Next: next, Store: store, Logger: zerolog.Nop()})

	fix, err := cached.Locate(context.Background(), "49.36.0.1")
	require.NoError(t, err)
	assert.Equal(t, mumbaiFix, fix)
	assert.Equal(t, 1, next.calls)
}

func TestLocator_IgnoresCorruptEntry(t *testing.T) {
	store := newMemStore()
	store.data[ipcache.Key("ipapi", "49.36.0.1")] = "{not json"
	next := &countingLocator{fix: mumbaiFix}
	cached := ipcache.New(ipcache.Config{Next: next, Store: store, Logger: zerolog.Nop()})

	fix, err := cached.Locate(context.Background(), "49.36.0.1")
	require.NoError(t, err)
	assert.Equal(t, mumbaiFix, fix)
	assert.Equal(t, 1, next.calls)
}

func TestLocator_KeepsAddressesOutOfStoreAndLogs(t *testing.T) {
	const ip = "49.36.0.1"

	t.Run("store keys", func(t *testing.T) {
		store := newMemStore()
		cached := ipcache.New(ipcache.Config{Next: &countingLocator{fix: mumbaiFix}, Store: store, Logger: zerolog.Nop()})

		_, err := cached.Locate(context.Background(), ip)
		require.NoError(t, err)

		require.Len(t, store.data, 1)
		for key := range store.data {
			assert.NotContains(t, key, ip)
			assert.Equal(t, ipcache.Key("ipapi", ip), key)
		}
	})

	t.Run("failure logs", func(t *testing.T) {
		var buf bytes.Buffer
		store := newMemStore()
		store.failGet = errors.New("dial tcp: connection refused")
		store.failSet = errors.New("dial tcp: connection refused")
		cached := ipcache.New(ipcache.Config{Next: &countingLocator{fix: mumbaiFix}, Store: store, Logger: zerolog.New(&buf)})

		_, err := cached.Locate(context.Background(), ip)
		require.NoError(t, err)

		assert.Contains(t, buf.String(), "ip cache read failed")
		assert.NotContains(t, buf.String(), ip)
	})
}

func TestKey(t *testing.T) {
	assert.Equal(t, ipcache.Key("ipapi", "49.36.0.1"), ipcache.Key("ipapi", "49.36.0.1"))
	assert.NotEqual(t, ipcache.Key("ipapi", "49.36.0.1"), ipcache.Key("ipinfo", "49.36.0.1"))
	assert.NotEqual(t, ipcache.Key("ipapi", "49.36.0.1"), ipcache.Key("ipapi", "49.36.0.2"))
	assert.Regexp(t, `^ipgeo:ipapi:[0-9a-f]{32}$`, ipcache.Key("ipapi", "49.36.0.1"))
}
