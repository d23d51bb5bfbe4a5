// Package ipcache caches IP geolocation results in Redis.
package ipcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
)

// DefaultTTL is how long a looked-up address is served from cache.
const DefaultTTL = 24 * time.Hour

// Store is the subset of the Redis client the cache uses.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Config holds configuration for a cached locator.
type Config struct {
	// Next is the locator whose results are cached.
	Next location.IPLocator

	// Store is usually a *redis.Client.
	Store Store

	// TTL for cached entries (default: DefaultTTL).
	TTL time.Duration

	Logger zerolog.Logger
}

// Locator wraps an IPLocator with a Redis read-through cache keyed by source
// and a digest of the address. Redis failures are logged and bypassed.
type Locator struct {
	next   location.IPLocator
	store  Store
	ttl    time.Duration
	logger zerolog.Logger
}

var _ location.IPLocator = (*Locator)(nil)

// New creates a cached locator.
func New(cfg Config) *Locator {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Locator{
		next:   cfg.Next,
		store:  cfg.Store,
		ttl:    ttl,
		logger: cfg.Logger,
	}
}

// Name returns the wrapped locator's name.
func (l *Locator) Name() string {
	return l.next.Name()
}

// Locate serves ip from cache or asks the wrapped locator and caches a
// successful answer. An empty ip is never cached since it names whichever
// address the request leaves from.
func (l *Locator) Locate(ctx context.Context, ip string) (location.Fix, error) {
	if ip == "" {
		return l.next.Locate(ctx, ip)
	}

	key := Key(l.next.Name(), ip)

	if fix, ok := l.get(ctx, key); ok {
		return fix, nil
	}

	fix, err := l.next.Locate(ctx, ip)
	if err != nil {
		return location.Fix{}, err
	}

	l.set(ctx, key, fix)
	return fix, nil
}

func (l *Locator) get(ctx context.Context, key string) (location.Fix, bool) {
	data, err := l.store.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return location.Fix{}, false
	}
	if err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("ip cache read failed")
		return location.Fix{}, false
	}

	var fix location.Fix
	if err := json.Unmarshal(data, &fix); err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("ip cache entry corrupt")
		return location.Fix{}, false
	}

	l.logger.Debug().Str("key", key).Msg("ip cache hit")
	return fix, true
}

func (l *Locator) set(ctx context.Context, key string, fix location.Fix) {
	data, err := json.Marshal(fix)
	if err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("ip cache encode failed")
		return
	}
	if err := l.store.Set(ctx, key, data, l.ttl).Err(); err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("ip cache write failed")
	}
}

// Key returns the cache key for ip as looked up by source. Addresses are
// stored as a SHA-256 digest so that neither Redis nor logs hold them.
func Key(source, ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return fmt.Sprintf("ipgeo:%s:%s", source, hex.EncodeToString(sum[:16]))
}
