package featureflags

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger

	// CacheTTL is how long a loaded snapshot is served before reloading.
	// Default 1m.
	CacheTTL time.Duration

	// DefaultFlags fill in keys the repository does not hold. Default
	// DefaultFlags().
	DefaultFlags map[string]*Flag
	Clock        clockwork.Clock
}

// Service evaluates flags from an in-memory snapshot of the repository.
//
// A failed reload keeps serving the previous snapshot, or the defaults when
// nothing was ever loaded, and retries after a quarter of the TTL.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	ttl      time.Duration
	defaults map[string]*Flag
	clock    clockwork.Clock
	group    singleflight.Group

	mu       sync.RWMutex
	snapshot map[string]*Flag
	expires  time.Time
}

// NewService creates a new feature flag service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		ttl:      cfg.CacheTTL,
		defaults: cfg.DefaultFlags,
		clock:    cfg.Clock,
	}
	if s.ttl <= 0 {
		s.ttl = time.Minute
	}
	if s.defaults == nil {
		s.defaults = DefaultFlags()
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	return s
}

// GetFlag returns the flag for key, or nil for a key that is neither stored
// nor a default.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	if f, ok := s.current(ctx)[key]; ok {
		return f
	}
	return s.defaults[key]
}

// GetAllFlags returns stored flags merged over the defaults.
func (s *Service) GetAllFlags(ctx context.Context) map[string]*Flag {
	snap := s.current(ctx)
	out := make(map[string]*Flag, len(s.defaults)+len(snap))
	for k, v := range s.defaults {
		out[k] = v
	}
	for k, v := range snap {
		out[k] = v
	}
	return out
}

// SetFlags validates and stores flags as one change, stamping each with the
// same time. The snapshot reflects the change immediately.
func (s *Service) SetFlags(ctx context.Context, flags []*Flag) error {
	for _, f := range flags {
		if err := ValidateUpdate(f.Key, f.Value); err != nil {
			return err
		}
	}

	now := s.clock.Now()
	for _, f := range flags {
		f.UpdatedAt = now
	}
	if err := s.repo.SetFlags(ctx, flags); err != nil {
		return err
	}

	s.mu.Lock()
	next := make(map[string]*Flag, len(s.snapshot)+len(flags))
	for k, v := range s.snapshot {
		next[k] = v
	}
	for _, f := range flags {
		next[f.Key] = f
	}
	s.snapshot = next
	s.mu.Unlock()
	return nil
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// History returns recent changes to key, newest first. limit is clamped to
// [1, 100]; zero means 20.
func (s *Service) History(ctx context.Context, key string, limit int) ([]Flag, error) {
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	return s.repo.History(ctx, key, limit)
}

// InvalidateCache forces a reload on the next read.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	s.expires = time.Time{}
	s.mu.Unlock()
}

// current returns the snapshot, reloading it when expired. Concurrent
// reloads share one repository call.
func (s *Service) current(ctx context.Context) map[string]*Flag {
	s.mu.RLock()
	snap, fresh := s.snapshot, s.clock.Now().Before(s.expires)
	s.mu.RUnlock()
	if fresh {
		return snap
	}

	v, _, _ := s.group.Do("reload", func() (interface{}, error) {
		return s.reload(ctx), nil
	})
	return v.(map[string]*Flag)
}

func (s *Service) reload(ctx context.Context) map[string]*Flag {
	flags, err := s.repo.GetAllFlags(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	if err != nil {
		s.logger.Warn().Err(err).Int("cached", len(s.snapshot)).Msg("failed to load feature flags, serving last known values")
		s.expires = now.Add(s.ttl / 4)
		return s.snapshot
	}
	s.snapshot = flags
	s.expires = now.Add(s.ttl)
	return flags
}

// IsEnabled reports whether a boolean flag is on. Unknown keys are off.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	return s.GetFlag(ctx, key).BoolValue(false)
}

// IsDisabled is the inverse of IsEnabled.
func (s *Service) IsDisabled(ctx context.Context, key string) bool {
	return !s.IsEnabled(ctx, key)
}

// IsLocalitySnapEnabled returns true if vague localities may be snapped to reference points.
func (s *Service) IsLocalitySnapEnabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagEnableLocalitySnap)
}

// IsPrecisionGeocoderDisabled returns true if the credentialed geocoder is switched off.
func (s *Service) IsPrecisionGeocoderDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisablePrecisionGeocoder)
}

// IsDeviceLocationDisabled returns true if device location lookups are switched off.
func (s *Service) IsDeviceLocationDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableDeviceLocation)
}

// CoverageRadiusKm returns the station coverage radius in kilometres.
func (s *Service) CoverageRadiusKm(ctx context.Context) float64 {
	return s.GetFlag(ctx, FlagCoverageRadiusKm).Float64Value(50)
}
