package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Condition summarises an upstream for status reporting.
type Condition string

const (
	ConditionOK Condition = "ok"
	// ConditionDegraded means the circuit is probing (half-open) or the most
	// recent call failed while the circuit stayed closed.
	ConditionDegraded Condition = "degraded"
	// ConditionDown means the circuit is open and calls fail fast.
	ConditionDown Condition = "down"
)

// ProviderHealth is a point-in-time view of one upstream client.
type ProviderHealth struct {
	Name          string
	CircuitState  gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string

	// StateChangedAt is when the circuit last changed state, nil if never.
	StateChangedAt *time.Time
}

// Condition derives the reported condition from the circuit state and the
// latest outcomes.
func (h ProviderHealth) Condition() Condition {
	switch h.CircuitState {
	case gobreaker.StateOpen:
		return ConditionDown
	case gobreaker.StateHalfOpen:
		return ConditionDegraded
	}
	if h.LastFailureAt != nil && (h.LastSuccessAt == nil || h.LastFailureAt.After(*h.LastSuccessAt)) {
		return ConditionDegraded
	}
	return ConditionOK
}

// Registry tracks upstream clients and their latest outcomes.
type Registry struct {
	clock  clockwork.Clock
	logger zerolog.Logger

	mu        sync.RWMutex
	providers map[string]*registeredProvider
}

type registeredProvider struct {
	client         *Client
	lastSuccessAt  *time.Time
	lastFailureAt  *time.Time
	lastError      string
	stateChangedAt *time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock sets the clock used to timestamp outcomes.
func WithClock(clock clockwork.Clock) RegistryOption {
	return func(r *Registry) { r.clock = clock }
}

// WithLogger sets the logger that reports circuit state changes.
func WithLogger(logger zerolog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		clock:     clockwork.NewRealClock(),
		logger:    zerolog.Nop(),
		providers: make(map[string]*registeredProvider),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds client under name, replacing any earlier client of that name.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = &registeredProvider{client: client}
}

func (r *Registry) RecordSuccess(name string) {
	r.update(name, func(p *registeredProvider, now time.Time) {
		p.lastSuccessAt = &now
	})
}

func (r *Registry) RecordFailure(name string, err error) {
	r.update(name, func(p *registeredProvider, now time.Time) {
		p.lastFailureAt = &now
		if err != nil {
			p.lastError = err.Error()
		}
	})
}

// recordStateChange is the breaker callback. It runs under the breaker's lock.
func (r *Registry) recordStateChange(name string, from, to gobreaker.State) {
	r.update(name, func(p *registeredProvider, now time.Time) {
		p.stateChangedAt = &now
	})

	ev := r.logger.Info()
	if to == gobreaker.StateOpen {
		ev = r.logger.Warn()
	}
	ev.Str("provider", name).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("circuit state changed")
}

// update applies fn to a registered provider. Unknown names are ignored.
func (r *Registry) update(name string, fn func(*registeredProvider, time.Time)) {
	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		fn(p, now)
	}
}

// GetHealth returns the health of one provider, or nil if it is unknown.
func (r *Registry) GetHealth(name string) *ProviderHealth {
	r.mu.RLock()
	p, ok := r.providers[name]
	var rec registeredProvider
	if ok {
		rec = *p
	}
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	h := rec.health(name)
	return &h
}

// Snapshot returns the health of every provider ordered by name.
func (r *Registry) Snapshot() []ProviderHealth {
	r.mu.RLock()
	recs := make(map[string]registeredProvider, len(r.providers))
	for name, p := range r.providers {
		recs[name] = *p
	}
	r.mu.RUnlock()

	out := make([]ProviderHealth, 0, len(recs))
	for name, rec := range recs {
		out = append(out, rec.health(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// health reads the breaker, which may fire a state change callback that
// takes the registry lock, so it must be called without r.mu held.
func (p registeredProvider) health(name string) ProviderHealth {
	return ProviderHealth{
		Name:           name,
		CircuitState:   p.client.CircuitBreakerState(),
		Counts:         p.client.CircuitBreakerCounts(),
		LastSuccessAt:  p.lastSuccessAt,
		LastFailureAt:  p.lastFailureAt,
		LastError:      p.lastError,
		StateChangedAt: p.stateChangedAt,
	}
}
