package featureflags

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository backs the service when no database is configured.
type InMemoryRepository struct {
	mu      sync.RWMutex
	flags   map[string]*Flag
	history map[string][]Flag
}

// NewInMemoryRepository creates a repository seeded with DefaultFlags.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithFlags(DefaultFlags())
}

// NewInMemoryRepositoryWithFlags creates a repository holding flags. Seeded
// values have no history.
func NewInMemoryRepositoryWithFlags(flags map[string]*Flag) *InMemoryRepository {
	repo := &InMemoryRepository{
		flags:   make(map[string]*Flag, len(flags)),
		history: make(map[string][]Flag),
	}
	for k, v := range flags {
		repo.flags[k] = v
	}
	return repo
}

func (r *InMemoryRepository) GetFlag(_ context.Context, key string) (*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	flag, ok := r.flags[key]
	if !ok {
		return nil, ErrFlagNotFound
	}
	return flag, nil
}

func (r *InMemoryRepository) GetAllFlags(_ context.Context) (map[string]*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Flag, len(r.flags))
	for k, v := range r.flags {
		result[k] = v
	}
	return result, nil
}

func (r *InMemoryRepository) SetFlags(_ context.Context, flags []*Flag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, flag := range flags {
		if flag.UpdatedAt.IsZero() {
			flag.UpdatedAt = now
		}
		r.flags[flag.Key] = flag
		r.history[flag.Key] = append(r.history[flag.Key], *flag)
	}
	return nil
}

func (r *InMemoryRepository) History(_ context.Context, key string, limit int) ([]Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		return []Flag{}, nil
	}
	past := r.history[key]
	out := make([]Flag, 0, min(limit, len(past)))
	for i := len(past) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, past[i])
	}
	return out, nil
}

var _ Repository = (*InMemoryRepository)(nil)
