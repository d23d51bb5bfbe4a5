package featureflags

import (
	"context"
	"errors"
)

// ErrFlagNotFound is returned when a feature flag is not stored.
var ErrFlagNotFound = errors.New("feature flag not found")

// Repository stores flags and the history of changes to them.
type Repository interface {
	GetFlag(ctx context.Context, key string) (*Flag, error)
	GetAllFlags(ctx context.Context) (map[string]*Flag, error)

	// SetFlags upserts flags and appends each to its history, all or nothing.
	SetFlags(ctx context.Context, flags []*Flag) error

	// History returns up to limit past values of key, newest first.
	History(ctx context.Context, key string, limit int) ([]Flag, error)
}
