package featureflags

import (
	"context"
	"errors"
)

// Feature flag errors.
var (
	ErrFlagNotFound     = errors.New("feature flag not found")
	ErrInvalidFlagValue = errors.New("invalid feature flag value")
)

// Repository stores flags that differ from DefaultFlags. Implementations keep
// UpdatedAt and UpdatedBy as given.
type Repository interface {
	GetFlag(ctx context.Context, key string) (*Flag, error)
	GetAllFlags(ctx context.Context) (map[string]*Flag, error)

	// SetFlags upserts all flags or none.
	SetFlags(ctx context.Context, flags []*Flag) error

	// DeleteFlag returns ErrFlagNotFound when key has no stored value.
	DeleteFlag(ctx context.Context, key string) error
}
