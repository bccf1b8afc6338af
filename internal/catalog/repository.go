package catalog

import (
	"context"
	"time"
)

// Repository defines the interface for service persistence.
type Repository interface {
	// Get retrieves a service by ID.
	Get(ctx context.Context, id string) (*Service, error)

	// List retrieves all services ordered by position.
	List(ctx context.Context) ([]*Service, error)

	// Create stores a new service.
	Create(ctx context.Context, svc *Service) error

	// Update replaces the editable fields and position of an existing service.
	// LastOnlineDate is left as stored; only SetLastOnline writes it.
	Update(ctx context.Context, svc *Service) error

	// Delete removes a service.
	Delete(ctx context.Context, id string) error

	// SetLastOnline updates only the last-online timestamp of a service.
	SetLastOnline(ctx context.Context, id string, at time.Time) error
}
