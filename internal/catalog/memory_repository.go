package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local runs. Production should use the
// PostgreSQL or bbolt implementation.
type InMemoryRepository struct {
	mu       sync.RWMutex
	services map[string]*Service
}

// NewInMemoryRepository creates a new in-memory service repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		services: make(map[string]*Service),
	}
}

// Get retrieves a service by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return copyService(svc), nil
}

// List retrieves all services ordered by position.
func (r *InMemoryRepository) List(_ context.Context) ([]*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*Service, 0, len(r.services))
	for _, svc := range r.services {
		items = append(items, copyService(svc))
	}
	sortServices(items)
	return items, nil
}

// Create stores a new service.
func (r *InMemoryRepository) Create(_ context.Context, svc *Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.services[svc.ID] = copyService(svc)
	return nil
}

// Update replaces an existing service.
func (r *InMemoryRepository) Update(_ context.Context, svc *Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.services[svc.ID]
	if !ok {
		return ErrServiceNotFound
	}
	updated := copyService(svc)
	updated.LastOnlineDate = current.LastOnlineDate
	r.services[svc.ID] = updated
	return nil
}

// Delete removes a service.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.services[id]; !ok {
		return ErrServiceNotFound
	}
	delete(r.services, id)
	return nil
}

// SetLastOnline updates only the last-online timestamp of a service.
func (r *InMemoryRepository) SetLastOnline(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	svc, ok := r.services[id]
	if !ok {
		return ErrServiceNotFound
	}
	svc.LastOnlineDate = at
	return nil
}

// sortServices orders by position, then creation time, then ID.
func sortServices(items []*Service) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
