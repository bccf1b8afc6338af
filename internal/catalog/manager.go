package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateInput holds the fields of a new service.
type CreateInput struct {
	Name    string
	URL     string
	Icon    []byte
	IconRef string
}

// UpdateInput holds optional field changes; nil fields are left untouched.
type UpdateInput struct {
	Name    *string
	URL     *string
	Icon    []byte
	IconRef *string
}

// Manager provides catalogue operations and records status check outcomes.
type Manager struct {
	repo Repository
	now  func() time.Time
}

// NewManager creates a new catalogue manager.
func NewManager(repo Repository) *Manager {
	return &Manager{repo: repo, now: time.Now}
}

// List retrieves all services in dashboard order.
func (m *Manager) List(ctx context.Context) ([]*Service, error) {
	return m.repo.List(ctx)
}

// Get retrieves a service by ID.
func (m *Manager) Get(ctx context.Context, id string) (*Service, error) {
	return m.repo.Get(ctx, id)
}

// Create adds a service at the end of the dashboard.
func (m *Manager) Create(ctx context.Context, input CreateInput) (*Service, error) {
	return m.create(ctx, "", input)
}

func (m *Manager) create(ctx context.Context, id string, input CreateInput) (*Service, error) {
	if err := validateFields(input.Name, input.URL); err != nil {
		return nil, err
	}

	existing, err := m.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	position := 0
	for _, svc := range existing {
		if svc.Position >= position {
			position = svc.Position + 1
		}
	}

	if id == "" {
		id = "svc_" + uuid.New().String()[:22]
	}

	now := m.now()
	svc := &Service{
		ID:             id,
		Name:           strings.TrimSpace(input.Name),
		URL:            strings.TrimSpace(input.URL),
		Icon:           input.Icon,
		IconRef:        input.IconRef,
		LastOnlineDate: DistantPast,
		Position:       position,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := m.repo.Create(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// Update applies field changes to a service.
func (m *Manager) Update(ctx context.Context, id string, input UpdateInput) (*Service, error) {
	svc, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		svc.Name = strings.TrimSpace(*input.Name)
	}
	if input.URL != nil {
		svc.URL = strings.TrimSpace(*input.URL)
	}
	if input.Icon != nil {
		svc.Icon = input.Icon
	}
	if input.IconRef != nil {
		svc.IconRef = *input.IconRef
	}

	if err := validateFields(svc.Name, svc.URL); err != nil {
		return nil, err
	}

	svc.UpdatedAt = m.now()
	if err := m.repo.Update(ctx, svc); err != nil {
		return nil, err
	}
	// Re-read so the result carries the stored last-online date.
	return m.repo.Get(ctx, id)
}

// Delete removes a service.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.repo.Delete(ctx, id)
}

// Move places a service at position (clamped) and renumbers the others.
func (m *Manager) Move(ctx context.Context, id string, position int) ([]*Service, error) {
	services, err := m.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	from := -1
	for i, svc := range services {
		if svc.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return nil, ErrServiceNotFound
	}

	if position < 0 {
		position = 0
	}
	if position > len(services)-1 {
		position = len(services) - 1
	}

	moved := services[from]
	services = append(services[:from], services[from+1:]...)
	services = append(services[:position], append([]*Service{moved}, services[position:]...)...)

	now := m.now()
	for i, svc := range services {
		if svc.Position == i {
			continue
		}
		svc.Position = i
		svc.UpdatedAt = now
		if err := m.repo.Update(ctx, svc); err != nil {
			return nil, fmt.Errorf("reorder %s: %w", svc.ID, err)
		}
	}

	return m.repo.List(ctx)
}

// RecordOnline stores that a service answered a status check at the given time.
func (m *Manager) RecordOnline(ctx context.Context, id string, at time.Time) error {
	return m.repo.SetLastOnline(ctx, id, at)
}

// RecordOffline resets the last-online date of a service to DistantPast.
func (m *Manager) RecordOffline(ctx context.Context, id string) error {
	return m.repo.SetLastOnline(ctx, id, DistantPast)
}

func validateFields(name, rawURL string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidService)
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be an absolute http(s) url", ErrInvalidService)
	}
	return nil
}
