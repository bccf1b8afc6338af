package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const servicesBucket = "services"

// BoltRepository is a bbolt implementation of Repository for single-node
// deployments without PostgreSQL. Services are stored as JSON keyed by ID.
type BoltRepository struct {
	db *bolt.DB
}

// boltService is the stored representation of a Service.
type boltService struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	URL            string    `json:"url"`
	Icon           []byte    `json:"icon,omitempty"`
	IconRef        string    `json:"icon_ref,omitempty"`
	LastOnlineDate time.Time `json:"last_online_date"`
	Position       int       `json:"position"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewBoltRepository creates the services bucket if needed and returns a repository.
func NewBoltRepository(db *bolt.DB) (*BoltRepository, error) {
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(servicesBucket))
		return err
	}); err != nil {
		return nil, fmt.Errorf("create %s bucket: %w", servicesBucket, err)
	}
	return &BoltRepository{db: db}, nil
}

// Get retrieves a service by ID.
func (r *BoltRepository) Get(_ context.Context, id string) (*Service, error) {
	var svc *Service
	err := r.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(servicesBucket)).Get([]byte(id))
		if data == nil {
			return ErrServiceNotFound
		}
		var err error
		svc, err = decodeService(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// List retrieves all services ordered by position.
func (r *BoltRepository) List(_ context.Context) ([]*Service, error) {
	var services []*Service
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(servicesBucket)).ForEach(func(_, v []byte) error {
			svc, err := decodeService(v)
			if err != nil {
				return err
			}
			services = append(services, svc)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortServices(services)
	return services, nil
}

// Create stores a new service.
func (r *BoltRepository) Create(_ context.Context, svc *Service) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		return putService(tx.Bucket([]byte(servicesBucket)), svc)
	})
}

// Update replaces an existing service.
func (r *BoltRepository) Update(_ context.Context, svc *Service) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(servicesBucket))
		data := b.Get([]byte(svc.ID))
		if data == nil {
			return ErrServiceNotFound
		}
		current, err := decodeService(data)
		if err != nil {
			return err
		}
		updated := *svc
		updated.LastOnlineDate = current.LastOnlineDate
		return putService(b, &updated)
	})
}

// Delete removes a service.
func (r *BoltRepository) Delete(_ context.Context, id string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(servicesBucket))
		if b.Get([]byte(id)) == nil {
			return ErrServiceNotFound
		}
		return b.Delete([]byte(id))
	})
}

// SetLastOnline updates only the last-online timestamp of a service.
func (r *BoltRepository) SetLastOnline(_ context.Context, id string, at time.Time) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(servicesBucket))
		data := b.Get([]byte(id))
		if data == nil {
			return ErrServiceNotFound
		}
		svc, err := decodeService(data)
		if err != nil {
			return err
		}
		svc.LastOnlineDate = at
		return putService(b, svc)
	})
}

func putService(b *bolt.Bucket, svc *Service) error {
	data, err := json.Marshal(boltService{
		ID:             svc.ID,
		Name:           svc.Name,
		URL:            svc.URL,
		Icon:           svc.Icon,
		IconRef:        svc.IconRef,
		LastOnlineDate: svc.LastOnlineDate,
		Position:       svc.Position,
		CreatedAt:      svc.CreatedAt,
		UpdatedAt:      svc.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode service %s: %w", svc.ID, err)
	}
	return b.Put([]byte(svc.ID), data)
}

func decodeService(data []byte) (*Service, error) {
	var stored boltService
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode service: %w", err)
	}
	return &Service{
		ID:             stored.ID,
		Name:           stored.Name,
		URL:            stored.URL,
		Icon:           stored.Icon,
		IconRef:        stored.IconRef,
		LastOnlineDate: stored.LastOnlineDate,
		Position:       stored.Position,
		CreatedAt:      stored.CreatedAt,
		UpdatedAt:      stored.UpdatedAt,
	}, nil
}

// Ensure BoltRepository implements Repository interface.
var _ Repository = (*BoltRepository)(nil)
