package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the services table.
const Schema = `
	CREATE TABLE IF NOT EXISTS services (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		url            TEXT NOT NULL,
		icon           BYTEA,
		icon_ref       TEXT NOT NULL DEFAULT '',
		last_online_at TIMESTAMPTZ,
		position       INTEGER NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL
	)
`

const selectColumns = `id, name, url, icon, icon_ref, last_online_at, position, created_at, updated_at`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL service repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the services table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, Schema)
	return err
}

// Get retrieves a service by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Service, error) {
	query := `SELECT ` + selectColumns + ` FROM services WHERE id = $1`

	svc, err := scanService(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return svc, nil
}

// List retrieves all services ordered by position.
func (r *PostgresRepository) List(ctx context.Context) ([]*Service, error) {
	query := `SELECT ` + selectColumns + ` FROM services ORDER BY position, created_at, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []*Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return services, nil
}

// Create stores a new service.
func (r *PostgresRepository) Create(ctx context.Context, svc *Service) error {
	query := `
		INSERT INTO services (id, name, url, icon, icon_ref, last_online_at, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		svc.ID,
		svc.Name,
		svc.URL,
		svc.Icon,
		svc.IconRef,
		lastOnlineValue(svc.LastOnlineDate),
		svc.Position,
		svc.CreatedAt,
		svc.UpdatedAt,
	)
	return err
}

// Update replaces an existing service.
func (r *PostgresRepository) Update(ctx context.Context, svc *Service) error {
	query := `
		UPDATE services SET
			name = $2,
			url = $3,
			icon = $4,
			icon_ref = $5,
			position = $6,
			updated_at = $7
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		svc.ID,
		svc.Name,
		svc.URL,
		svc.Icon,
		svc.IconRef,
		svc.Position,
		svc.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrServiceNotFound
	}

	return nil
}

// Delete removes a service.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM services WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrServiceNotFound
	}

	return nil
}

// SetLastOnline updates only the last-online timestamp of a service.
func (r *PostgresRepository) SetLastOnline(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE services SET last_online_at = $2 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, lastOnlineValue(at))
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrServiceNotFound
	}

	return nil
}

// scanService scans a single service row.
func scanService(row pgx.Row) (*Service, error) {
	var (
		svc        Service
		lastOnline *time.Time
	)

	err := row.Scan(
		&svc.ID,
		&svc.Name,
		&svc.URL,
		&svc.Icon,
		&svc.IconRef,
		&lastOnline,
		&svc.Position,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastOnline != nil {
		svc.LastOnlineDate = *lastOnline
	}

	return &svc, nil
}

// lastOnlineValue stores DistantPast as NULL.
func lastOnlineValue(t time.Time) *time.Time {
	if t.Equal(DistantPast) {
		return nil
	}
	return &t
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
