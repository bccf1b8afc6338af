// Package dashboard owns the status rows of all catalogue services and the
// dashboard's edit mode.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/statusboard/statusboard/internal/catalog"
	"github.com/statusboard/statusboard/internal/statusrow"
)

// Dashboard errors.
var (
	ErrRowNotFound = errors.New("row not found")
	ErrEditMode    = errors.New("dashboard is in edit mode")
	ErrNotEditing  = errors.New("dashboard is not in edit mode")
)

// Catalog is the service store behind the board.
type Catalog interface {
	statusrow.Recorder
	List(ctx context.Context) ([]*catalog.Service, error)
	Move(ctx context.Context, id string, position int) ([]*catalog.Service, error)
	Delete(ctx context.Context, id string) error
}

// Config holds configuration for a Board.
type Config struct {
	Catalog  Catalog
	Fetcher  statusrow.Fetcher
	Settings statusrow.Settings
	Clock    statusrow.Clock
	Hold     statusrow.HoldFunc
	Logger   zerolog.Logger
}

// RowView is a rendered row with its catalogue fields.
type RowView struct {
	statusrow.View
	Position       int
	LastOnlineDate time.Time
}

// Board keeps one row per catalogue service.
type Board struct {
	catalog  Catalog
	fetcher  statusrow.Fetcher
	settings statusrow.Settings
	clock    statusrow.Clock
	hold     statusrow.HoldFunc
	logger   zerolog.Logger

	editMode atomic.Bool

	mu   sync.RWMutex
	rows map[string]*statusrow.Row
}

// New creates an empty board. Call Sync to load rows.
func New(cfg Config) *Board {
	return &Board{
		catalog:  cfg.Catalog,
		fetcher:  cfg.Fetcher,
		settings: cfg.Settings,
		clock:    cfg.Clock,
		hold:     cfg.Hold,
		logger:   cfg.Logger,
		rows:     make(map[string]*statusrow.Row),
	}
}

// EditMode reports whether the board is in edit mode.
func (b *Board) EditMode() bool {
	return b.editMode.Load()
}

// SetEditMode turns edit mode on or off.
func (b *Board) SetEditMode(enabled bool) {
	if b.editMode.Swap(enabled) != enabled {
		b.logger.Info().Bool("edit_mode", enabled).Msg("dashboard edit mode changed")
	}
}

// Sync creates rows for new catalogue services, refreshes identities and
// closes rows whose service is gone. It returns the services in order.
func (b *Board) Sync(ctx context.Context) ([]*catalog.Service, error) {
	services, err := b.catalog.List(ctx)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	seen := make(map[string]bool, len(services))
	for _, svc := range services {
		seen[svc.ID] = true
		if row, ok := b.rows[svc.ID]; ok {
			row.SetService(rowService(svc))
			continue
		}
		b.rows[svc.ID] = statusrow.New(statusrow.Config{
			Service:  rowService(svc),
			Fetcher:  b.fetcher,
			Recorder: b.catalog,
			Settings: b.settings,
			EditMode: b,
			Clock:    b.clock,
			Hold:     b.hold,
			Logger:   b.logger,
		})
	}

	for id, row := range b.rows {
		if !seen[id] {
			row.Close()
			delete(b.rows, id)
		}
	}

	return services, nil
}

// Appear reports the row as displayed. It returns true if this started the
// row's initial fetch.
func (b *Board) Appear(ctx context.Context, id string) (bool, error) {
	row, err := b.row(ctx, id)
	if err != nil {
		return false, err
	}
	return row.Appear(ctx), nil
}

// Activate taps the row. It fails with ErrEditMode while editing and with
// ErrRowNotFound if the row is removed before the tap lands.
func (b *Board) Activate(ctx context.Context, id string) error {
	if b.EditMode() {
		return ErrEditMode
	}
	row, err := b.row(ctx, id)
	if err != nil {
		return err
	}
	if row.Activate(ctx) {
		return nil
	}
	if b.EditMode() {
		return ErrEditMode
	}
	return ErrRowNotFound
}

// Views renders all rows in dashboard order.
func (b *Board) Views(ctx context.Context) ([]RowView, error) {
	services, err := b.Sync(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]RowView, 0, len(services))
	for _, svc := range services {
		b.mu.RLock()
		row := b.rows[svc.ID]
		b.mu.RUnlock()
		if row == nil {
			continue
		}
		views = append(views, RowView{
			View:           row.Render(ctx),
			Position:       svc.Position,
			LastOnlineDate: svc.LastOnlineDate,
		})
	}
	return views, nil
}

// View renders a single row.
func (b *Board) View(ctx context.Context, id string) (RowView, error) {
	views, err := b.Views(ctx)
	if err != nil {
		return RowView{}, err
	}
	for _, v := range views {
		if v.ServiceID == id {
			return v, nil
		}
	}
	return RowView{}, ErrRowNotFound
}

// Move reorders a row. Only allowed in edit mode.
func (b *Board) Move(ctx context.Context, id string, position int) error {
	if !b.EditMode() {
		return ErrNotEditing
	}
	if _, err := b.catalog.Move(ctx, id, position); err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			return ErrRowNotFound
		}
		return err
	}
	_, err := b.Sync(ctx)
	return err
}

// Remove deletes a row and its service. Only allowed in edit mode.
func (b *Board) Remove(ctx context.Context, id string) error {
	if !b.EditMode() {
		return ErrNotEditing
	}
	if err := b.catalog.Delete(ctx, id); err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			return ErrRowNotFound
		}
		return err
	}
	_, err := b.Sync(ctx)
	return err
}

// Wait blocks until every row's latest fetch has applied its result.
func (b *Board) Wait() {
	b.mu.RLock()
	rows := make([]*statusrow.Row, 0, len(b.rows))
	for _, row := range b.rows {
		rows = append(rows, row)
	}
	b.mu.RUnlock()

	for _, row := range rows {
		row.Wait()
	}
}

// Close closes every row.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, row := range b.rows {
		row.Close()
		delete(b.rows, id)
	}
}

// row returns the row for id, syncing with the catalogue on a miss.
func (b *Board) row(ctx context.Context, id string) (*statusrow.Row, error) {
	b.mu.RLock()
	row, ok := b.rows[id]
	b.mu.RUnlock()
	if ok {
		return row, nil
	}

	if _, err := b.Sync(ctx); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if row, ok := b.rows[id]; ok {
		return row, nil
	}
	return nil, ErrRowNotFound
}

func rowService(svc *catalog.Service) statusrow.Service {
	return statusrow.Service{
		ID:      svc.ID,
		Name:    svc.Name,
		URL:     svc.URL,
		Icon:    svc.Icon,
		IconRef: svc.IconRef,
	}
}

// Ensure Board implements statusrow.EditMode.
var _ statusrow.EditMode = (*Board)(nil)
