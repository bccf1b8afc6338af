package dashboard_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statusboard/statusboard/internal/catalog"
	"github.com/statusboard/statusboard/internal/dashboard"
	"github.com/statusboard/statusboard/internal/statusrow"
)

type stubFetcher struct {
	calls atomic.Int32
	code  int
}

func (f *stubFetcher) FetchStatusCode(context.Context, string) (int, error) {
	f.calls.Add(1)
	return f.code, nil
}

type instantSettings struct{}

func (instantSettings) ShowErrorCodes(context.Context) bool { return true }

func (instantSettings) MinimumLoadingTime(context.Context) time.Duration { return 0 }

func newBoard(t *testing.T, names ...string) (*dashboard.Board, *catalog.Manager, *stubFetcher, []*catalog.Service) {
	t.Helper()

	manager := catalog.NewManager(catalog.NewInMemoryRepository())
	var services []*catalog.Service
	for _, name := range names {
		svc, err := manager.Create(context.Background(), catalog.CreateInput{
			Name: name,
			URL:  "https://" + name + ".example.com",
		})
		require.NoError(t, err)
		services = append(services, svc)
	}

	fetcher := &stubFetcher{code: http.StatusOK}
	board := dashboard.New(dashboard.Config{
		Catalog:  manager,
		Fetcher:  fetcher,
		Settings: instantSettings{},
		Logger:   zerolog.Nop(),
	})
	t.Cleanup(board.Close)

	return board, manager, fetcher, services
}

func TestBoard_ViewsInCatalogueOrder(t *testing.T) {
	board, _, _, _ := newBoard(t, "a", "b", "c")

	views, err := board.Views(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 3)

	for i, name := range []string{"a", "b", "c"} {
		assert.Equal(t, name, views[i].Name)
		assert.Equal(t, i, views[i].Position)
		assert.Equal(t, statusrow.GlyphNone, views[i].Glyph)
		assert.True(t, views[i].LastOnlineDate.Equal(catalog.DistantPast))
	}
}

func TestBoard_AppearOnce(t *testing.T) {
	board, _, fetcher, services := newBoard(t, "a")
	ctx := context.Background()

	started, err := board.Appear(ctx, services[0].ID)
	require.NoError(t, err)
	assert.True(t, started)

	started, err = board.Appear(ctx, services[0].ID)
	require.NoError(t, err)
	assert.False(t, started)

	board.Wait()
	assert.Equal(t, int32(1), fetcher.calls.Load())

	view, err := board.View(ctx, services[0].ID)
	require.NoError(t, err)
	assert.Equal(t, statusrow.GlyphCheckmark, view.Glyph)
	assert.False(t, view.LastOnlineDate.Equal(catalog.DistantPast))
}

func TestBoard_UnknownRow(t *testing.T) {
	board, _, _, _ := newBoard(t, "a")
	ctx := context.Background()

	_, err := board.Appear(ctx, "svc_missing")
	assert.ErrorIs(t, err, dashboard.ErrRowNotFound)
	assert.ErrorIs(t, board.Activate(ctx, "svc_missing"), dashboard.ErrRowNotFound)

	_, err = board.View(ctx, "svc_missing")
	assert.ErrorIs(t, err, dashboard.ErrRowNotFound)
}

func TestBoard_NewServicePickedUpOnDemand(t *testing.T) {
	board, manager, _, _ := newBoard(t)
	ctx := context.Background()

	svc, err := manager.Create(ctx, catalog.CreateInput{Name: "late", URL: "https://late.example.com"})
	require.NoError(t, err)

	require.NoError(t, board.Activate(ctx, svc.ID))
	board.Wait()

	view, err := board.View(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, statusrow.GlyphCheckmark, view.Glyph)
	assert.Equal(t, http.StatusOK, view.StatusCode)
}

func TestBoard_EditModeBlocksActivate(t *testing.T) {
	board, _, fetcher, services := newBoard(t, "a")
	ctx := context.Background()

	board.SetEditMode(true)
	assert.True(t, board.EditMode())

	assert.ErrorIs(t, board.Activate(ctx, services[0].ID), dashboard.ErrEditMode)
	board.Wait()
	assert.Equal(t, int32(0), fetcher.calls.Load())

	board.SetEditMode(false)
	require.NoError(t, board.Activate(ctx, services[0].ID))
	board.Wait()
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestBoard_MoveAndRemoveRequireEditMode(t *testing.T) {
	board, _, _, services := newBoard(t, "a", "b", "c")
	ctx := context.Background()

	assert.ErrorIs(t, board.Move(ctx, services[2].ID, 0), dashboard.ErrNotEditing)
	assert.ErrorIs(t, board.Remove(ctx, services[0].ID), dashboard.ErrNotEditing)

	board.SetEditMode(true)

	require.NoError(t, board.Move(ctx, services[2].ID, 0))
	views, err := board.Views(ctx)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{views[0].Name, views[1].Name, views[2].Name})

	require.NoError(t, board.Remove(ctx, services[0].ID))
	views, err = board.Views(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "c", views[0].Name)
	assert.Equal(t, "b", views[1].Name)

	assert.ErrorIs(t, board.Remove(ctx, services[0].ID), dashboard.ErrRowNotFound)
	assert.ErrorIs(t, board.Move(ctx, "svc_missing", 1), dashboard.ErrRowNotFound)
}

func TestBoard_SyncRefreshesIdentity(t *testing.T) {
	board, manager, _, services := newBoard(t, "a")
	ctx := context.Background()

	_, err := board.Sync(ctx)
	require.NoError(t, err)

	name := "renamed"
	_, err = manager.Update(ctx, services[0].ID, catalog.UpdateInput{Name: &name})
	require.NoError(t, err)

	view, err := board.View(ctx, services[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", view.Name)
}

// gatedSettings holds a tap inside Activate until released.
type gatedSettings struct {
	instantSettings
	entered chan struct{}
	release chan struct{}
}

func (s gatedSettings) MinimumLoadingTime(context.Context) time.Duration {
	s.entered <- struct{}{}
	<-s.release
	return 0
}

func TestBoard_ActivateRemovedRow(t *testing.T) {
	ctx := context.Background()
	manager := catalog.NewManager(catalog.NewInMemoryRepository())
	svc, err := manager.Create(ctx, catalog.CreateInput{Name: "a", URL: "https://a.example.com"})
	require.NoError(t, err)

	settings := gatedSettings{entered: make(chan struct{}), release: make(chan struct{})}
	board := dashboard.New(dashboard.Config{
		Catalog:  manager,
		Fetcher:  &stubFetcher{code: http.StatusOK},
		Settings: settings,
		Logger:   zerolog.Nop(),
	})
	t.Cleanup(board.Close)
	_, err = board.Sync(ctx)
	require.NoError(t, err)

	errs := make(chan error, 1)
	go func() { errs <- board.Activate(ctx, svc.ID) }()
	<-settings.entered

	// The service disappears while the tap is in progress.
	require.NoError(t, manager.Delete(ctx, svc.ID))
	_, err = board.Sync(ctx)
	require.NoError(t, err)
	close(settings.release)

	err = <-errs
	assert.ErrorIs(t, err, dashboard.ErrRowNotFound)
	assert.NotErrorIs(t, err, dashboard.ErrEditMode)
}
