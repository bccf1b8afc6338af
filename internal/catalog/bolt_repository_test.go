package catalog_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/statusboard/statusboard/internal/catalog"
)

func newBoltRepository(t *testing.T) *catalog.BoltRepository {
	t.Helper()

	db, err := bolt.Open(filepath.Join(t.TempDir(), "catalog.db"), 0o600, &bolt.Options{Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := catalog.NewBoltRepository(db)
	require.NoError(t, err)
	return repo
}

func TestRepositories(t *testing.T) {
	repos := map[string]func(t *testing.T) catalog.Repository{
		"memory": func(*testing.T) catalog.Repository { return catalog.NewInMemoryRepository() },
		"bolt":   func(t *testing.T) catalog.Repository { return newBoltRepository(t) },
	}

	for name, newRepo := range repos {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

			require.NoError(t, repo.Create(ctx, &catalog.Service{
				ID: "svc_b", Name: "b", URL: "https://b.example.com", Position: 1,
				Icon: []byte{0x89, 0x50}, CreatedAt: created, UpdatedAt: created,
			}))
			require.NoError(t, repo.Create(ctx, &catalog.Service{
				ID: "svc_a", Name: "a", URL: "https://a.example.com", Position: 0,
				CreatedAt: created, UpdatedAt: created,
			}))

			got, err := repo.Get(ctx, "svc_b")
			require.NoError(t, err)
			assert.Equal(t, "b", got.Name)
			assert.Equal(t, []byte{0x89, 0x50}, got.Icon)
			assert.True(t, got.LastOnlineDate.Equal(catalog.DistantPast))

			list, err := repo.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "svc_a", list[0].ID)
			assert.Equal(t, "svc_b", list[1].ID)

			online := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)
			require.NoError(t, repo.SetLastOnline(ctx, "svc_a", online))
			got, err = repo.Get(ctx, "svc_a")
			require.NoError(t, err)
			assert.True(t, got.LastOnlineDate.Equal(online))

			got.Name = "renamed"
			require.NoError(t, repo.Update(ctx, got))
			got, err = repo.Get(ctx, "svc_a")
			require.NoError(t, err)
			assert.Equal(t, "renamed", got.Name)

			require.NoError(t, repo.Delete(ctx, "svc_a"))
			_, err = repo.Get(ctx, "svc_a")
			assert.ErrorIs(t, err, catalog.ErrServiceNotFound)

			assert.ErrorIs(t, repo.Delete(ctx, "svc_a"), catalog.ErrServiceNotFound)
			assert.ErrorIs(t, repo.SetLastOnline(ctx, "svc_a", online), catalog.ErrServiceNotFound)
			assert.ErrorIs(t, repo.Update(ctx, &catalog.Service{ID: "svc_a"}), catalog.ErrServiceNotFound)
		})
	}
}

func TestRepositories_UpdateKeepsLastOnline(t *testing.T) {
	repos := map[string]func(t *testing.T) catalog.Repository{
		"memory": func(*testing.T) catalog.Repository { return catalog.NewInMemoryRepository() },
		"bolt":   func(t *testing.T) catalog.Repository { return newBoltRepository(t) },
	}

	for name, newRepo := range repos {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			require.NoError(t, repo.Create(ctx, &catalog.Service{
				ID: "svc_api", Name: "api", URL: "https://api.example.com", LastOnlineDate: catalog.DistantPast,
			}))

			stale, err := repo.Get(ctx, "svc_api")
			require.NoError(t, err)

			// A status check lands between the read and the write.
			online := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
			require.NoError(t, repo.SetLastOnline(ctx, "svc_api", online))

			stale.Name = "API"
			stale.Position = 3
			require.NoError(t, repo.Update(ctx, stale))

			got, err := repo.Get(ctx, "svc_api")
			require.NoError(t, err)
			assert.Equal(t, "API", got.Name)
			assert.Equal(t, 3, got.Position)
			assert.True(t, got.LastOnlineDate.Equal(online), "got %v", got.LastOnlineDate)
		})
	}
}

func TestInMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := catalog.NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &catalog.Service{ID: "svc_a", Name: "a", Icon: []byte{1}}))

	got, err := repo.Get(ctx, "svc_a")
	require.NoError(t, err)
	got.Name = "mutated"
	got.Icon[0] = 9

	again, err := repo.Get(ctx, "svc_a")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Name)
	assert.Equal(t, []byte{1}, again.Icon)
}
