// Package store opens the repositories selected by configuration.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"

	"github.com/statusboard/statusboard/internal/catalog"
	"github.com/statusboard/statusboard/internal/config"
	"github.com/statusboard/statusboard/internal/database"
	"github.com/statusboard/statusboard/internal/featureflags"
)

// Stores holds the opened repositories and the connection behind them.
type Stores struct {
	Kind     string
	Catalog  catalog.Repository
	Flags    featureflags.Repository
	Checks   map[string]func(ctx context.Context) error
	closeFns []func()
}

// Open opens the backend named by cfg.Store and ensures its schema.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn().Msg("using in-memory store - data is lost on restart")
		return &Stores{
			Kind:    cfg.Store,
			Catalog: catalog.NewInMemoryRepository(),
			Flags:   featureflags.NewInMemoryRepository(),
			Checks:  map[string]func(ctx context.Context) error{},
		}, nil
	case config.StorePostgres:
		return openPostgres(ctx, log)
	case config.StoreBolt:
		return openBolt(cfg.BoltPath, log)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func openPostgres(ctx context.Context, log zerolog.Logger) (*Stores, error) {
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("dsn", dbConfig.Redacted()).
		Msg("database connected")

	catalogRepo := catalog.NewPostgresRepository(pool)
	if err := catalogRepo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure services schema: %w", err)
	}
	flagsRepo := featureflags.NewPostgresRepository(pool)
	if err := flagsRepo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure feature_flags schema: %w", err)
	}

	return &Stores{
		Kind:    config.StorePostgres,
		Catalog: catalogRepo,
		Flags:   flagsRepo,
		Checks: map[string]func(ctx context.Context) error{
			"postgres": pingPool(pool),
		},
		closeFns: []func(){pool.Close},
	}, nil
}

func openBolt(path string, log zerolog.Logger) (*Stores, error) {
	db, err := database.OpenBolt(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Msg("bolt database opened")

	catalogRepo, err := catalog.NewBoltRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	flagsRepo, err := featureflags.NewBoltRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Stores{
		Kind:    config.StoreBolt,
		Catalog: catalogRepo,
		Flags:   flagsRepo,
		Checks: map[string]func(ctx context.Context) error{
			"bolt": func(ctx context.Context) error { return database.PingBolt(ctx, db) },
		},
		closeFns: []func(){closeBolt(db, log)},
	}, nil
}

// Close releases the underlying connection.
func (s *Stores) Close() {
	for _, fn := range s.closeFns {
		fn()
	}
}

func pingPool(pool *pgxpool.Pool) func(ctx context.Context) error {
	return pool.Ping
}

func closeBolt(db *bolt.DB, log zerolog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close bolt database")
		}
	}
}
