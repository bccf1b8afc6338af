// Package main provides the entrypoint for the status board API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/statusboard/statusboard/internal/api"
	"github.com/statusboard/statusboard/internal/api/handler"
	"github.com/statusboard/statusboard/internal/api/middleware"
	"github.com/statusboard/statusboard/internal/auth"
	"github.com/statusboard/statusboard/internal/catalog"
	"github.com/statusboard/statusboard/internal/config"
	"github.com/statusboard/statusboard/internal/dashboard"
	"github.com/statusboard/statusboard/internal/featureflags"
	"github.com/statusboard/statusboard/internal/logging"
	"github.com/statusboard/statusboard/internal/network"
	"github.com/statusboard/statusboard/internal/resilience"
	"github.com/statusboard/statusboard/internal/store"
	"github.com/statusboard/statusboard/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "statusboard-api"

	cfg, err := config.Load(".")
	if err != nil {
		// Logger settings come from config; fall back to a plain logger.
		logging.New(logging.Config{Service: serviceName, Version: Version}).
			Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.New(logging.Config{
		Service:    serviceName,
		Version:    Version,
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Str("store", cfg.Store).
		Msg("starting status board API")

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if tp.Enabled() {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	checkMetrics, err := network.NewCheckMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize check metrics")
		os.Exit(1)
	}

	stores, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer stores.Close()

	catalogManager := catalog.NewManager(stores.Catalog)
	if cfg.SeedFile != "" {
		seed, err := catalog.LoadSeed(cfg.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SeedFile).Msg("failed to load seed file")
		}
		added, err := catalogManager.Seed(ctx, seed)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed catalogue")
		}
		log.Info().Int("added", added).Str("path", cfg.SeedFile).Msg("catalogue seeded")
	}

	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: stores.Flags,
		Logger:     log,
		CacheTTL:   cfg.FlagCacheTTL,
	})
	log.Info().Msg("feature flags service initialized")

	jwtSigningKey := cfg.JWTSigningKey
	if jwtSigningKey == "" {
		jwtSigningKey = auth.DevSigningKey
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
	})

	client := resilience.NewClient(resilience.StatusCheckClientConfig("statuscheck", cfg.CheckTimeout))
	registry := resilience.NewRegistry(client)
	fetcher := network.NewHTTPFetcher(network.HTTPFetcherConfig{
		Client:   client,
		Registry: registry,
		Metrics:  checkMetrics,
		Logger:   log,
	})

	board := dashboard.New(dashboard.Config{
		Catalog:  catalogManager,
		Fetcher:  fetcher,
		Settings: ffService,
		Logger:   log,
	})
	defer board.Close()

	checks := make(map[string]handler.CheckFunc, len(stores.Checks))
	for name, check := range stores.Checks {
		checks[name] = check
	}

	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		TokenValidator:     jwtService,
		Board:              board,
		Catalog:            catalogManager,
		FeatureFlagService: ffService,
		Registry:           registry,
		ReadinessChecks:    checks,
		RequireTLS:         cfg.RequireTLS,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	// Let in-flight status checks record their outcome.
	board.Wait()

	log.Info().Msg("server stopped")
}
