// Package main provides the entrypoint for the status check worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/statusboard/statusboard/internal/api/middleware"
	"github.com/statusboard/statusboard/internal/api/response"
	"github.com/statusboard/statusboard/internal/catalog"
	"github.com/statusboard/statusboard/internal/config"
	"github.com/statusboard/statusboard/internal/logging"
	"github.com/statusboard/statusboard/internal/network"
	"github.com/statusboard/statusboard/internal/resilience"
	"github.com/statusboard/statusboard/internal/store"
	"github.com/statusboard/statusboard/internal/telemetry"
	"github.com/statusboard/statusboard/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "statusboard-worker"

	cfg, err := config.Load(".")
	if err != nil {
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
		Str("store", cfg.Store).
		Dur("interval", cfg.CheckInterval).
		Msg("starting status check worker")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	checkMetrics, err := network.NewCheckMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize check metrics")
	}

	stores, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer stores.Close()

	client := resilience.NewClient(resilience.StatusCheckClientConfig("worker", cfg.CheckTimeout))
	checkJob := worker.NewCheckJob(worker.CheckJobConfig{
		Config: worker.CheckConfig{
			Concurrency: cfg.CheckConcurrency,
			Timeout:     cfg.CheckTimeout,
		},
		Catalog: catalog.NewManager(stores.Catalog),
		Fetcher: network.NewHTTPFetcher(network.HTTPFetcherConfig{
			Client:  client,
			Metrics: checkMetrics,
			Logger:  log,
		}),
		Logger: log,
	})
	dispatcher := worker.NewDispatcher(checkJob, log)

	// Worker also exposes a health endpoint for Cloud Run
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Logger(log), middleware.Recovery(log))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]any{
			"status":  "healthy",
			"version": Version,
			"metrics": checkJob.MetricsSnapshot(),
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	if cfg.PubSubEnabled() {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscription,
			Dispatcher:       dispatcher,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() {
			if err := handler.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	}

	if cfg.CheckInterval > 0 {
		go runTicker(ctx, checkJob, cfg.CheckInterval, log)
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

// runTicker runs the check job immediately and then every interval until ctx is done.
func runTicker(ctx context.Context, job *worker.CheckJob, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := job.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("status check run failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
