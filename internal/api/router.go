// Package api provides the HTTP API for the status board.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/statusboard/statusboard/internal/api/handler"
	"github.com/statusboard/statusboard/internal/api/middleware"
	"github.com/statusboard/statusboard/internal/catalog"
	"github.com/statusboard/statusboard/internal/dashboard"
	"github.com/statusboard/statusboard/internal/featureflags"
	"github.com/statusboard/statusboard/internal/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version            string
	BuildTime          string
	Logger             zerolog.Logger
	ServiceName        string
	Metrics            *middleware.Metrics
	TokenValidator     middleware.TokenValidator
	Board              *dashboard.Board
	Catalog            *catalog.Manager
	FeatureFlagService *featureflags.Service
	Registry           *resilience.Registry
	ReadinessChecks    map[string]handler.CheckFunc
	RequireTLS         bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "statusboard-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement behind a proxy
	r.Use(middleware.ContentTypeJSON)            // JSON content type
	r.Use(middleware.RequireJSON)                // Reject non-JSON request bodies

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Checks:    cfg.ReadinessChecks,
		Registry:  cfg.Registry,
		EditMode:  cfg.Board,
	})
	dashboardHandler := handler.NewDashboardHandler(cfg.Board)
	serviceHandler := handler.NewServiceHandler(cfg.Catalog)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService)

	authMiddleware := middleware.Auth(cfg.TokenValidator)

	adminRateLimit := middleware.RateLimitByOperator(middleware.AdminRateLimit)       // 10 req/min per operator
	checkRateLimit := middleware.RateLimitChecks(middleware.CheckRateLimit)           // 30 req/min per row
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)       // 100 req/min
	operatorRateLimit := middleware.RateLimitByOperator(middleware.StandardRateLimit) // 100 req/min per operator

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.With(standardRateLimit).Get("/", dashboardHandler.GetDashboard)
			r.With(authMiddleware, operatorRateLimit).Put("/edit-mode", dashboardHandler.SetEditMode)

			r.Route("/rows/{serviceId}", func(r chi.Router) {
				// Appear and activate start outbound checks
				r.With(checkRateLimit).Post("/appear", dashboardHandler.AppearRow)
				r.With(checkRateLimit).Post("/activate", dashboardHandler.ActivateRow)

				r.With(authMiddleware, operatorRateLimit).Put("/position", dashboardHandler.MoveRow)
				r.With(authMiddleware, operatorRateLimit).Delete("/", dashboardHandler.RemoveRow)
			})
		})

		r.Route("/services", func(r chi.Router) {
			r.With(standardRateLimit).Get("/", serviceHandler.ListServices)
			r.With(authMiddleware, operatorRateLimit).Post("/", serviceHandler.CreateService)
			r.Route("/{serviceId}", func(r chi.Router) {
				r.With(standardRateLimit).Get("/", serviceHandler.GetService)
				r.With(authMiddleware, operatorRateLimit).Put("/", serviceHandler.UpdateService)
				r.With(authMiddleware, operatorRateLimit).Delete("/", serviceHandler.DeleteService)
			})
		})

		// Admin endpoints (authenticated)
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(adminRateLimit)

			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Delete("/{key}", featureFlagsHandler.ResetFeatureFlag)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	return r
}
