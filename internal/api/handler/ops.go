// Package handler provides HTTP handlers for the statusboard API.
package handler

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/statusboard/statusboard/internal/api/models"
	"github.com/statusboard/statusboard/internal/api/response"
	"github.com/statusboard/statusboard/internal/resilience"
)

// readinessTimeout bounds a single dependency check.
const readinessTimeout = 2 * time.Second

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

// EditModeSource reports the dashboard edit mode.
type EditModeSource interface {
	EditMode() bool
}

// OpsConfig configures the OpsHandler.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Checks are dependency checks run by readiness and status, keyed by subsystem name.
	Checks map[string]CheckFunc

	// Registry reports circuit breaker state per checked host. Optional.
	Registry *resilience.Registry

	// EditMode reports the dashboard edit mode. Optional.
	EditMode EditModeSource
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg       OpsConfig
	startedAt time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg, startedAt: time.Now()}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Version:   h.cfg.Version,
		BuildTime: h.cfg.BuildTime,
		UptimeSec: int64(time.Since(h.startedAt).Seconds()),
	})
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// Responds 503 when any dependency check fails.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ready := models.Readiness{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Checks: h.runChecks(r.Context()),
	}
	for _, s := range ready.Checks {
		ready.Status = models.Worst(ready.Status, s.Status)
	}

	status := http.StatusOK
	if ready.Status == models.HealthStatusFail {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, ready)
}

// SystemStatus handles GET /v1/ops/status - subsystem and checked endpoint status.
// An unhealthy checked host degrades the overall status but never fails it;
// the board is still serving when a monitored service is down.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: h.runChecks(r.Context()),
		Endpoints:  []models.EndpointStatus{},
	}
	if h.cfg.EditMode != nil {
		status.EditMode = h.cfg.EditMode.EditMode()
	}

	for _, s := range status.Subsystems {
		status.Status = models.Worst(status.Status, s.Status)
	}

	if h.cfg.Registry != nil {
		for _, eh := range h.cfg.Registry.GetAllHealth() {
			ep := toEndpointStatus(eh)
			if ep.Status != models.HealthStatusOK {
				status.Status = models.Worst(status.Status, models.HealthStatusDegraded)
			}
			status.Endpoints = append(status.Endpoints, ep)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

// runChecks runs the dependency checks in name order, each under its own timeout.
func (h *OpsHandler) runChecks(ctx context.Context) []models.SubsystemStatus {
	names := slices.Sorted(maps.Keys(h.cfg.Checks))

	log := zerolog.Ctx(ctx)
	subsystems := make([]models.SubsystemStatus, 0, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
		started := time.Now()
		err := h.cfg.Checks[name](checkCtx)
		cancel()

		s := models.SubsystemStatus{
			Name:      name,
			Status:    models.HealthStatusOK,
			LatencyMs: time.Since(started).Milliseconds(),
		}
		if err != nil {
			log.Warn().Err(err).Str("subsystem", name).Msg("dependency check failed")
			detail := err.Error()
			s.Status = models.HealthStatusFail
			s.Detail = &detail
		}
		subsystems = append(subsystems, s)
	}
	return subsystems
}

func toEndpointStatus(eh *resilience.EndpointHealth) models.EndpointStatus {
	ep := models.EndpointStatus{
		Host:          eh.Host,
		Status:        models.HealthStatusOK,
		CircuitState:  eh.CircuitState.String(),
		LastLatencyMs: eh.LastLatency.Milliseconds(),
	}
	switch {
	case eh.IsUnhealthy():
		ep.Status = models.HealthStatusFail
	case eh.IsDegraded():
		ep.Status = models.HealthStatusDegraded
	}
	if eh.LastSuccessAt != nil {
		ts := models.Timestamp(*eh.LastSuccessAt)
		ep.LastSuccessAt = &ts
	}
	if eh.LastFailureAt != nil {
		ts := models.Timestamp(*eh.LastFailureAt)
		ep.LastFailureAt = &ts
	}
	if eh.LastError != "" {
		msg := eh.LastError
		ep.Message = &msg
	}
	return ep
}
