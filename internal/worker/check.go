package worker

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/statusboard/statusboard/internal/catalog"
	"github.com/statusboard/statusboard/internal/network"
)

// Catalog is the part of the service catalogue the check job needs.
type Catalog interface {
	List(ctx context.Context) ([]*catalog.Service, error)
	RecordOnline(ctx context.Context, id string, at time.Time) error
	RecordOffline(ctx context.Context, id string) error
}

// CheckJob checks every catalogue service and records its last-online date.
type CheckJob struct {
	config  CheckConfig
	catalog Catalog
	fetcher network.Fetcher
	logger  zerolog.Logger
	now     func() time.Time

	metrics *CheckMetrics
}

// CheckMetrics tracks cumulative check job statistics.
type CheckMetrics struct {
	mu sync.RWMutex

	TotalRuns     int64
	TotalChecks   int64
	OnlineChecks  int64
	OfflineChecks int64
	NonOKChecks   int64
	RecordErrors  int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// CheckJobConfig holds configuration for creating a CheckJob.
type CheckJobConfig struct {
	Config  CheckConfig
	Catalog Catalog
	Fetcher network.Fetcher
	Logger  zerolog.Logger
}

// NewCheckJob creates a new status check job.
func NewCheckJob(cfg CheckJobConfig) *CheckJob {
	return &CheckJob{
		config:  cfg.Config.withDefaults(),
		catalog: cfg.Catalog,
		fetcher: cfg.Fetcher,
		logger:  cfg.Logger,
		now:     time.Now,
		metrics: &CheckMetrics{},
	}
}

// CheckResult contains the result of one check run.
type CheckResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Total int

	// Online services answered, with any status code.
	Online int

	// NonOK counts online services that answered with a status other than 200.
	NonOK int

	// Offline services failed at the transport level.
	Offline int

	Errors []CheckError
}

// CheckError is a failure to record a check outcome.
type CheckError struct {
	ServiceID string
	Error     string
}

type serviceResult struct {
	online bool
	nonOK  bool
	err    *CheckError
}

// Run checks all services with bounded concurrency.
// A listing failure is returned as an error; per-service failures are reported in the result.
func (j *CheckJob) Run(ctx context.Context) (*CheckResult, error) {
	startTime := j.now()

	services, err := j.catalog.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{
		StartTime: startTime,
		Total:     len(services),
	}

	j.logger.Info().
		Int("total_services", result.Total).
		Int("concurrency", j.config.Concurrency).
		Msg("starting status check job")

	servicesChan := make(chan *catalog.Service, len(services))
	resultsChan := make(chan serviceResult, len(services))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.checkWorker(ctx, servicesChan, resultsChan)
		}()
	}

	for _, svc := range services {
		servicesChan <- svc
	}
	close(servicesChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for sr := range resultsChan {
		if sr.online {
			result.Online++
		} else {
			result.Offline++
		}
		if sr.nonOK {
			result.NonOK++
		}
		if sr.err != nil {
			result.Errors = append(result.Errors, *sr.err)
		}
	}

	result.EndTime = j.now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("online", result.Online).
		Int("offline", result.Offline).
		Int("non_ok", result.NonOK).
		Int("errors", len(result.Errors)).
		Msg("status check job completed")

	return result, nil
}

func (j *CheckJob) checkWorker(ctx context.Context, services <-chan *catalog.Service, results chan<- serviceResult) {
	for svc := range services {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.checkService(ctx, svc)
		}
	}
}

func (j *CheckJob) checkService(ctx context.Context, svc *catalog.Service) serviceResult {
	checkCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	log := j.logger.With().Str("service_id", svc.ID).Logger()

	code, fetchErr := j.fetcher.FetchStatusCode(checkCtx, svc.URL)

	var result serviceResult
	var recordErr error
	if fetchErr != nil {
		log.Debug().Err(fetchErr).Msg("service offline")
		recordErr = j.catalog.RecordOffline(ctx, svc.ID)
	} else {
		result.online = true
		result.nonOK = code != http.StatusOK
		recordErr = j.catalog.RecordOnline(ctx, svc.ID, j.now())
	}

	if recordErr != nil {
		log.Warn().Err(recordErr).Msg("failed to record check outcome")
		result.err = &CheckError{ServiceID: svc.ID, Error: recordErr.Error()}
	}
	return result
}

func (j *CheckJob) updateMetrics(result *CheckResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.TotalChecks += int64(result.Total)
	j.metrics.OnlineChecks += int64(result.Online)
	j.metrics.OfflineChecks += int64(result.Offline)
	j.metrics.NonOKChecks += int64(result.NonOK)
	j.metrics.RecordErrors += int64(len(result.Errors))
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *CheckJob) GetMetrics() CheckMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return CheckMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		TotalChecks:     j.metrics.TotalChecks,
		OnlineChecks:    j.metrics.OnlineChecks,
		OfflineChecks:   j.metrics.OfflineChecks,
		NonOKChecks:     j.metrics.NonOKChecks,
		RecordErrors:    j.metrics.RecordErrors,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *CheckJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"total_checks":      m.TotalChecks,
		"online_checks":     m.OnlineChecks,
		"offline_checks":    m.OfflineChecks,
		"non_ok_checks":     m.NonOKChecks,
		"record_errors":     m.RecordErrors,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
