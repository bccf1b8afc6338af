// Package statusrow implements one row of the service status dashboard: the
// service's identity, its latest status check and the loading indicator.
package statusrow

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultMinimumLoadingTime is used when no Settings are configured.
const DefaultMinimumLoadingTime = 500 * time.Millisecond

// Fetcher resolves a URL to the HTTP status code it answers with.
type Fetcher interface {
	FetchStatusCode(ctx context.Context, rawURL string) (int, error)
}

// Recorder persists the last-online date of a service.
type Recorder interface {
	RecordOnline(ctx context.Context, id string, at time.Time) error
	RecordOffline(ctx context.Context, id string) error
}

// Settings are the process-wide display settings.
type Settings interface {
	ShowErrorCodes(ctx context.Context) bool
	MinimumLoadingTime(ctx context.Context) time.Duration
}

// EditMode reports whether the dashboard is in edit mode.
type EditMode interface {
	EditMode() bool
}

// Service is the identity a row displays.
type Service struct {
	ID      string
	Name    string
	URL     string
	Icon    []byte
	IconRef string
}

// Config holds the collaborators of a row.
type Config struct {
	Service  Service
	Fetcher  Fetcher
	Recorder Recorder // optional
	Settings Settings // optional
	EditMode EditMode // optional

	// Clock defaults to RealClock.
	Clock Clock

	// Hold defaults to FloorHold.
	Hold HoldFunc

	Logger zerolog.Logger
}

// Row owns the state of one service row and at most one outstanding status check.
// All state is guarded by mu; fetch completions and timers re-enter through it.
// recordMu is held across the Recorder call of the current fetch and while a
// fetch is superseded or the row closed, so a superseded fetch never records.
// It is always acquired before mu.
type Row struct {
	fetcher  Fetcher
	recorder Recorder
	settings Settings
	editMode EditMode
	clock    Clock
	hold     HoldFunc
	logger   zerolog.Logger

	recordMu sync.Mutex

	mu         sync.Mutex
	service    Service
	state      State
	generation uint64
	cancel     context.CancelFunc
	timer      Timer
	done       chan struct{}
	closed     bool
}

// New creates a row. Nothing is fetched until Appear or Activate.
func New(cfg Config) *Row {
	clock := cfg.Clock
	if clock == nil {
		clock = RealClock{}
	}
	hold := cfg.Hold
	if hold == nil {
		hold = FloorHold
	}
	settings := cfg.Settings
	if settings == nil {
		settings = defaultSettings{}
	}

	return &Row{
		fetcher:  cfg.Fetcher,
		recorder: cfg.Recorder,
		settings: settings,
		editMode: cfg.EditMode,
		clock:    clock,
		hold:     hold,
		logger:   cfg.Logger.With().Str("service_id", cfg.Service.ID).Logger(),
		service:  cfg.Service,
	}
}

// ID returns the service ID of the row.
func (r *Row) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.service.ID
}

// SetService replaces the displayed identity. The ID is kept.
func (r *Row) SetService(svc Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	svc.ID = r.service.ID
	r.service = svc
}

// State returns a snapshot of the row state.
func (r *Row) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Appear starts the initial fetch the first time the row is displayed.
// It returns false on every later call.
func (r *Row) Appear(ctx context.Context) bool {
	r.mu.Lock()
	if r.closed || r.state.HasPerformedInitialFetch {
		r.mu.Unlock()
		return false
	}
	r.state.HasPerformedInitialFetch = true
	r.mu.Unlock()

	return r.FetchStatus(ctx)
}

// Activate starts a fetch unless the dashboard is in edit mode.
func (r *Row) Activate(ctx context.Context) bool {
	if r.editMode != nil && r.editMode.EditMode() {
		return false
	}
	return r.FetchStatus(ctx)
}

// FetchStatus starts a status check and returns immediately. A fetch already
// in flight is cancelled and its completion discarded. The check is detached
// from ctx cancellation but keeps its values.
func (r *Row) FetchStatus(ctx context.Context) bool {
	minimum := r.settings.MinimumLoadingTime(ctx)

	r.recordMu.Lock()
	defer r.recordMu.Unlock()
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	r.stopLocked()

	r.generation++
	gen := r.generation
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.state.Loading = true
	start := r.clock.Now()
	svc := r.service
	r.mu.Unlock()

	go r.run(fetchCtx, gen, done, svc, start, minimum)
	return true
}

func (r *Row) run(ctx context.Context, gen uint64, done chan struct{}, svc Service, start time.Time, minimum time.Duration) {
	defer close(done)

	code, err := r.fetcher.FetchStatusCode(ctx, svc.URL)
	now := r.clock.Now()

	if !r.record(ctx, gen, svc.ID, now, err) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || gen != r.generation {
		return
	}

	if err != nil {
		r.state.Result = Failure{Err: err}
	} else {
		r.state.Result = Success{StatusCode: code}
	}
	r.finishLoadingLocked(gen, start, now, minimum)
}

// finishLoadingLocked stores the response time and schedules the end of loading.
func (r *Row) finishLoadingLocked(gen uint64, start, now time.Time, minimum time.Duration) {
	elapsed := now.Sub(start)
	r.state.LastResponseTime = &elapsed
	remaining := r.hold(minimum, elapsed)

	r.logger.Debug().
		Dur("elapsed", elapsed).
		Dur("hold", remaining).
		Msg("status check finished")

	if remaining <= 0 {
		r.state.Loading = false
		return
	}

	r.timer = r.clock.AfterFunc(remaining, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed || gen != r.generation {
			return
		}
		r.state.Loading = false
		r.timer = nil
	})
}

func (r *Row) current(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.closed && gen == r.generation
}

// record stores the last-online date for the outcome of fetch gen. It reports
// false, recording nothing, when gen was superseded or the row closed.
func (r *Row) record(ctx context.Context, gen uint64, id string, now time.Time, fetchErr error) bool {
	r.recordMu.Lock()
	defer r.recordMu.Unlock()

	if !r.current(gen) {
		return false
	}

	var err error
	if fetchErr != nil {
		err = r.recordOffline(ctx, id)
	} else {
		err = r.recordOnline(ctx, id, now)
	}
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to record last online date")
	}
	return true
}

func (r *Row) recordOnline(ctx context.Context, id string, at time.Time) error {
	if r.recorder == nil {
		return nil
	}
	return r.recorder.RecordOnline(ctx, id, at)
}

func (r *Row) recordOffline(ctx context.Context, id string) error {
	if r.recorder == nil {
		return nil
	}
	return r.recorder.RecordOffline(ctx, id)
}

// Wait blocks until the latest fetch has applied its result or was discarded.
func (r *Row) Wait() {
	for {
		r.mu.Lock()
		done, gen := r.done, r.generation
		r.mu.Unlock()

		if done == nil {
			return
		}
		<-done

		r.mu.Lock()
		latest := gen == r.generation
		r.mu.Unlock()
		if latest {
			return
		}
	}
}

// Close cancels the in-flight fetch and the pending loading timer.
// The row starts no fetches afterwards.
func (r *Row) Close() {
	r.recordMu.Lock()
	defer r.recordMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.stopLocked()
}

func (r *Row) stopLocked() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

type defaultSettings struct{}

func (defaultSettings) ShowErrorCodes(context.Context) bool { return false }

func (defaultSettings) MinimumLoadingTime(context.Context) time.Duration {
	return DefaultMinimumLoadingTime
}
