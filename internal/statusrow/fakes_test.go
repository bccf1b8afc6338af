package statusrow_test

import (
	"context"
	"sync"
	"time"

	"github.com/statusboard/statusboard/internal/statusrow"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) statusrow.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and runs the timers that became due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type fetchFunc func(ctx context.Context, rawURL string) (int, error)

// countingFetcher counts calls and delegates to fn.
type countingFetcher struct {
	mu    sync.Mutex
	calls int
	urls  []string
	fn    fetchFunc
}

func (f *countingFetcher) FetchStatusCode(ctx context.Context, rawURL string) (int, error) {
	f.mu.Lock()
	f.calls++
	f.urls = append(f.urls, rawURL)
	f.mu.Unlock()
	return f.fn(ctx, rawURL)
}

func (f *countingFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSettings struct {
	showErrorCodes bool
	minimum        time.Duration
}

func (s fakeSettings) ShowErrorCodes(context.Context) bool { return s.showErrorCodes }

func (s fakeSettings) MinimumLoadingTime(context.Context) time.Duration { return s.minimum }

type editMode bool

func (e editMode) EditMode() bool { return bool(e) }
