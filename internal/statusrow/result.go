package statusrow

import "time"

// Result is the outcome of the latest status check: Success or Failure.
type Result interface {
	isResult()
}

// Success is a check that got an HTTP answer. Non-200 codes are still a Success.
type Success struct {
	StatusCode int
}

// Failure is a check that got no HTTP answer.
type Failure struct {
	Err error
}

func (Success) isResult() {}
func (Failure) isResult() {}

// State is a snapshot of a row's display state.
type State struct {
	// Loading is true from fetch start until the loading hold has elapsed
	// after the fetch completed.
	Loading bool

	// LastResponseTime is the elapsed time of the latest completed fetch.
	LastResponseTime *time.Duration

	HasPerformedInitialFetch bool

	// Result is nil until the first fetch completes.
	Result Result
}
