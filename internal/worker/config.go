// Package worker provides background status checks for the status board.
package worker

import (
	"time"
)

// CheckConfig holds configuration for the status check job.
type CheckConfig struct {
	// Concurrency is the number of concurrent status checks.
	// Default: 4
	Concurrency int

	// Timeout is the timeout for each status check.
	// Default: 10 seconds
	Timeout time.Duration
}

// DefaultCheckConfig returns the default check configuration.
func DefaultCheckConfig() CheckConfig {
	return CheckConfig{
		Concurrency: 4,
		Timeout:     10 * time.Second,
	}
}

func (c CheckConfig) withDefaults() CheckConfig {
	def := DefaultCheckConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
