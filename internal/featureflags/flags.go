// Package featureflags holds the dashboard settings operators change at
// runtime: whether failed rows show their error code, and how long a row keeps
// its loading spinner at least.
package featureflags

import (
	"fmt"
	"math"
	"time"
)

// Well-known feature flag keys.
const (
	// FlagShowErrorCodes shows the status code or error description next to
	// the warning glyph of failed rows.
	FlagShowErrorCodes = "show_error_codes"

	// FlagMinimumLoadingMs is the minimum time in milliseconds a row shows
	// its loading spinner.
	FlagMinimumLoadingMs = "minimum_loading_ms"
)

const (
	// DefaultMinimumLoadingMs is the default value of FlagMinimumLoadingMs.
	DefaultMinimumLoadingMs = 500

	// MaxMinimumLoadingMs caps FlagMinimumLoadingMs. A longer hold would
	// outlast the check timeout and hide every result behind the spinner.
	MaxMinimumLoadingMs = 10_000
)

// Flag is a stored flag value. Values arrive as decoded JSON, so numbers are
// float64.
type Flag struct {
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

// BoolValue returns the flag as a boolean, or defaultValue when the flag is
// nil or not a boolean.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	if v, ok := f.Value.(bool); ok {
		return v
	}
	return defaultValue
}

// IntValue returns the flag as an integer, or defaultValue when the flag is
// nil or not a number.
func (f *Flag) IntValue(defaultValue int) int {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case float64:
		return int(math.Round(v))
	case int:
		return v
	default:
		return defaultValue
	}
}

func (f *Flag) clone() *Flag {
	c := *f
	return &c
}

// DefaultFlags returns the values used when the store has no entry for a key.
func DefaultFlags() map[string]*Flag {
	return map[string]*Flag{
		FlagShowErrorCodes:   {Key: FlagShowErrorCodes, Value: false},
		FlagMinimumLoadingMs: {Key: FlagMinimumLoadingMs, Value: float64(DefaultMinimumLoadingMs)},
	}
}

// Validate checks that a value has the type expected for a well-known key.
// Unknown keys accept any value.
func Validate(key string, value any) error {
	switch key {
	case FlagShowErrorCodes:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %s must be a boolean", ErrInvalidFlagValue, key)
		}
	case FlagMinimumLoadingMs:
		var ms float64
		switch v := value.(type) {
		case float64:
			ms = v
		case int:
			ms = float64(v)
		default:
			return fmt.Errorf("%w: %s must be a number", ErrInvalidFlagValue, key)
		}
		if ms < 0 || ms > MaxMinimumLoadingMs {
			return fmt.Errorf("%w: %s must be between 0 and %d", ErrInvalidFlagValue, key, MaxMinimumLoadingMs)
		}
	}
	return nil
}
