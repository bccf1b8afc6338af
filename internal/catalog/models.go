// Package catalog stores the monitored services shown on the dashboard.
package catalog

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrServiceNotFound = errors.New("service not found")
	ErrInvalidService  = errors.New("invalid service")
)

// DistantPast is the last-online sentinel for services whose latest check failed
// or that were never checked.
var DistantPast = time.Time{}

// Service is a monitored service.
type Service struct {
	ID      string
	Name    string
	URL     string
	Icon    []byte // raw image data, optional
	IconRef string // image reference (URL or asset name), optional

	// LastOnlineDate is when the service last answered a status check,
	// or DistantPast.
	LastOnlineDate time.Time

	// Position orders services on the dashboard, ascending.
	Position int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOnlineSince reports whether the service answered a check at or after t.
func (s *Service) IsOnlineSince(t time.Time) bool {
	return !s.LastOnlineDate.Equal(DistantPast) && !s.LastOnlineDate.Before(t)
}

func copyService(s *Service) *Service {
	if s == nil {
		return nil
	}
	c := *s
	if s.Icon != nil {
		c.Icon = append([]byte(nil), s.Icon...)
	}
	return &c
}
