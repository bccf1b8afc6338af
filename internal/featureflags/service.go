package featureflags

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const defaultCacheTTL = time.Minute

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger

	// CacheTTL is how long a loaded snapshot is served before the repository
	// is read again. Default: 1 minute.
	CacheTTL time.Duration

	// DefaultFlags apply to keys the repository has no entry for.
	// Default: DefaultFlags().
	DefaultFlags map[string]*Flag

	// Now is the time source. Default: time.Now.
	Now func() time.Time
}

// Service serves flags from a snapshot of defaults merged with the
// repository. Every status check reads flags, so the snapshot is reloaded at
// most once per TTL and concurrent reloads share one repository call. When the
// repository fails, the last good snapshot (or the defaults) keeps serving.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	cacheTTL time.Duration
	defaults map[string]*Flag
	now      func() time.Time

	loads singleflight.Group

	mu       sync.RWMutex
	snapshot map[string]*Flag
	expires  time.Time
}

// NewService creates a new feature flag service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		cacheTTL: cfg.CacheTTL,
		defaults: cfg.DefaultFlags,
		now:      cfg.Now,
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = defaultCacheTTL
	}
	if s.defaults == nil {
		s.defaults = DefaultFlags()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// GetFlag returns the effective flag for key, or nil if the key is neither
// stored nor defaulted.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	flag, ok := s.flags(ctx)[key]
	if !ok {
		return nil
	}
	return flag.clone()
}

// GetAllFlags returns every effective flag keyed by flag key.
func (s *Service) GetAllFlags(ctx context.Context) map[string]*Flag {
	snapshot := s.flags(ctx)
	result := make(map[string]*Flag, len(snapshot))
	for k, v := range snapshot {
		result[k] = v.clone()
	}
	return result
}

// SetFlags validates and stores flags as one change made by operator.
func (s *Service) SetFlags(ctx context.Context, operator string, flags []*Flag) error {
	seen := make(map[string]bool, len(flags))
	for _, flag := range flags {
		if seen[flag.Key] {
			return fmt.Errorf("%w: %s given more than once", ErrInvalidFlagValue, flag.Key)
		}
		seen[flag.Key] = true
		if err := Validate(flag.Key, flag.Value); err != nil {
			return err
		}
	}

	now := s.now()
	stored := make([]*Flag, 0, len(flags))
	for _, flag := range flags {
		stored = append(stored, &Flag{Key: flag.Key, Value: flag.Value, UpdatedAt: now, UpdatedBy: operator})
	}
	if err := s.repo.SetFlags(ctx, stored); err != nil {
		return err
	}

	s.InvalidateCache()
	return nil
}

// ResetFlag deletes the stored value of key so its default applies again.
func (s *Service) ResetFlag(ctx context.Context, key string) error {
	if err := s.repo.DeleteFlag(ctx, key); err != nil {
		return err
	}
	s.InvalidateCache()
	return nil
}

// InvalidateCache drops the snapshot so the next read reloads it.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expires = time.Time{}
}

// ShowErrorCodes reports whether failed rows show their status code or error
// description.
func (s *Service) ShowErrorCodes(ctx context.Context) bool {
	return s.GetFlag(ctx, FlagShowErrorCodes).BoolValue(false)
}

// MinimumLoadingTime returns how long a row keeps its loading spinner at least.
func (s *Service) MinimumLoadingTime(ctx context.Context) time.Duration {
	ms := s.GetFlag(ctx, FlagMinimumLoadingMs).IntValue(DefaultMinimumLoadingMs)
	ms = min(max(ms, 0), MaxMinimumLoadingMs)
	return time.Duration(ms) * time.Millisecond
}

// flags returns the current snapshot, reloading it when expired. The returned
// map is shared and must not be modified.
func (s *Service) flags(ctx context.Context) map[string]*Flag {
	s.mu.RLock()
	snapshot, fresh := s.snapshot, s.now().Before(s.expires)
	s.mu.RUnlock()
	if fresh {
		return snapshot
	}

	v, _, _ := s.loads.Do("flags", func() (any, error) {
		return s.reload(ctx), nil
	})
	return v.(map[string]*Flag)
}

func (s *Service) reload(ctx context.Context) map[string]*Flag {
	stored, err := s.repo.GetAllFlags(context.WithoutCancel(ctx))
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load feature flags, serving last known values")

		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.snapshot != nil {
			return s.snapshot
		}
		return s.defaults
	}

	merged := make(map[string]*Flag, len(s.defaults)+len(stored))
	for k, v := range s.defaults {
		merged[k] = v
	}
	for k, v := range stored {
		if err := Validate(k, v.Value); err != nil {
			s.logger.Warn().Err(err).Str("flag", k).Msg("ignoring stored feature flag")
			continue
		}
		merged[k] = v
	}

	s.mu.Lock()
	s.snapshot = merged
	s.expires = s.now().Add(s.cacheTTL)
	s.mu.Unlock()

	return merged
}
