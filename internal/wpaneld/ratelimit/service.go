package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wrale/wrale-panels/internal/wpaneld/config"
)

type service struct {
	store   Store
	logger  *slog.Logger
	limits  map[string]Limit
	limitsM sync.RWMutex
}

// NewService creates a new rate limiting service
func NewService(store Store, logger *slog.Logger) Service {
	return &service{
		store:  store,
		logger: logger,
		limits: make(map[string]Limit),
	}
}

// RegisterLimit adds or updates a rate limit configuration
func (s *service) RegisterLimit(limitType string, limit Limit) error {
	if limitType == "" || limit.Rate <= 0 || limit.Period <= 0 || limit.BurstSize < 0 {
		return ErrInvalidLimit
	}

	s.limitsM.Lock()
	defer s.limitsM.Unlock()

	s.limits[limitType] = limit
	return nil
}

// Allow checks if an operation should be allowed
func (s *service) Allow(ctx context.Context, key LimitKey) (*LimitStatus, error) {
	if key.Type == "" {
		return nil, ErrInvalidKey
	}

	limit := s.GetLimit(key.Type)
	if limit.Rate == 0 {
		s.logger.Warn("no rate limit configured for type",
			"type", key.Type,
		)
		return &LimitStatus{Allowed: true}, nil
	}

	count, reset, err := s.store.Increment(ctx, key, limit)
	if err != nil {
		s.logger.Error("rate limit check failed",
			"error", err,
			"type", key.Type,
			"endpoint", key.Endpoint,
		)
		return nil, err
	}

	capacity := limit.Rate + limit.BurstSize
	status := &LimitStatus{
		Limit:     limit,
		Count:     count,
		Remaining: capacity - count,
		Reset:     reset,
		Allowed:   count <= capacity,
	}
	if status.Remaining < 0 {
		status.Remaining = 0
	}

	s.logger.Debug("rate limit check",
		"type", key.Type,
		"count", count,
		"limit", limit.Rate,
		"burst", limit.BurstSize,
		"remoteIP", key.RemoteIP,
		"endpoint", key.Endpoint,
	)

	return status, nil
}

// GetLimit returns the configured limit for a key type
func (s *service) GetLimit(limitType string) Limit {
	s.limitsM.RLock()
	defer s.limitsM.RUnlock()

	return s.limits[limitType]
}

// Reset clears rate limit counters for a key
func (s *service) Reset(ctx context.Context, key LimitKey) error {
	if key.Type == "" {
		return ErrInvalidKey
	}

	if err := s.store.Reset(ctx, key); err != nil {
		s.logger.Error("failed to reset rate limit",
			"error", err,
			"type", key.Type,
			"endpoint", key.Endpoint,
		)
		return err
	}

	return nil
}

// RegisterDefaultLimits configures standard rate limits
func (s *service) RegisterDefaultLimits() {
	// API rate limits
	_ = s.RegisterLimit(LimitAPIRequest, Limit{
		Rate:        120, // 120 requests
		Period:      time.Minute,
		BurstSize:   20,          // Allow bursts
		WaitTimeout: time.Second, // Short wait allowed
	})

	// Displays report every image load; a busy dual panel reports two per tick
	_ = s.RegisterLimit(LimitMediaReport, Limit{
		Rate:      600,
		Period:    time.Minute,
		BurstSize: 60,
	})

	// WebSocket limits
	_ = s.RegisterLimit(LimitWSConnection, Limit{
		Rate:      10, // 10 connects
		Period:    time.Minute,
		BurstSize: 5,
	})
}

// RegisterConfiguredLimits registers the defaults and then the overrides
// from cfg
func (s *service) RegisterConfiguredLimits(cfg config.RateLimitConfig) error {
	s.RegisterDefaultLimits()

	for name, lc := range cfg.Limits {
		err := s.RegisterLimit(name, Limit{
			Rate:        lc.Rate,
			Period:      lc.Period,
			BurstSize:   lc.BurstSize,
			WaitTimeout: lc.WaitTimeout,
		})
		if err != nil {
			return fmt.Errorf("limit %s: %w", name, err)
		}
	}
	return nil
}
