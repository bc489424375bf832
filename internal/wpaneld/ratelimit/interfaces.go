// Package ratelimit limits request rates on the daemon's HTTP surface
package ratelimit

import (
	"context"
	"time"

	"github.com/wrale/wrale-panels/internal/wpaneld/config"
)

// Limit types used by the HTTP layer
const (
	LimitAPIRequest   = "api_request"
	LimitMediaReport  = "media_report"
	LimitWSConnection = "ws_connection"
)

// LimitKey identifies a specific rate limit
type LimitKey struct {
	Type     string // e.g. "api_request", "media_report"
	Token    string // panel id or other caller identity
	RemoteIP string // remote IP for anonymous callers
	Endpoint string // API endpoint for specific limits
}

// Store handles rate limit state persistence using fixed windows
type Store interface {
	// Increment counts one operation against key and returns the count in
	// the current window and when that window ends
	Increment(ctx context.Context, key LimitKey, limit Limit) (int, time.Time, error)

	// Reset clears a rate limit counter
	Reset(ctx context.Context, key LimitKey) error
}

// Service manages rate limiting for the application
type Service interface {
	// Allow counts an operation and reports whether it is within limits
	Allow(ctx context.Context, key LimitKey) (*LimitStatus, error)

	// GetLimit returns the configured limit for a key type
	GetLimit(limitType string) Limit

	// RegisterLimit adds or replaces a limit
	RegisterLimit(limitType string, limit Limit) error

	// Reset clears rate limit counters for a key
	Reset(ctx context.Context, key LimitKey) error

	// RegisterDefaultLimits configures standard rate limits
	RegisterDefaultLimits()

	// RegisterConfiguredLimits applies limits from config over the defaults
	RegisterConfiguredLimits(cfg config.RateLimitConfig) error
}

// Limit defines the rate limit configuration
type Limit struct {
	// Rate is the number of operations allowed
	Rate int

	// Period is the time window for the rate
	Period time.Duration

	// BurstSize allows a short burst over the rate (optional)
	BurstSize int

	// WaitTimeout is how long to wait if rate limited (0 for no wait)
	WaitTimeout time.Duration
}

// LimitStatus is the outcome of one Allow call
type LimitStatus struct {
	Limit     Limit
	Count     int
	Remaining int
	Reset     time.Time
	Allowed   bool
}

// Error types for rate limiting
var (
	ErrLimitExceeded = NewError("RATE_LIMITED", "rate limit exceeded")
	ErrStoreError    = NewError("STORE_ERROR", "rate limit store error")
	ErrInvalidLimit  = NewError("INVALID_LIMIT", "invalid rate limit configuration")
	ErrInvalidKey    = NewError("INVALID_KEY", "invalid rate limit key")
)

// Error represents a rate limiting error
type Error struct {
	Code    string
	Message string
}

func (e Error) Error() string {
	return e.Message
}

// NewError creates a new rate limit error
func NewError(code string, message string) Error {
	return Error{
		Code:    code,
		Message: message,
	}
}
