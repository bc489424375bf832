package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RateLimitOptions configures one middleware instance
type RateLimitOptions struct {
	LimitType string
	// GetToken returns the caller identity; the remote IP is always part of the key
	GetToken func(r *http.Request) string
	// WaitOnLimit blocks briefly for capacity instead of failing at once
	WaitOnLimit bool
	WaitTimeout time.Duration
	// SkipLimitCheck bypasses the limiter for matching requests
	SkipLimitCheck func(r *http.Request) bool
}

// Middleware creates an HTTP middleware for rate limiting. It sets
// RateLimit-* headers and answers 429 with Retry-After when the limit is
// exhausted. A failing store lets requests through.
func Middleware(service Service, logger *slog.Logger, options RateLimitOptions) func(http.Handler) http.Handler {
	rnd := newLockedRand()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := middleware.GetReqID(r.Context())
			reqLogger := logger.With("requestId", reqID)

			if options.SkipLimitCheck != nil && options.SkipLimitCheck(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := buildKey(r, options)

			status, err := service.Allow(r.Context(), key)
			if err != nil {
				reqLogger.Warn("rate limit unavailable, allowing request",
					"error", err,
					"type", options.LimitType,
					"path", r.URL.Path,
				)
				next.ServeHTTP(w, r)
				return
			}

			if status.Limit.Rate > 0 {
				setRateLimitHeaders(w, status)
			}

			if !status.Allowed {
				if shouldWait(options, status.Limit) {
					if err := waitForCapacity(r.Context(), service, key, options, rnd); err == nil {
						next.ServeHTTP(w, r)
						return
					}
				}
				handleLimitExceeded(w, r, status, reqLogger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// buildKey creates a rate limit key from the request
func buildKey(r *http.Request, options RateLimitOptions) LimitKey {
	key := LimitKey{
		Type:     options.LimitType,
		RemoteIP: realIP(r),
		Endpoint: routePattern(r),
	}
	if options.GetToken != nil {
		key.Token = options.GetToken(r)
	}
	return key
}

// routePattern keys limits by route rather than by concrete path so that
// one client cannot multiply its budget across panel ids
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// setRateLimitHeaders adds standard rate limit headers to the response
func setRateLimitHeaders(w http.ResponseWriter, status *LimitStatus) {
	w.Header().Set("RateLimit-Limit", strconv.Itoa(status.Limit.Rate))
	w.Header().Set("RateLimit-Remaining", strconv.Itoa(status.Remaining))
	w.Header().Set("RateLimit-Reset", strconv.FormatInt(status.Reset.Unix(), 10))

	if status.Limit.BurstSize > 0 {
		w.Header().Set("RateLimit-Burst", strconv.Itoa(status.Limit.BurstSize))
	}
}

// handleLimitExceeded sends a 429 Too Many Requests response
func handleLimitExceeded(w http.ResponseWriter, r *http.Request, status *LimitStatus, logger *slog.Logger) {
	retryAfter := int(time.Until(status.Reset).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	logger.Warn("rate limit exceeded",
		"path", r.URL.Path,
		"method", r.Method,
		"remoteIP", realIP(r),
		"retryAfter", retryAfter,
	)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	fmt.Fprintf(w, `{"code":"RATE_LIMITED","message":"too many requests, retry after %d seconds"}`, retryAfter)
}

// shouldWait determines if the middleware should wait for capacity
func shouldWait(options RateLimitOptions, limit Limit) bool {
	if !options.WaitOnLimit {
		return false
	}
	return waitTimeout(options, limit) > 0
}

func waitTimeout(options RateLimitOptions, limit Limit) time.Duration {
	if options.WaitTimeout > 0 {
		return options.WaitTimeout
	}
	return limit.WaitTimeout
}

// waitForCapacity retries Allow with jittered exponential backoff until
// the wait timeout passes
func waitForCapacity(ctx context.Context, service Service, key LimitKey, options RateLimitOptions, rnd *lockedRand) error {
	deadline := time.Now().Add(waitTimeout(options, service.GetLimit(key.Type)))
	backoff := 100 * time.Millisecond
	maxBackoff := time.Second

	for {
		jitter := time.Duration(float64(backoff) * (0.5 + rnd.Float64()))
		if time.Now().Add(jitter).After(deadline) {
			return fmt.Errorf("timeout waiting for rate limit capacity")
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("context canceled while waiting for capacity: %w", ctx.Err())
		case <-time.After(jitter):
		}

		status, err := service.Allow(ctx, key)
		if err == nil && status.Allowed {
			return nil
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// realIP extracts the client IP address. chi's RealIP middleware has
// usually rewritten RemoteAddr already.
func realIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if parts := strings.Split(xff, ","); len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}

type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newLockedRand() *lockedRand {
	return &lockedRand{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Float64()
}

// CommonRateLimiters provides pre-configured rate limit middleware for the
// panel API
type CommonRateLimiters struct {
	service Service
	logger  *slog.Logger
}

// NewCommonRateLimiters creates a provider of standard rate limiters
func NewCommonRateLimiters(service Service, logger *slog.Logger) *CommonRateLimiters {
	return &CommonRateLimiters{
		service: service,
		logger:  logger,
	}
}

// APIRequestLimiter limits general API endpoints
func (c *CommonRateLimiters) APIRequestLimiter() func(http.Handler) http.Handler {
	return Middleware(c.service, c.logger, RateLimitOptions{
		LimitType:   LimitAPIRequest,
		WaitOnLimit: true,
		SkipLimitCheck: func(r *http.Request) bool {
			return strings.HasPrefix(r.URL.Path, "/healthz") ||
				strings.HasPrefix(r.URL.Path, "/readyz")
		},
	})
}

// MediaReportLimiter limits media load reports, keyed per panel
func (c *CommonRateLimiters) MediaReportLimiter() func(http.Handler) http.Handler {
	return Middleware(c.service, c.logger, RateLimitOptions{
		LimitType: LimitMediaReport,
		GetToken:  panelToken,
	})
}

// WebSocketLimiter limits new WebSocket connections
func (c *CommonRateLimiters) WebSocketLimiter() func(http.Handler) http.Handler {
	return Middleware(c.service, c.logger, RateLimitOptions{
		LimitType: LimitWSConnection,
		GetToken:  panelToken,
	})
}

func panelToken(r *http.Request) string {
	return chi.URLParam(r, "id")
}
