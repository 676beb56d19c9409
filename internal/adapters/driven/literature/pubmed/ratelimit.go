package pubmed

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// NCBI request allowances per second.
const (
	RequestsPerSecond        = 3.0
	RequestsPerSecondWithKey = 10.0
)

// defaultBackoff applies when a 429 carries no Retry-After header.
const defaultBackoff = 10 * time.Second

// RateLimiter spaces E-utilities requests with a token bucket and honours
// server-requested backoff after a 429.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter allows rps requests per second with a burst of one, so
// requests are evenly spaced rather than bunched.
func NewRateLimiter(rps float64) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError pauses all requests for retryAfter.
// A non-positive value uses the default backoff.
func (r *RateLimiter) RecordRateLimitError(retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if retryAfter <= 0 {
		retryAfter = defaultBackoff
	}
	r.retryAt = time.Now().Add(retryAfter)
}
