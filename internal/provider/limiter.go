package provider

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	minBackoff = 100 * time.Millisecond
	maxBackoff = 2 * time.Minute
)

// Limiter paces requests to one upstream API. After a 429 it also holds
// every request back for an exponentially growing backoff until a request
// succeeds again.
type Limiter struct {
	limiter *rate.Limiter
	name    string

	mu      sync.Mutex
	backoff time.Duration
	limited bool
}

// NewLimiter creates a new rate limiter
// perMinute specifies the number of requests allowed per minute
func NewLimiter(name string, perMinute int) *Limiter {
	if perMinute < 1 {
		perMinute = 1
	}
	// Allow burst of up to 5 requests or 1/10th of per-minute limit
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	if burst > 5 {
		burst = 5
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
		name:    name,
		backoff: minBackoff,
	}
}

// Wait blocks until a token is available and any backoff has passed, or the
// context is cancelled
func (l *Limiter) Wait(ctx context.Context) error {
	if d := l.penalty(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether an event may happen now
func (l *Limiter) Allow() bool {
	return l.penalty() == 0 && l.limiter.Allow()
}

func (l *Limiter) penalty() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.limited {
		return 0
	}
	return l.backoff
}

// SignalRateLimited should be called when a 429 response is received
// It applies exponential backoff
func (l *Limiter) SignalRateLimited() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.limited {
		l.backoff *= 2
	}
	if l.backoff > maxBackoff {
		l.backoff = maxBackoff
	}
	l.limited = true
}

// ResetBackoff clears the backoff after a successful request
func (l *Limiter) ResetBackoff() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.backoff = minBackoff
	l.limited = false
}

// Backoff returns the delay currently applied before each request
func (l *Limiter) Backoff() time.Duration {
	return l.penalty()
}

// Name returns the limiter name
func (l *Limiter) Name() string {
	return l.name
}
