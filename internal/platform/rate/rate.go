// Package rate provides a token bucket rate limiter for controlling request rates.
// It is a thin wrapper over golang.org/x/time/rate with a fixed API surface.
package rate

import (
	"context"
	"time"

	xrate "golang.org/x/time/rate"
)

// Limiter implements a token bucket rate limiter that controls the rate of operations.
// It supports both blocking (Wait) and non-blocking (Allow) modes.
type Limiter struct {
	lim *xrate.Limiter
}

// New creates a new rate limiter with the specified rate (operations per second)
// and burst size (bucket capacity). The bucket starts full.
//
// Example:
//   limiter := rate.New(10, 5) // 10 op/s, burst of 5
func New(ratePerSec float64, burst int) *Limiter {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		lim: xrate.NewLimiter(xrate.Limit(ratePerSec), burst),
	}
}

// Wait blocks until the limiter allows an operation to proceed or the context is canceled.
// It returns an error if the context is canceled before the operation can proceed.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.lim.Wait(ctx)
}

// Allow reports whether an operation can proceed immediately.
// It consumes one token from the bucket if available.
func (l *Limiter) Allow() bool {
	return l.lim.Allow()
}

// AllowN reports whether n operations can proceed immediately.
// It consumes n tokens from the bucket if available.
func (l *Limiter) AllowN(n int) bool {
	return l.lim.AllowN(time.Now(), n)
}

// SetRate changes the rate limit dynamically.
// This is useful for adjusting rate limits based on runtime conditions.
func (l *Limiter) SetRate(ratePerSec float64) {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	l.lim.SetLimit(xrate.Limit(ratePerSec))
}

// SetBurst changes the burst size dynamically.
func (l *Limiter) SetBurst(burst int) {
	if burst <= 0 {
		burst = 1
	}
	l.lim.SetBurst(burst)
}

// Tokens returns the current number of available tokens.
// This is useful for monitoring and debugging.
func (l *Limiter) Tokens() float64 {
	return l.lim.Tokens()
}

// Rate returns the current rate limit (tokens per second).
func (l *Limiter) Rate() float64 {
	return float64(l.lim.Limit())
}

// Burst returns the current burst size.
func (l *Limiter) Burst() int {
	return l.lim.Burst()
}
