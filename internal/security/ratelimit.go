// internal/security/ratelimit.go
package security

import (
	"sync"
	"time"
)

// RateLimiter enforces a per-origin sliding window. An origin exceeding the
// limit is blacklisted for twice the window before it may try again.
type RateLimiter struct {
	window time.Duration
	max    int

	mu        sync.Mutex
	requests  map[string][]time.Time
	blacklist map[string]time.Time // origin -> blacklist expiry
	now       func() time.Time
}

// NewRateLimiter builds a limiter allowing max requests per origin per
// window.
func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 100
	}
	return &RateLimiter{
		window:    window,
		max:       max,
		requests:  make(map[string][]time.Time),
		blacklist: make(map[string]time.Time),
		now:       time.Now,
	}
}

// IsBlocked records one request from origin and reports whether it must be
// rejected, either because the origin is blacklisted or because it just
// exceeded the window limit.
func (rl *RateLimiter) IsBlocked(origin string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if until, listed := rl.blacklist[origin]; listed {
		if now.Before(until) {
			return true
		}
		delete(rl.blacklist, origin)
	}

	recent := rl.requests[origin][:0]
	for _, t := range rl.requests[origin] {
		if now.Sub(t) < rl.window {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.max {
		rl.requests[origin] = recent
		rl.blacklist[origin] = now.Add(2 * rl.window)
		return true
	}

	rl.requests[origin] = append(recent, now)
	return false
}
