package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/safeplay/platform/internal/domain"
)

// RateLimiter implements a sliding window rate limiter keyed by client.
// Dashboard traffic keys on client IP, so idle keys are swept periodically
// to keep the window map from growing with every visitor.
type RateLimiter struct {
	mu        sync.Mutex
	windows   map[string][]time.Time
	limit     int
	window    time.Duration
	lastSweep time.Time
}

// NewRateLimiter creates a rate limiter with the given limit per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows:   make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		lastSweep: time.Now(),
	}
}

// Check returns a GuardResult indicating whether the key is within rate limits.
func (rl *RateLimiter) Check(_ context.Context, key string) domain.GuardResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)
	rl.sweepLocked(now, cutoff)

	entries := rl.windows[key]
	valid := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.windows[key] = valid
		return domain.GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("rate limit exceeded: %d/%s", rl.limit, rl.window),
			Guard:   "rate_limiter",
		}
	}

	rl.windows[key] = append(valid, now)
	return domain.GuardResult{Allowed: true}
}

// ActiveKeys reports how many clients currently hold entries in the window.
func (rl *RateLimiter) ActiveKeys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// sweepLocked drops keys whose entries have all aged out of the window. Runs
// at most once per window. Callers must hold mu.
func (rl *RateLimiter) sweepLocked(now, cutoff time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	rl.lastSweep = now

	for key, entries := range rl.windows {
		live := false
		for _, t := range entries {
			if t.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(rl.windows, key)
		}
	}
}
