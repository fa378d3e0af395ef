package server

import (
	"sync"
	"time"
)

const rateLimiterPruneThreshold = 1024

// rateLimiter is a fixed-window counter keyed by caller. The order ingest
// endpoint uses it so a misbehaving terminal cannot flood the pipeline.
type rateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	windows map[string]*rateWindow
}

type rateWindow struct {
	startedAt time.Time
	count     int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		windows: make(map[string]*rateWindow),
	}
}

func (r *rateLimiter) Allow(key string) bool {
	if key == "" {
		return false
	}

	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.windows[key]
	if current == nil || now.Sub(current.startedAt) > r.window {
		if len(r.windows) >= rateLimiterPruneThreshold {
			r.prune(now)
		}
		current = &rateWindow{startedAt: now}
		r.windows[key] = current
	}

	if current.count >= r.limit {
		return false
	}

	current.count++
	return true
}

// prune drops windows that have already rolled over. Caller holds the lock.
func (r *rateLimiter) prune(now time.Time) {
	for key, window := range r.windows {
		if now.Sub(window.startedAt) > r.window {
			delete(r.windows, key)
		}
	}
}
