package server

import (
	"sync"
	"time"
)

// rateLimiter is a sliding-window per-user limiter. Clarify and generate
// requests draw from the same budget. A nil limiter allows everything.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time

	now func() time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:  limit,
		window: window,
		hits:   map[string][]time.Time{},
		now:    time.Now,
	}
}

// Allow records a hit for userID and reports whether it fits in the window.
func (l *rateLimiter) Allow(userID string) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	recent := l.hits[userID][:0]
	for _, t := range l.hits[userID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.limit {
		l.hits[userID] = recent
		return false
	}

	l.hits[userID] = append(recent, l.now())
	return true
}
