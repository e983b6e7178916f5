package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window rate limiter keyed by sender identity.
type Limiter struct {
	maxMessages int
	window      time.Duration

	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

func New(maxMessages int, window time.Duration) *Limiter {
	return &Limiter{
		maxMessages: maxMessages,
		window:      window,
		windows:     make(map[string][]time.Time),
		now:         time.Now,
	}
}

// Allow records an attempt and reports whether the sender is still within
// their window budget.
func (l *Limiter) Allow(sender string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[sender]
	kept := w[:0]
	for _, ts := range w {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.maxMessages {
		l.windows[sender] = kept
		return false
	}
	l.windows[sender] = append(kept, now)
	return true
}

// Remaining reports how many messages the sender may still send in the
// current window.
func (l *Limiter) Remaining(sender string) int {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := 0
	for _, ts := range l.windows[sender] {
		if ts.After(cutoff) {
			recent++
		}
	}
	if recent > l.maxMessages {
		return 0
	}
	return l.maxMessages - recent
}

// Reset clears the window for one sender.
func (l *Limiter) Reset(sender string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, sender)
}
