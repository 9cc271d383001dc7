package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter throttles login attempts per identity to slow brute-force
// credential guessing. Keys are usernames; unknown usernames are throttled
// the same as real ones.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	maxIdle  time.Duration
	clock    func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter allows roughly attemptsPerMinute sustained attempts per
// key with the given burst.
func NewLoginLimiter(attemptsPerMinute float64, burst int) *LoginLimiter {
	if attemptsPerMinute <= 0 {
		attemptsPerMinute = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return &LoginLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(attemptsPerMinute / 60),
		burst:    burst,
		maxIdle:  time.Hour,
		clock:    time.Now,
	}
}

// Allow reports whether another attempt for key is permitted right now.
func (l *LoginLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now

	// Opportunistic pruning keeps the map bounded without a sweeper goroutine.
	if len(l.limiters) > 1024 {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > l.maxIdle {
				delete(l.limiters, k)
			}
		}
	}

	return entry.limiter.Allow()
}
