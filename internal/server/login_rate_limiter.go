package server

import (
	"sync"
	"time"
)

// loginRateLimiter tracks failed login attempts per username|host key and
// blocks a key once it accumulates too many failures inside the window.
// State lives only in memory, so a restart forgives every block.
type loginRateLimiter struct {
	mu          sync.Mutex
	attempts    map[string]*loginAttempts
	maxFailures int
	window      time.Duration
	blockFor    time.Duration
	staleAfter  time.Duration
	nextSweep   time.Time
}

type loginAttempts struct {
	failures     int
	windowStart  time.Time
	blockedUntil time.Time
	lastSeen     time.Time
}

func newLoginRateLimiter(maxFailures int, window, blockFor time.Duration) *loginRateLimiter {
	if maxFailures <= 0 || window <= 0 || blockFor <= 0 {
		return nil
	}
	stale := 2 * window
	if 2*blockFor > stale {
		stale = 2 * blockFor
	}
	if stale < 10*time.Minute {
		stale = 10 * time.Minute
	}
	return &loginRateLimiter{
		attempts:    make(map[string]*loginAttempts),
		maxFailures: maxFailures,
		window:      window,
		blockFor:    blockFor,
		staleAfter:  stale,
	}
}

// Allow reports whether a login attempt for key may proceed. An expired
// block or failure window is cleared on the way through.
func (l *loginRateLimiter) Allow(key string, now time.Time) bool {
	if l == nil || key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(now)

	entry, ok := l.attempts[key]
	if !ok {
		return true
	}
	entry.lastSeen = now
	if now.Before(entry.blockedUntil) {
		return false
	}
	entry.blockedUntil = time.Time{}
	if !entry.windowStart.IsZero() && now.Sub(entry.windowStart) > l.window {
		entry.failures = 0
		entry.windowStart = time.Time{}
	}
	return true
}

// RegisterFailure records one failed attempt and starts a block once the
// failure count inside the window reaches the configured maximum.
func (l *loginRateLimiter) RegisterFailure(key string, now time.Time) {
	if l == nil || key == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(now)

	entry, ok := l.attempts[key]
	if !ok {
		entry = &loginAttempts{}
		l.attempts[key] = entry
	}
	if entry.windowStart.IsZero() || now.Sub(entry.windowStart) > l.window {
		entry.failures = 0
		entry.windowStart = now
	}
	entry.failures++
	entry.lastSeen = now
	if entry.failures >= l.maxFailures {
		entry.blockedUntil = now.Add(l.blockFor)
		entry.failures = 0
		entry.windowStart = time.Time{}
	}
}

// Reset drops all state for key, typically after a successful login.
func (l *loginRateLimiter) Reset(key string) {
	if l == nil || key == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
}

func (l *loginRateLimiter) sweepLocked(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for key, entry := range l.attempts {
		if entry.lastSeen.IsZero() || now.Sub(entry.lastSeen) > l.staleAfter {
			delete(l.attempts, key)
		}
	}
	l.nextSweep = now.Add(l.staleAfter / 2)
}
