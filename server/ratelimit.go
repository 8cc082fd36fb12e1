package server

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"tickforge/core"
)

// SessionRateLimitConfig configures the per-session action submission
// limiter.
type SessionRateLimitConfig struct {
	ActionsPerSecond float64
	Burst            int
	CleanupInterval  time.Duration
}

// DefaultSessionRateLimitConfig allows a generous steady rate with burst
// headroom for an agent catching up after a long think.
var DefaultSessionRateLimitConfig = SessionRateLimitConfig{
	ActionsPerSecond: 20,
	Burst:            40,
	CleanupInterval:  5 * time.Minute,
}

type sessionLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SessionRateLimiter throttles submit_action per session token, the
// same sync.Map-plus-periodic-cleanup shape the teacher's IP limiter
// uses, keyed by session instead of client IP.
type SessionRateLimiter struct {
	limiters sync.Map // map[core.SessionToken]*sessionLimiterEntry
	config   SessionRateLimitConfig
	stopChan chan struct{}
	stopOnce sync.Once

	rejectedCount uint64
	allowedCount  uint64
}

// NewSessionRateLimiter starts a limiter with a background cleanup
// goroutine; call Stop to release it.
func NewSessionRateLimiter(cfg SessionRateLimitConfig) *SessionRateLimiter {
	rl := &SessionRateLimiter{config: cfg, stopChan: make(chan struct{})}
	go rl.cleanupLoop()
	return rl
}

// Stop terminates the cleanup goroutine.
func (rl *SessionRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

func (rl *SessionRateLimiter) getLimiter(session core.SessionToken) *rate.Limiter {
	now := time.Now()
	if entry, ok := rl.limiters.Load(session); ok {
		e := entry.(*sessionLimiterEntry)
		e.lastSeen = now
		return e.limiter
	}
	entry := &sessionLimiterEntry{
		limiter:  rate.NewLimiter(rate.Limit(rl.config.ActionsPerSecond), rl.config.Burst),
		lastSeen: now,
	}
	actual, _ := rl.limiters.LoadOrStore(session, entry)
	return actual.(*sessionLimiterEntry).limiter
}

func (rl *SessionRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *SessionRateLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.config.CleanupInterval * 2)
	rl.limiters.Range(func(key, value interface{}) bool {
		entry := value.(*sessionLimiterEntry)
		if entry.lastSeen.Before(cutoff) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// Allow checks whether an action submission from session should proceed.
func (rl *SessionRateLimiter) Allow(session core.SessionToken) bool {
	if rl.getLimiter(session).Allow() {
		atomic.AddUint64(&rl.allowedCount, 1)
		return true
	}
	atomic.AddUint64(&rl.rejectedCount, 1)
	return false
}

// Forget drops a session's limiter state, called when a session leaves.
func (rl *SessionRateLimiter) Forget(session core.SessionToken) {
	rl.limiters.Delete(session)
}

// Stats returns allowed/rejected counters for diagnostics.
func (rl *SessionRateLimiter) Stats() (allowed, rejected uint64) {
	return atomic.LoadUint64(&rl.allowedCount), atomic.LoadUint64(&rl.rejectedCount)
}
