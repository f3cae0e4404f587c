// Package ratelimit enforces a minimum delay between consecutive executions
// per platform. It is a gate, not a token bucket: a platform either passed
// long enough ago or it did not, and a denied caller is told how long to
// wait.
package ratelimit

import (
	"sync"
	"time"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/util"
)

// Limiter tracks the last successful gate pass per platform. Entries are
// created lazily with the default delay on first reference. One credential
// per platform is assumed, so the key is the platform name alone.
type Limiter struct {
	mu           sync.Mutex
	defaultDelay time.Duration
	limits       map[string]time.Duration
	lastPass     map[string]time.Time

	now func() time.Time
}

// New constructs a limiter whose unconfigured platforms use defaultDelay.
// A non-positive default disables gating for unconfigured platforms.
func New(defaultDelay time.Duration) *Limiter {
	return &Limiter{
		defaultDelay: defaultDelay,
		limits:       map[string]time.Duration{},
		lastPass:     map[string]time.Time{},
		now:          time.Now,
	}
}

// SetLimit overrides the minimum delay for one platform. A non-positive
// delay disables gating for it.
func (l *Limiter) SetLimit(platform string, d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limits[util.NormalizeKey(platform)] = d
}

// Limit reports the effective minimum delay for a platform.
func (l *Limiter) Limit(platform string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limitLocked(util.NormalizeKey(platform))
}

func (l *Limiter) limitLocked(key string) time.Duration {
	if d, ok := l.limits[key]; ok {
		return d
	}
	return l.defaultDelay
}

// Acquire passes iff the minimum delay has elapsed since the platform's
// last pass. The check and the recording of the pass time are one atomic
// step; concurrent callers for the same platform cannot both pass inside
// one delay window. On denial retryAfter reports the remaining wait.
func (l *Limiter) Acquire(platform string) (ok bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := util.NormalizeKey(platform)
	wait := l.remainingLocked(key)
	if wait > 0 {
		return false, wait
	}
	l.lastPass[key] = l.now()
	return true, 0
}

// Peek runs the same check as Acquire without recording a pass.
func (l *Limiter) Peek(platform string) (ok bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	wait := l.remainingLocked(util.NormalizeKey(platform))
	if wait > 0 {
		return false, wait
	}
	return true, 0
}

// Throttled returns the platforms currently inside their delay window and
// the shortest remaining wait among them. The orchestrator excludes those
// platforms from its next claim and sleeps at most soonest before looking
// again.
func (l *Limiter) Throttled() (blocked []string, soonest time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key := range l.lastPass {
		wait := l.remainingLocked(key)
		if wait <= 0 {
			continue
		}
		blocked = append(blocked, key)
		if soonest == 0 || wait < soonest {
			soonest = wait
		}
	}
	return blocked, soonest
}

func (l *Limiter) remainingLocked(key string) time.Duration {
	limit := l.limitLocked(key)
	if limit <= 0 {
		return 0
	}
	last, ok := l.lastPass[key]
	if !ok {
		return 0
	}
	elapsed := l.now().Sub(last)
	return limit - elapsed
}
