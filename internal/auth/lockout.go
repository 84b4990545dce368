package auth

import (
	"sync"
	"time"
)

type LockoutConfig struct {
	MaxAttempts int
	Window      time.Duration
	LockFor     time.Duration
}

var DefaultLockout = LockoutConfig{
	MaxAttempts: 5,
	Window:      15 * time.Minute,
	LockFor:     10 * time.Minute,
}

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// LoginLimiter counts failed logins per client key (usually the IP) and
// locks the key out once MaxAttempts failures land inside Window.
type LoginLimiter struct {
	cfg      LockoutConfig
	now      func() time.Time
	mu       sync.Mutex
	attempts map[string]*attemptState
}

func NewLoginLimiter(cfg LockoutConfig) *LoginLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultLockout.MaxAttempts
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultLockout.Window
	}
	if cfg.LockFor <= 0 {
		cfg.LockFor = DefaultLockout.LockFor
	}
	return &LoginLimiter{cfg: cfg, now: time.Now, attempts: make(map[string]*attemptState)}
}

// Locked returns how long key stays locked, or zero.
func (l *LoginLimiter) Locked(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.attempts[key]
	if !ok {
		return 0
	}
	now := l.now()
	if !now.Before(state.lockedUntil) {
		return 0
	}
	return state.lockedUntil.Sub(now)
}

// Fail records a failed attempt and returns the attempts left before lockout.
func (l *LoginLimiter) Fail(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	state, ok := l.attempts[key]
	if !ok || now.Sub(state.firstAttempt) > l.cfg.Window {
		state = &attemptState{firstAttempt: now}
		l.attempts[key] = state
	}

	state.count++
	if state.count >= l.cfg.MaxAttempts {
		state.lockedUntil = now.Add(l.cfg.LockFor)
		state.count = l.cfg.MaxAttempts
	}
	return l.cfg.MaxAttempts - state.count
}

func (l *LoginLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
}
