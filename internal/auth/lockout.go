// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package auth

import (
	"strings"
	"sync"
	"time"
)

// LockoutConfig holds configuration for the login lockout.
type LockoutConfig struct {
	// MaxAttempts is the number of failed attempts before lockout.
	MaxAttempts int

	// Duration is the first lockout period. Each further lockout of the
	// same subject doubles it up to MaxDuration.
	Duration    time.Duration
	MaxDuration time.Duration
}

// DefaultLockoutConfig returns 5 attempts, 15 minutes, capped at 24 hours.
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		MaxAttempts: 5,
		Duration:    15 * time.Minute,
		MaxDuration: 24 * time.Hour,
	}
}

type lockoutEntry struct {
	failures     int
	lockouts     int
	lockedUntil  time.Time
	lastActivity time.Time
}

// Lockout tracks failed logins per email and refuses further attempts for
// a while after too many failures.
type Lockout struct {
	mu      sync.Mutex
	cfg     LockoutConfig
	entries map[string]*lockoutEntry
	now     func() time.Time
}

// NewLockout creates an in-memory lockout tracker.
func NewLockout(cfg LockoutConfig) *Lockout {
	def := DefaultLockoutConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Duration <= 0 {
		cfg.Duration = def.Duration
	}
	if cfg.MaxDuration < cfg.Duration {
		cfg.MaxDuration = def.MaxDuration
	}
	return &Lockout{
		cfg:     cfg,
		entries: make(map[string]*lockoutEntry),
		now:     time.Now,
	}
}

func lockoutKey(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}

// Locked reports whether subject is locked out and until when.
func (l *Lockout) Locked(subject string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[lockoutKey(subject)]
	if !ok || !l.now().Before(e.lockedUntil) {
		return false, time.Time{}
	}
	return true, e.lockedUntil
}

// Fail records a failed attempt and reports whether it locked subject.
func (l *Lockout) Fail(subject string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	key := lockoutKey(subject)
	e, ok := l.entries[key]
	if !ok {
		e = &lockoutEntry{}
		l.entries[key] = e
	}
	e.failures++
	e.lastActivity = now
	if e.failures < l.cfg.MaxAttempts {
		return false
	}

	d := l.cfg.Duration << e.lockouts
	if d <= 0 || d > l.cfg.MaxDuration {
		d = l.cfg.MaxDuration
	}
	e.lockouts++
	e.failures = 0
	e.lockedUntil = now.Add(d)
	return true
}

// Reset clears subject after a successful login.
func (l *Lockout) Reset(subject string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, lockoutKey(subject))
}

// sweepLocked drops entries idle for longer than MaxDuration. Callers
// hold l.mu.
func (l *Lockout) sweepLocked(now time.Time) {
	for k, e := range l.entries {
		if now.Sub(e.lastActivity) > l.cfg.MaxDuration && !now.Before(e.lockedUntil) {
			delete(l.entries, k)
		}
	}
}
