// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

package session

import (
	"sync"
	"time"
)

// Lockout configuration for the local strategy.
const (
	// LockoutThreshold is the number of consecutive failures that
	// triggers a lockout.
	LockoutThreshold = 5

	// LockoutDuration is how long an account stays locked after the
	// threshold is reached.
	LockoutDuration = 15 * time.Minute
)

// lockoutTracker counts consecutive failed logins per account and locks
// the account once the threshold is reached. State is process-local and
// resets on restart, which is acceptable for a client-resident store.
type lockoutTracker struct {
	mu      sync.Mutex
	entries map[string]*lockoutEntry
	now     func() time.Time
}

type lockoutEntry struct {
	failures    int
	lockedUntil time.Time
}

func newLockoutTracker() *lockoutTracker {
	return &lockoutTracker{
		entries: make(map[string]*lockoutEntry),
		now:     time.Now,
	}
}

// locked reports whether the account is currently locked and, if so,
// how long remains.
func (t *lockoutTracker) locked(email string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[email]
	if !ok {
		return false, 0
	}
	now := t.now()
	if entry.lockedUntil.After(now) {
		return true, entry.lockedUntil.Sub(now)
	}
	return false, 0
}

// recordFailure registers a failed attempt, starting a lockout at the
// threshold.
func (t *lockoutTracker) recordFailure(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[email]
	if !ok {
		entry = &lockoutEntry{}
		t.entries[email] = entry
	}
	entry.failures++
	if entry.failures >= LockoutThreshold {
		entry.lockedUntil = t.now().Add(LockoutDuration)
		entry.failures = 0
	}
}

// reset clears failure state after a successful login.
func (t *lockoutTracker) reset(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, email)
}
