// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

package session

import (
	"sync"

	"github.com/juanarrow/credentials/internal/watch"
)

// state holds the current user behind a reactive cell and guards
// concurrent completions with a monotonic sequence: every mutating
// operation takes a ticket via begin, and commit applies its result only
// if no newer operation has completed since. Writes are last-write-wins;
// a stale completion is dropped rather than clobbering fresher state.
type state struct {
	current *watch.Value[*User]

	mu      sync.Mutex
	next    uint64
	applied uint64
}

func newState() *state {
	return &state{current: watch.NewValue[*User](nil)}
}

// begin reserves a sequence ticket for a mutating operation.
func (s *state) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

// commit publishes user as the operation's result. Returns false when a
// newer operation already completed, in which case the value is dropped.
func (s *state) commit(ticket uint64, user *User) bool {
	s.mu.Lock()
	if ticket < s.applied {
		s.mu.Unlock()
		return false
	}
	s.applied = ticket
	s.mu.Unlock()

	s.current.Set(user)
	return true
}

// user returns the currently published user.
func (s *state) user() *User {
	return s.current.Get()
}

// watch exposes the read-only reactive view.
func (s *state) watch() *watch.View[*User] {
	return s.current.View()
}
