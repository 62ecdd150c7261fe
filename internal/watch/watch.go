// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

// Package watch provides a reactive value cell with change notification.
package watch

import (
	"log/slog"
	"sync"
)

// subscriberBuffer is the channel capacity handed to each watcher.
const subscriberBuffer = 16

// Value is a mutable cell owned by exactly one component. The owner
// mutates it through Set; every other collaborator reads it through the
// read-only View projection.
type Value[T any] struct {
	mu      sync.RWMutex
	current T
	subs    []chan T
}

// NewValue creates a cell holding the given initial value.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{current: initial}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set replaces the current value wholesale and notifies subscribers.
// Slow subscribers miss updates rather than blocking the owner.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.current = next
	for _, ch := range v.subs {
		select {
		case ch <- next:
		default:
			slog.Warn("update dropped: subscriber buffer full")
		}
	}
}

// View returns the read-only projection of this cell.
func (v *Value[T]) View() *View[T] {
	return &View[T]{value: v}
}

// View is the read-only side of a Value. It cannot mutate the cell.
type View[T any] struct {
	value *Value[T]
}

// Get returns the current value.
func (w *View[T]) Get() T {
	return w.value.Get()
}

// Watch subscribes to changes. The returned channel receives every value
// set after the call (subject to buffering). The cancel function
// unsubscribes and closes the channel; calling it twice is safe.
func (w *View[T]) Watch() (<-chan T, func()) {
	v := w.value

	v.mu.Lock()
	ch := make(chan T, subscriberBuffer)
	v.subs = append(v.subs, ch)
	v.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			for i, sub := range v.subs {
				if sub == ch {
					v.subs = append(v.subs[:i], v.subs[i+1:]...)
					close(ch)
					return
				}
			}
		})
	}
	return ch, cancel
}
