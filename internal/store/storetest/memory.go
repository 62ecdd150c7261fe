// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

// Package storetest provides an in-memory Store for tests.
package storetest

import (
	"context"
	"sync"

	"github.com/juanarrow/credentials/internal/store"
)

// Memory implements store.Store in memory, with optional fault injection.
type Memory struct {
	mu   sync.Mutex
	data map[string]string

	// FailGet, FailSet and FailRemove, when non-nil, are returned from the
	// corresponding operation instead of touching the map.
	FailGet    error
	FailSet    error
	FailRemove error
}

var _ store.Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Seed pre-populates a key, bypassing fault injection.
func (m *Memory) Seed(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Snapshot returns a copy of the stored data for assertions.
func (m *Memory) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

// Get implements store.Store.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	if m.FailGet != nil {
		return "", m.FailGet
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return value, nil
}

// Set implements store.Store.
func (m *Memory) Set(_ context.Context, key, value string) error {
	if m.FailSet != nil {
		return m.FailSet
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Remove implements store.Store.
func (m *Memory) Remove(_ context.Context, key string) error {
	if m.FailRemove != nil {
		return m.FailRemove
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Close implements store.Store.
func (m *Memory) Close() error { return nil }
