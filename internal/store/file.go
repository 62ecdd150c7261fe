// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"
)

// File is a Store backed by a single JSON file. Writes go through a
// temp-file rename so a crash mid-write never leaves a torn file.
type File struct {
	path string

	mu   sync.Mutex
	data map[string]string
}

// NewFile opens (or creates) a file-backed store at path.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, oops.Code("VALIDATION_STORE_PATH").Errorf("store path is required")
	}

	f := &File{path: path, data: make(map[string]string)}
	if err := f.load(); err != nil {
		return nil, err
	}
	if err := ensureFormat(context.Background(), f); err != nil {
		return nil, err
	}
	return f, nil
}

// Get implements Store.
func (f *File) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	value, ok := f.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set implements Store.
func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.data[key] = value
	return f.persistLocked()
}

// Remove implements Store.
func (f *File) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.data[key]; !ok {
		return nil
	}
	delete(f.data, key)
	return f.persistLocked()
}

// Close implements Store. The file store holds no open handles.
func (f *File) Close() error { return nil }

func (f *File) load() error {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return oops.Code("STORE_READ_FAILED").
			With("path", f.path).
			Wrap(err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &f.data); err != nil {
		return oops.Code("VALIDATION_STORE_FORMAT").
			With("path", f.path).
			Wrap(err)
	}
	return nil
}

func (f *File) persistLocked() error {
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return oops.Code("STORE_WRITE_FAILED").Wrap(err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return oops.Code("STORE_WRITE_FAILED").
			With("path", f.path).
			Wrap(err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return oops.Code("STORE_WRITE_FAILED").
			With("path", tmp).
			Wrap(err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return oops.Code("STORE_WRITE_FAILED").
			With("path", f.path).
			Wrap(err)
	}
	return nil
}
