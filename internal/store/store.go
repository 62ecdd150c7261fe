// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

// Package store provides the persistent credential store: a small durable
// key/value surface the session manager owns exclusively. Backends exist
// for a JSON file, SQLite, and Redis; tests use the in-memory storetest
// implementation.
package store

import (
	"context"
	"errors"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
)

// Keys owned by the session manager.
const (
	// KeyAuthentication holds the local strategy's serialized active
	// session record.
	KeyAuthentication = "AUTHENTICATION"

	// KeyUsers holds the local strategy's serialized registered-user table.
	KeyUsers = "USERS"

	// KeyToken holds the remote strategy's bearer token.
	KeyToken = "token"

	// KeySchema holds the persisted format version.
	KeySchema = "SCHEMA"
)

// FormatVersion is the version written to KeySchema by every persistent
// backend. Bump the major version on incompatible layout changes.
const FormatVersion = "1.0.0"

// formatConstraint accepts any 1.x persisted format.
var formatConstraint = mustConstraint("^1")

// ErrNotFound is returned when a requested key does not exist.
var ErrNotFound = errors.New("not found")

// Store is the durable key/value surface consumed by the session manager.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set writes the value for key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ensureFormat stamps a fresh store with FormatVersion and rejects a store
// written by an incompatible future layout.
func ensureFormat(ctx context.Context, s Store) error {
	got, err := s.Get(ctx, KeySchema)
	if errors.Is(err, ErrNotFound) {
		return s.Set(ctx, KeySchema, FormatVersion)
	}
	if err != nil {
		return err
	}

	version, err := semver.NewVersion(got)
	if err != nil {
		return oops.Code("VALIDATION_STORE_FORMAT").
			With("schema", got).
			Wrap(err)
	}
	if !formatConstraint.Check(version) {
		return oops.Code("VALIDATION_STORE_FORMAT").
			With("schema", got).
			With("supported", "^1").
			Errorf("persisted store format %s is not supported", got)
	}
	return nil
}

func mustConstraint(expr string) *semver.Constraints {
	c, err := semver.NewConstraint(expr)
	if err != nil {
		panic(err)
	}
	return c
}
