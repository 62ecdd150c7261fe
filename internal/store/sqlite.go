// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"
	// Register the pure-Go sqlite driver under the name "sqlite".
	_ "modernc.org/sqlite"
)

// SQLite is a Store backed by a local SQLite database file.
type SQLite struct {
	db *sql.DB

	// The modernc driver does not support concurrent writers.
	writeMu sync.Mutex
}

// NewSQLite opens (or creates) a SQLite-backed store at path, applying
// pending schema migrations first.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, oops.Code("VALIDATION_STORE_PATH").Errorf("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, oops.Code("STORE_OPEN_FAILED").With("path", path).Wrap(err)
	}

	migrator, err := NewMigrator(path)
	if err != nil {
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close() //nolint:errcheck // migration error takes precedence
		return nil, err
	}
	if err := migrator.Close(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.Code("STORE_OPEN_FAILED").With("path", path).Wrap(err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close() //nolint:errcheck // ping error takes precedence
		return nil, oops.Code("STORE_OPEN_FAILED").With("path", path).Wrap(err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close() //nolint:errcheck // pragma error takes precedence
		return nil, oops.Code("STORE_OPEN_FAILED").With("path", path).Wrap(err)
	}

	s := &SQLite{db: db}
	if err := ensureFormat(context.Background(), s); err != nil {
		_ = db.Close() //nolint:errcheck // format error takes precedence
		return nil, err
	}
	return s, nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM credentials WHERE key = ?", key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", oops.Code("STORE_READ_FAILED").With("key", key).Wrap(err)
	}
	return value, nil
}

// Set implements Store.
func (s *SQLite) Set(ctx context.Context, key, value string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return oops.Code("STORE_WRITE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// Remove implements Store.
func (s *SQLite) Remove(ctx context.Context, key string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM credentials WHERE key = ?", key,
	); err != nil {
		return oops.Code("STORE_WRITE_FAILED").With("key", key).Wrap(err)
	}
	return nil
}

// Close implements Store.
func (s *SQLite) Close() error {
	if err := s.db.Close(); err != nil {
		return oops.Code("STORE_CLOSE_FAILED").Wrap(err)
	}
	return nil
}
