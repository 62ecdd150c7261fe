// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

// Package apperror provides the centralized error classifier: a closed
// taxonomy of error kinds, mapping rules from transport and coded failures,
// and a single transient notification slot observed by UI collaborators.
//
// # Classification order
//
// Handle applies three rules in order:
//  1. Transport failures (anything exposing HTTPStatus) map through a fixed
//     status table and get a synthesized HTTP_<status> code.
//  2. Coded errors (samber/oops) classify by code prefix; the message comes
//     from the registry, falling back to the error's own text.
//  3. Everything else is Unknown.
//
// At most one AppError is active at a time. A new error always replaces the
// active one; replacement cancels the superseded error's expiry timer.
package apperror

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind is the closed error taxonomy.
type Kind string

// Error kinds.
const (
	KindAuth       Kind = "auth"
	KindNetwork    Kind = "network"
	KindValidation Kind = "validation"
	KindServer     Kind = "server"
	KindUnknown    Kind = "unknown"
)

// AppError is one classified, user-facing failure.
type AppError struct {
	// ID distinguishes this error instance from any later replacement, so
	// a stale expiry timer can never clear a newer error.
	ID ulid.ULID

	// Kind is the taxonomy bucket.
	Kind Kind

	// Message is human-readable and safe to render.
	Message string

	// Code is the application error code ("AUTH_...") or a synthesized
	// transport code ("HTTP_401"). Empty for ad-hoc errors.
	Code string

	// Cause is the originating error, kept for logging only.
	Cause error

	// Timestamp records when the error was classified.
	Timestamp time.Time
}

// Seeded registry codes.
const (
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeSessionExpired     = "AUTH_SESSION_EXPIRED"
	CodeNetworkOffline     = "NETWORK_OFFLINE"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeNotFound           = "NOT_FOUND"
	CodeServerFault        = "SERVER_FAULT"
	CodeValidationFailed   = "VALIDATION_FAILED"
)

// defaultRegistry seeds the code→message table. Callers extend it at
// runtime through RegisterMessage.
func defaultRegistry() map[string]string {
	return map[string]string{
		CodeInvalidCredentials: "incorrect credentials",
		CodeSessionExpired:     "session expired",
		CodeNetworkOffline:     "connection error",
		CodePermissionDenied:   "no permission",
		CodeNotFound:           "resource not found",
		CodeServerFault:        "server error",
		CodeValidationFailed:   "invalid data",
	}
}
