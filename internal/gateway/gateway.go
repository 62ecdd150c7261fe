// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

// Package gateway is the network boundary for the remote authentication
// strategy. It defines the four logical operations the session manager
// depends on and a typed transport error carrying the HTTP status the
// error classifier maps.
package gateway

import (
	"context"
	"fmt"
)

// Account is the identity provider's user record. The session manager
// projects it down to the domain User.
type Account struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	Confirmed bool   `json:"confirmed"`
	Blocked   bool   `json:"blocked"`
}

// Session is the result of a successful authentication or account
// creation: a bearer token plus the provider's account record.
type Session struct {
	Token   string  `json:"jwt"`
	Account Account `json:"user"`
}

// ProfileFields are the optional profile attributes the provider does not
// accept at account creation and that are applied in a second phase.
type ProfileFields struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

// Gateway is the remote identity provider contract.
type Gateway interface {
	// Authenticate exchanges credentials for a session.
	// Fails with status 400 on bad credentials.
	Authenticate(ctx context.Context, identifier, password string) (*Session, error)

	// CreateAccount registers a new account with the minimal field set.
	// Fails with status 400 on a duplicate email or username.
	CreateAccount(ctx context.Context, username, email, password string) (*Session, error)

	// FetchCurrentUser resolves the account a token belongs to.
	// Fails when the token is invalid or expired.
	FetchCurrentUser(ctx context.Context, token string) (*Account, error)

	// UpdateProfile applies profile fields to the token's account.
	// Best-effort: its failure must not undo a prior CreateAccount.
	UpdateProfile(ctx context.Context, token string, fields ProfileFields) (*Account, error)
}

// Error is a transport-level failure. Status 0 means the request never
// reached the provider (connection failure).
type Error struct {
	Status  int
	Message string
	cause   error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("gateway: connection failed: %s", e.Message)
	}
	return fmt.Sprintf("gateway: status %d: %s", e.Status, e.Message)
}

// HTTPStatus exposes the status code to the error classifier.
func (e *Error) HTTPStatus() int { return e.Status }

// Unwrap returns the underlying transport error, if any.
func (e *Error) Unwrap() error { return e.cause }
