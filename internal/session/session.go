// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

// Package session manages the authenticated user lifecycle: recovery of a
// persisted session, login, registration, logout, and a reactive view of
// the current user. Two strategies implement the same Manager contract:
// Local keeps a credential table in the key-value store, Remote delegates
// to a token-issuing identity provider.
package session

import (
	"context"
	"net/http"
	"strings"

	"github.com/samber/oops"

	"github.com/juanarrow/credentials/internal/watch"
)

// User is the application's view of the signed-in identity.
type User struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

// Credentials identify an existing account at login.
type Credentials struct {
	Email    string
	Password string
}

// RegistrationInfo carries everything needed to create an account.
type RegistrationInfo struct {
	Name     string
	Surname  string
	Email    string
	Password string
}

// Outcome reports how an operation concluded. Status follows HTTP
// semantics regardless of strategy: 200 login, 201 registration,
// 401 bad credentials, 403 rejected registration.
type Outcome struct {
	Status int
	User   *User
}

// Manager is the session lifecycle contract shared by both strategies.
type Manager interface {
	// Recover restores a previously persisted session, if any. A missing
	// session is not an error; a corrupt or rejected one is.
	Recover(ctx context.Context) error

	// Login authenticates the credentials and makes the account the
	// current user.
	Login(ctx context.Context, creds Credentials) (Outcome, error)

	// Register creates an account and signs it in.
	Register(ctx context.Context, info RegistrationInfo) (Outcome, error)

	// Logout ends the session and clears persisted state. Idempotent.
	Logout(ctx context.Context) error

	// SetUser replaces the current user's profile fields and persists them.
	SetUser(ctx context.Context, user *User) error

	// User returns the current user, or nil when signed out.
	User() *User

	// WatchUser exposes the current user as a reactive view.
	WatchUser() *watch.View[*User]
}

// validateCredentials rejects obviously unusable input before any
// store or network round trip.
func validateCredentials(creds Credentials) error {
	if strings.TrimSpace(creds.Email) == "" {
		return oops.Code("VALIDATION_EMAIL_REQUIRED").Errorf("email is required")
	}
	if creds.Password == "" {
		return oops.Code("VALIDATION_PASSWORD_REQUIRED").Errorf("password is required")
	}
	return nil
}

func validateRegistration(info RegistrationInfo) error {
	return validateCredentials(Credentials{Email: info.Email, Password: info.Password})
}

// outcomeStatus maps an error-free operation to its conventional status.
const (
	statusLoggedIn   = http.StatusOK
	statusRegistered = http.StatusCreated
	statusBadLogin   = http.StatusUnauthorized
	statusRejected   = http.StatusForbidden
)
