// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/juanarrow/credentials/internal/apperror"
	"github.com/juanarrow/credentials/internal/store"
	"github.com/juanarrow/credentials/internal/watch"
)

const localStrategy = "local"

// storedUser is one row of the credential table kept under KeyUsers.
// Passwords are stored as argon2id hashes, never in the clear.
type storedUser struct {
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// authRecord is the persisted session kept under KeyAuthentication.
type authRecord struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

// Local implements Manager against the key-value store alone: accounts
// live in a local credential table and no network is involved.
type Local struct {
	store      store.Store
	hasher     PasswordHasher
	classifier *apperror.Classifier
	logger     *slog.Logger

	state    *state
	lockouts *lockoutTracker
}

var _ Manager = (*Local)(nil)

// NewLocal creates the store-backed session manager.
func NewLocal(st store.Store, hasher PasswordHasher, classifier *apperror.Classifier, logger *slog.Logger) (*Local, error) {
	if st == nil {
		return nil, oops.Code("VALIDATION_DEPENDENCY").Errorf("store is required")
	}
	if hasher == nil {
		return nil, oops.Code("VALIDATION_DEPENDENCY").Errorf("hasher is required")
	}
	if classifier == nil {
		return nil, oops.Code("VALIDATION_DEPENDENCY").Errorf("classifier is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{
		store:      st,
		hasher:     hasher,
		classifier: classifier,
		logger:     logger,
		state:      newState(),
		lockouts:   newLockoutTracker(),
	}, nil
}

// Recover implements Manager. A corrupt persisted session is removed
// from the store and surfaced as a validation failure rather than left
// to poison every subsequent start.
func (m *Local) Recover(ctx context.Context) error {
	ticket := m.state.begin()

	raw, err := m.store.Get(ctx, store.KeyAuthentication)
	if errors.Is(err, store.ErrNotFound) {
		m.state.commit(ticket, nil)
		return nil
	}
	if err != nil {
		recordOperation(localStrategy, "recover", ResultError)
		wrapped := oops.Code("AUTH_RECOVER_FAILED").
			With("operation", "read persisted session").
			Wrap(err)
		m.classifier.Handle(wrapped)
		return wrapped
	}

	var record authRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		_ = m.store.Remove(ctx, store.KeyAuthentication) //nolint:errcheck // Best effort cleanup
		m.state.commit(ticket, nil)
		recordOperation(localStrategy, "recover", ResultError)

		corrupt := oops.Code("VALIDATION_STATE_CORRUPT").
			With("key", store.KeyAuthentication).
			Wrap(err)
		m.classifier.Handle(corrupt)
		return corrupt
	}

	m.state.commit(ticket, &User{Name: record.Name, Surname: record.Surname, Email: record.Email})
	recordOperation(localStrategy, "recover", ResultSuccess)
	recordSignedIn(localStrategy, true)
	return nil
}

// Login implements Manager.
func (m *Local) Login(ctx context.Context, creds Credentials) (Outcome, error) {
	if err := validateCredentials(creds); err != nil {
		m.classifier.Handle(err)
		return Outcome{}, err
	}

	if locked, remaining := m.lockouts.locked(creds.Email); locked {
		lockErr := oops.Code("AUTH_ACCOUNT_LOCKED").
			With("retry_in", remaining.Round(time.Second).String()).
			Errorf("account is temporarily locked")
		m.classifier.Handle(lockErr)
		recordOperation(localStrategy, "login", ResultRejected)
		return Outcome{Status: statusRejected}, lockErr
	}

	users, err := m.loadUsers(ctx)
	if err != nil {
		recordOperation(localStrategy, "login", ResultError)
		wrapped := oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "load credential table").
			Wrap(err)
		m.classifier.Handle(wrapped)
		return Outcome{}, wrapped
	}

	account, found := findByEmail(users, creds.Email)
	valid := false
	if found {
		valid, err = m.hasher.Verify(creds.Password, account.PasswordHash)
		if err != nil {
			recordOperation(localStrategy, "login", ResultError)
			wrapped := oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "verify password").
				Wrap(err)
			m.classifier.Handle(wrapped)
			return Outcome{}, wrapped
		}
	}

	// Unknown email and wrong password collapse into the same answer.
	if !found || !valid {
		m.lockouts.recordFailure(creds.Email)
		invalid := oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid username or password")
		m.classifier.Handle(invalid)
		recordOperation(localStrategy, "login", ResultRejected)
		return Outcome{Status: statusBadLogin}, invalid
	}

	m.lockouts.reset(creds.Email)

	ticket := m.state.begin()
	user := &User{Name: account.Name, Surname: account.Surname, Email: account.Email}
	if err := m.persistSession(ctx, user); err != nil {
		recordOperation(localStrategy, "login", ResultError)
		m.classifier.Handle(err)
		return Outcome{}, err
	}

	m.state.commit(ticket, user)
	recordOperation(localStrategy, "login", ResultSuccess)
	recordSignedIn(localStrategy, true)
	return Outcome{Status: statusLoggedIn, User: user}, nil
}

// Register implements Manager. A taken email rejects the registration
// outright: the credential table is left untouched and no session starts.
func (m *Local) Register(ctx context.Context, info RegistrationInfo) (Outcome, error) {
	if err := validateRegistration(info); err != nil {
		m.classifier.Handle(err)
		return Outcome{}, err
	}

	users, err := m.loadUsers(ctx)
	if err != nil {
		recordOperation(localStrategy, "register", ResultError)
		wrapped := oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "load credential table").
			Wrap(err)
		m.classifier.Handle(wrapped)
		return Outcome{}, wrapped
	}

	if _, exists := findByEmail(users, info.Email); exists {
		taken := oops.Code("AUTH_EMAIL_TAKEN").Errorf("email already registered")
		m.classifier.Handle(taken)
		recordOperation(localStrategy, "register", ResultRejected)
		return Outcome{Status: statusRejected}, taken
	}

	hash, err := m.hasher.Hash(info.Password)
	if err != nil {
		recordOperation(localStrategy, "register", ResultError)
		wrapped := oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
		m.classifier.Handle(wrapped)
		return Outcome{}, wrapped
	}

	users = append(users, storedUser{
		Name:         info.Name,
		Surname:      info.Surname,
		Email:        info.Email,
		PasswordHash: hash,
	})
	if err := m.saveUsers(ctx, users); err != nil {
		recordOperation(localStrategy, "register", ResultError)
		m.classifier.Handle(err)
		return Outcome{}, err
	}

	ticket := m.state.begin()
	user := &User{Name: info.Name, Surname: info.Surname, Email: info.Email}
	if err := m.persistSession(ctx, user); err != nil {
		recordOperation(localStrategy, "register", ResultError)
		m.classifier.Handle(err)
		return Outcome{}, err
	}

	m.state.commit(ticket, user)
	recordOperation(localStrategy, "register", ResultSuccess)
	recordSignedIn(localStrategy, true)
	return Outcome{Status: statusRegistered, User: user}, nil
}

// Logout implements Manager.
func (m *Local) Logout(ctx context.Context) error {
	ticket := m.state.begin()

	err := m.store.Remove(ctx, store.KeyAuthentication)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		recordOperation(localStrategy, "logout", ResultError)
		wrapped := oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "remove persisted session").
			Wrap(err)
		m.classifier.Handle(wrapped)
		return wrapped
	}

	m.state.commit(ticket, nil)
	recordOperation(localStrategy, "logout", ResultSuccess)
	recordSignedIn(localStrategy, false)
	return nil
}

// SetUser implements Manager.
func (m *Local) SetUser(ctx context.Context, user *User) error {
	if user == nil {
		return oops.Code("VALIDATION_USER_REQUIRED").Errorf("user cannot be nil")
	}

	ticket := m.state.begin()
	copied := *user
	if err := m.persistSession(ctx, &copied); err != nil {
		m.classifier.Handle(err)
		return err
	}
	m.state.commit(ticket, &copied)
	return nil
}

// User implements Manager.
func (m *Local) User() *User {
	return m.state.user()
}

// WatchUser implements Manager.
func (m *Local) WatchUser() *watch.View[*User] {
	return m.state.watch()
}

func (m *Local) loadUsers(ctx context.Context) ([]storedUser, error) {
	raw, err := m.store.Get(ctx, store.KeyUsers)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var users []storedUser
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, oops.Code("VALIDATION_STATE_CORRUPT").
			With("key", store.KeyUsers).
			Wrap(err)
	}
	return users, nil
}

func (m *Local) saveUsers(ctx context.Context, users []storedUser) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return oops.Code("AUTH_PERSIST_FAILED").
			With("key", store.KeyUsers).
			Wrap(err)
	}
	if err := m.store.Set(ctx, store.KeyUsers, string(raw)); err != nil {
		return oops.Code("AUTH_PERSIST_FAILED").
			With("key", store.KeyUsers).
			Wrap(err)
	}
	return nil
}

func (m *Local) persistSession(ctx context.Context, user *User) error {
	raw, err := json.Marshal(authRecord{
		Name:    user.Name,
		Surname: user.Surname,
		Email:   user.Email,
	})
	if err != nil {
		return oops.Code("AUTH_PERSIST_FAILED").
			With("key", store.KeyAuthentication).
			Wrap(err)
	}
	if err := m.store.Set(ctx, store.KeyAuthentication, string(raw)); err != nil {
		return oops.Code("AUTH_PERSIST_FAILED").
			With("key", store.KeyAuthentication).
			Wrap(err)
	}
	return nil
}

func findByEmail(users []storedUser, email string) (storedUser, bool) {
	for _, u := range users {
		if u.Email == email {
			return u, true
		}
	}
	return storedUser{}, false
}
