// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/juanarrow/credentials/internal/apperror"
	"github.com/juanarrow/credentials/internal/gateway"
	"github.com/juanarrow/credentials/internal/store"
	"github.com/juanarrow/credentials/internal/watch"
	"github.com/juanarrow/credentials/pkg/errutil"
)

const remoteStrategy = "remote"

// Remote implements Manager against a token-issuing identity provider.
// The store only holds the bearer token; the user record itself lives
// with the provider and is re-fetched on recovery.
type Remote struct {
	gateway    gateway.Gateway
	store      store.Store
	classifier *apperror.Classifier
	logger     *slog.Logger

	state     *state
	recovered atomic.Bool
	now       func() time.Time
}

var _ Manager = (*Remote)(nil)

// NewRemote creates the provider-backed session manager.
func NewRemote(gw gateway.Gateway, st store.Store, classifier *apperror.Classifier, logger *slog.Logger) (*Remote, error) {
	if gw == nil {
		return nil, oops.Code("VALIDATION_DEPENDENCY").Errorf("gateway is required")
	}
	if st == nil {
		return nil, oops.Code("VALIDATION_DEPENDENCY").Errorf("store is required")
	}
	if classifier == nil {
		return nil, oops.Code("VALIDATION_DEPENDENCY").Errorf("classifier is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Remote{
		gateway:    gw,
		store:      st,
		classifier: classifier,
		logger:     logger,
		state:      newState(),
		now:        time.Now,
	}, nil
}

// Recover implements Manager. After one successful recovery further
// calls are no-ops until logout; repeated route activations must not
// hammer the provider.
//
// Token handling distinguishes verdicts from accidents: a token the
// provider confirms invalid (401/403) or that is locally past its exp
// claim is removed, while a token that merely could not be checked
// (connection failure, 5xx) is kept for a later retry.
func (m *Remote) Recover(ctx context.Context) error {
	if m.recovered.Load() {
		return nil
	}

	ticket := m.state.begin()

	token, err := m.store.Get(ctx, store.KeyToken)
	if errors.Is(err, store.ErrNotFound) {
		m.state.commit(ticket, nil)
		return nil
	}
	if err != nil {
		recordOperation(remoteStrategy, "recover", ResultError)
		wrapped := oops.Code("AUTH_RECOVER_FAILED").
			With("operation", "read persisted token").
			Wrap(err)
		m.classifier.Handle(wrapped)
		return wrapped
	}

	if tokenExpired(token, m.now()) {
		_ = m.store.Remove(ctx, store.KeyToken) //nolint:errcheck // Best effort cleanup
		m.state.commit(ticket, nil)
		recordOperation(remoteStrategy, "recover", ResultRejected)

		expired := oops.Code("AUTH_SESSION_EXPIRED").Errorf("session has expired")
		m.classifier.Handle(expired)
		return expired
	}

	account, err := m.gateway.FetchCurrentUser(ctx, token)
	if err != nil {
		if tokenRejected(err) {
			_ = m.store.Remove(ctx, store.KeyToken) //nolint:errcheck // Best effort cleanup
			m.state.commit(ticket, nil)
		}
		recordOperation(remoteStrategy, "recover", ResultError)
		m.classifier.Handle(err)
		return oops.Code("AUTH_RECOVER_FAILED").
			With("operation", "fetch current user").
			Wrap(err)
	}

	m.state.commit(ticket, userFromAccount(account))
	m.recovered.Store(true)
	recordOperation(remoteStrategy, "recover", ResultSuccess)
	recordSignedIn(remoteStrategy, true)
	return nil
}

// Login implements Manager.
func (m *Remote) Login(ctx context.Context, creds Credentials) (Outcome, error) {
	if err := validateCredentials(creds); err != nil {
		m.classifier.Handle(err)
		return Outcome{}, err
	}

	ticket := m.state.begin()

	session, err := m.gateway.Authenticate(ctx, creds.Email, creds.Password)
	if err != nil {
		var gwErr *gateway.Error
		if errors.As(err, &gwErr) && gwErr.HTTPStatus() == http.StatusBadRequest {
			// The provider answers 400 to bad credentials; surface it as
			// the authentication failure it really is.
			m.classifier.Set("incorrect username or password", apperror.KindAuth, m.classifier.DisplayDuration())
			recordOperation(remoteStrategy, "login", ResultRejected)
			return Outcome{Status: statusBadLogin}, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(err)
		}

		recordOperation(remoteStrategy, "login", ResultError)
		m.classifier.Handle(err)
		return Outcome{}, oops.Code("AUTH_LOGIN_FAILED").Wrap(err)
	}

	m.persistToken(ctx, session.Token)

	user := userFromAccount(&session.Account)
	m.state.commit(ticket, user)
	m.recovered.Store(true)
	recordOperation(remoteStrategy, "login", ResultSuccess)
	recordSignedIn(remoteStrategy, true)
	return Outcome{Status: statusLoggedIn, User: user}, nil
}

// Register implements Manager. Account creation is two-phased: the
// provider only accepts username/email/password up front, so profile
// fields go out in a follow-up call. A failed follow-up degrades to a
// warning; the account and session survive.
func (m *Remote) Register(ctx context.Context, info RegistrationInfo) (Outcome, error) {
	if err := validateRegistration(info); err != nil {
		m.classifier.Handle(err)
		return Outcome{}, err
	}

	ticket := m.state.begin()

	session, err := m.gateway.CreateAccount(ctx, info.Email, info.Email, info.Password)
	if err != nil {
		var gwErr *gateway.Error
		// The provider answers 400 both to duplicates and to malformed
		// input; anything else goes through the generic handler.
		if errors.As(err, &gwErr) && gwErr.HTTPStatus() == http.StatusBadRequest {
			message, kind := registrationRejection(gwErr.Message)
			m.classifier.Set(message, kind, m.classifier.DisplayDuration())
			recordOperation(remoteStrategy, "register", ResultRejected)
			return Outcome{Status: statusRejected}, oops.Code("AUTH_REGISTER_REJECTED").Wrap(err)
		}

		recordOperation(remoteStrategy, "register", ResultError)
		m.classifier.Handle(err)
		return Outcome{}, oops.Code("AUTH_REGISTER_FAILED").Wrap(err)
	}

	m.persistToken(ctx, session.Token)

	// Until the second phase succeeds the signed-in user is whatever the
	// provider handed back; a failed profile update keeps that bare record.
	user := userFromAccount(&session.Account)
	if info.Name != "" || info.Surname != "" {
		fields := gateway.ProfileFields{Name: info.Name, Surname: info.Surname}
		account, err := m.gateway.UpdateProfile(ctx, session.Token, fields)
		if err != nil {
			m.classifier.Set("profile fields were not saved", apperror.KindValidation, m.classifier.DisplayDuration())
			errutil.LogError(m.logger, "profile update after registration failed", err)
		} else {
			user = userFromAccount(account)
		}
	}

	m.state.commit(ticket, user)
	m.recovered.Store(true)
	recordOperation(remoteStrategy, "register", ResultSuccess)
	recordSignedIn(remoteStrategy, true)
	return Outcome{Status: statusRegistered, User: user}, nil
}

// Logout implements Manager.
func (m *Remote) Logout(ctx context.Context) error {
	ticket := m.state.begin()

	err := m.store.Remove(ctx, store.KeyToken)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		recordOperation(remoteStrategy, "logout", ResultError)
		wrapped := oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "remove persisted token").
			Wrap(err)
		m.classifier.Handle(wrapped)
		return wrapped
	}

	m.state.commit(ticket, nil)
	m.recovered.Store(false)
	recordOperation(remoteStrategy, "logout", ResultSuccess)
	recordSignedIn(remoteStrategy, false)
	return nil
}

// SetUser implements Manager. The local view updates regardless; a
// failed provider save keeps the user and reports a validation warning.
func (m *Remote) SetUser(ctx context.Context, user *User) error {
	if user == nil {
		return oops.Code("VALIDATION_USER_REQUIRED").Errorf("user cannot be nil")
	}

	ticket := m.state.begin()
	copied := *user
	m.state.commit(ticket, &copied)

	token, err := m.store.Get(ctx, store.KeyToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return oops.Code("AUTH_PERSIST_FAILED").
			With("operation", "read persisted token").
			Wrap(err)
	}

	fields := gateway.ProfileFields{Name: copied.Name, Surname: copied.Surname}
	if _, err := m.gateway.UpdateProfile(ctx, token, fields); err != nil {
		m.classifier.Set("profile fields were not saved", apperror.KindValidation, m.classifier.DisplayDuration())
		return oops.Code("VALIDATION_PROFILE_SAVE").Wrap(err)
	}
	return nil
}

// User implements Manager.
func (m *Remote) User() *User {
	return m.state.user()
}

// WatchUser implements Manager.
func (m *Remote) WatchUser() *watch.View[*User] {
	return m.state.watch()
}

// persistToken stores the bearer token. Failure is logged, not fatal:
// the in-memory session is already valid for this run.
func (m *Remote) persistToken(ctx context.Context, token string) {
	if err := m.store.Set(ctx, store.KeyToken, token); err != nil {
		errutil.LogError(m.logger, "persisting session token failed", err)
	}
}

// tokenRejected reports whether the provider definitively refused the
// token, as opposed to being unreachable.
func tokenRejected(err error) bool {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		status := gwErr.HTTPStatus()
		return status == http.StatusUnauthorized || status == http.StatusForbidden
	}
	return false
}

// registrationRejection translates the provider's 400 text into the
// user-facing validation message. Duplicate identity mentions the
// email or username; anything else is a generic nudge.
func registrationRejection(providerMessage string) (string, apperror.Kind) {
	lower := strings.ToLower(providerMessage)
	if strings.Contains(lower, "email") || strings.Contains(lower, "username") {
		return "email already registered", apperror.KindValidation
	}
	return "check your data and try again", apperror.KindValidation
}

func userFromAccount(account *gateway.Account) *User {
	return &User{
		Name:    account.Name,
		Surname: account.Surname,
		Email:   account.Email,
	}
}
