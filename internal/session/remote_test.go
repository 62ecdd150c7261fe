// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

package session_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/juanarrow/credentials/internal/apperror"
	"github.com/juanarrow/credentials/internal/gateway"
	"github.com/juanarrow/credentials/internal/session"
	"github.com/juanarrow/credentials/internal/session/mocks"
	"github.com/juanarrow/credentials/internal/store"
	"github.com/juanarrow/credentials/internal/store/storetest"
	"github.com/juanarrow/credentials/pkg/errutil"
)

func newRemote(t *testing.T) (*session.Remote, *mocks.MockGateway, *storetest.Memory, *apperror.Classifier) {
	t.Helper()
	gw := mocks.NewMockGateway(t)
	mem := storetest.NewMemory()
	classifier := apperror.New(nil)
	manager, err := session.NewRemote(gw, mem, classifier, nil)
	require.NoError(t, err)
	return manager, gw, mem, classifier
}

func adaSession(token string) *gateway.Session {
	return &gateway.Session{
		Token: token,
		Account: gateway.Account{
			ID:      7,
			Email:   "ada@example.com",
			Name:    "Ada",
			Surname: "Lovelace",
		},
	}
}

func expiredJWT(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestRemoteLogin_Success(t *testing.T) {
	manager, gw, mem, _ := newRemote(t)
	gw.On("Authenticate", mock.Anything, "ada@example.com", "secret").
		Return(adaSession("tok-123"), nil)

	outcome, err := manager.Login(context.Background(), session.Credentials{
		Email:    "ada@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, outcome.Status)
	require.NotNil(t, outcome.User)
	assert.Equal(t, "Ada", outcome.User.Name)

	assert.Equal(t, "tok-123", mem.Snapshot()[store.KeyToken])
}

func TestRemoteLogin_BadCredentials(t *testing.T) {
	manager, gw, _, classifier := newRemote(t)
	gw.On("Authenticate", mock.Anything, "ada@example.com", "wrong").
		Return(nil, &gateway.Error{Status: 400, Message: "Invalid identifier or password"})

	outcome, err := manager.Login(context.Background(), session.Credentials{
		Email:    "ada@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, outcome.Status)
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_CREDENTIALS")

	active := classifier.Active()
	require.NotNil(t, active)
	assert.Equal(t, apperror.KindAuth, active.Kind)
	assert.Equal(t, "incorrect username or password", active.Message)
}

func TestRemoteLogin_ProviderUnreachable(t *testing.T) {
	manager, gw, _, classifier := newRemote(t)
	gw.On("Authenticate", mock.Anything, "ada@example.com", "secret").
		Return(nil, &gateway.Error{Status: 0, Message: "provider unreachable"})

	_, err := manager.Login(context.Background(), session.Credentials{
		Email:    "ada@example.com",
		Password: "secret",
	})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_LOGIN_FAILED")

	active := classifier.Active()
	require.NotNil(t, active)
	assert.Equal(t, apperror.KindNetwork, active.Kind)
	assert.Equal(t, "connection error", active.Message)
}

func TestRemoteRegister_TwoPhase(t *testing.T) {
	manager, gw, mem, _ := newRemote(t)
	gw.On("CreateAccount", mock.Anything, "ada@example.com", "ada@example.com", "secret").
		Return(adaSession("tok-456"), nil)
	gw.On("UpdateProfile", mock.Anything, "tok-456", gateway.ProfileFields{Name: "Ada", Surname: "Lovelace"}).
		Return(&gateway.Account{ID: 7, Name: "Ada", Surname: "Lovelace"}, nil)

	outcome, err := manager.Register(context.Background(), session.RegistrationInfo{
		Name:     "Ada",
		Surname:  "Lovelace",
		Email:    "ada@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, outcome.Status)
	require.NotNil(t, outcome.User)
	assert.Equal(t, "Lovelace", outcome.User.Surname)

	assert.Equal(t, "tok-456", mem.Snapshot()[store.KeyToken])
}

func TestRemoteRegister_DuplicateEmail(t *testing.T) {
	manager, gw, _, classifier := newRemote(t)
	gw.On("CreateAccount", mock.Anything, "ada@example.com", "ada@example.com", "secret").
		Return(nil, &gateway.Error{Status: 400, Message: "Email or Username are already taken"})

	outcome, err := manager.Register(context.Background(), session.RegistrationInfo{
		Email:    "ada@example.com",
		Password: "secret",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, outcome.Status)
	errutil.AssertErrorCode(t, err, "AUTH_REGISTER_REJECTED")

	active := classifier.Active()
	require.NotNil(t, active)
	assert.Equal(t, apperror.KindValidation, active.Kind)
	assert.Equal(t, "email already registered", active.Message)
}

func TestRemoteRegister_NonBadRequestUsesGenericHandler(t *testing.T) {
	manager, gw, _, classifier := newRemote(t)
	gw.On("CreateAccount", mock.Anything, "ada@example.com", "ada@example.com", "secret").
		Return(nil, &gateway.Error{Status: 401, Message: "Missing or invalid credentials"})

	_, err := manager.Register(context.Background(), session.RegistrationInfo{
		Email:    "ada@example.com",
		Password: "secret",
	})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_REGISTER_FAILED")

	// A 401 is not a registration rejection; the status table speaks.
	active := classifier.Active()
	require.NotNil(t, active)
	assert.Equal(t, apperror.KindAuth, active.Kind)
	assert.Equal(t, "incorrect credentials", active.Message)
	assert.Equal(t, "HTTP_401", active.Code)
}

func TestRemoteRegister_InvalidData(t *testing.T) {
	manager, gw, _, classifier := newRemote(t)
	gw.On("CreateAccount", mock.Anything, "ada@example.com", "ada@example.com", "x").
		Return(nil, &gateway.Error{Status: 400, Message: "password must be at least 6 characters"})

	_, err := manager.Register(context.Background(), session.RegistrationInfo{
		Email:    "ada@example.com",
		Password: "x",
	})
	require.Error(t, err)

	active := classifier.Active()
	require.NotNil(t, active)
	assert.Equal(t, apperror.KindValidation, active.Kind)
	assert.Equal(t, "check your data and try again", active.Message)
}

func TestRemoteRegister_ProfilePhaseFailureKeepsAccount(t *testing.T) {
	manager, gw, _, classifier := newRemote(t)
	gw.On("CreateAccount", mock.Anything, "ada@example.com", "ada@example.com", "secret").
		Return(&gateway.Session{
			Token:   "tok-456",
			Account: gateway.Account{ID: 7, Email: "ada@example.com"},
		}, nil)
	gw.On("UpdateProfile", mock.Anything, "tok-456", mock.Anything).
		Return(nil, &gateway.Error{Status: 500, Message: "Internal Server Error"})

	outcome, err := manager.Register(context.Background(), session.RegistrationInfo{
		Name:     "Ada",
		Surname:  "Lovelace",
		Email:    "ada@example.com",
		Password: "secret",
	})
	require.NoError(t, err, "profile phase failure must not fail the registration")
	assert.Equal(t, http.StatusCreated, outcome.Status)

	// The provider's bare record stands; the unsaved fields do not leak in.
	require.NotNil(t, manager.User())
	assert.Empty(t, manager.User().Name)
	assert.Equal(t, "ada@example.com", manager.User().Email)

	active := classifier.Active()
	require.NotNil(t, active)
	assert.Equal(t, apperror.KindValidation, active.Kind)
	assert.Equal(t, "profile fields were not saved", active.Message)
}

func TestRemoteRecover_NoToken(t *testing.T) {
	manager, _, _, _ := newRemote(t)

	require.NoError(t, manager.Recover(context.Background()))
	assert.Nil(t, manager.User())
}

func TestRemoteRecover_ValidToken(t *testing.T) {
	manager, gw, mem, _ := newRemote(t)
	mem.Seed(store.KeyToken, "tok-123")
	gw.On("FetchCurrentUser", mock.Anything, "tok-123").
		Return(&gateway.Account{Email: "ada@example.com", Name: "Ada"}, nil).
		Once()

	require.NoError(t, manager.Recover(context.Background()))
	require.NotNil(t, manager.User())
	assert.Equal(t, "ada@example.com", manager.User().Email)

	// Latched: a second recovery must not hit the provider again.
	require.NoError(t, manager.Recover(context.Background()))
}

func TestRemoteRecover_RejectedTokenRemoved(t *testing.T) {
	manager, gw, mem, _ := newRemote(t)
	mem.Seed(store.KeyToken, "stale")
	gw.On("FetchCurrentUser", mock.Anything, "stale").
		Return(nil, &gateway.Error{Status: 401, Message: "Missing or invalid credentials"})

	err := manager.Recover(context.Background())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_RECOVER_FAILED")

	assert.Nil(t, manager.User())
	assert.NotContains(t, mem.Snapshot(), store.KeyToken, "rejected token is removed")
}

func TestRemoteRecover_UnreachableProviderKeepsToken(t *testing.T) {
	manager, gw, mem, _ := newRemote(t)
	mem.Seed(store.KeyToken, "tok-123")
	gw.On("FetchCurrentUser", mock.Anything, "tok-123").
		Return(nil, &gateway.Error{Status: 0, Message: "provider unreachable"})

	err := manager.Recover(context.Background())
	require.Error(t, err)

	assert.Contains(t, mem.Snapshot(), store.KeyToken,
		"a token that could not be checked survives for a later retry")
}

func TestRemoteRecover_LocallyExpiredToken(t *testing.T) {
	manager, _, mem, classifier := newRemote(t)
	mem.Seed(store.KeyToken, expiredJWT(t))

	err := manager.Recover(context.Background())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_SESSION_EXPIRED")

	assert.NotContains(t, mem.Snapshot(), store.KeyToken)

	active := classifier.Active()
	require.NotNil(t, active)
	assert.Equal(t, apperror.KindAuth, active.Kind)
}

func TestRemoteLogout_ClearsTokenAndLatch(t *testing.T) {
	manager, gw, mem, _ := newRemote(t)
	gw.On("Authenticate", mock.Anything, "ada@example.com", "secret").
		Return(adaSession("tok-123"), nil)

	_, err := manager.Login(context.Background(), session.Credentials{
		Email:    "ada@example.com",
		Password: "secret",
	})
	require.NoError(t, err)

	require.NoError(t, manager.Logout(context.Background()))
	assert.Nil(t, manager.User())
	assert.NotContains(t, mem.Snapshot(), store.KeyToken)

	// Logout is idempotent and re-arms recovery.
	require.NoError(t, manager.Logout(context.Background()))
	require.NoError(t, manager.Recover(context.Background()))
	assert.Nil(t, manager.User())
}

func TestRemoteSetUser_FailedSaveKeepsUser(t *testing.T) {
	manager, gw, mem, classifier := newRemote(t)
	mem.Seed(store.KeyToken, "tok-123")
	gw.On("UpdateProfile", mock.Anything, "tok-123", mock.Anything).
		Return(nil, &gateway.Error{Status: 400, Message: "ValidationError"})

	err := manager.SetUser(context.Background(), &session.User{
		Name:  "Ada",
		Email: "ada@example.com",
	})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "VALIDATION_PROFILE_SAVE")

	require.NotNil(t, manager.User(), "local view keeps the user")
	assert.Equal(t, "Ada", manager.User().Name)

	active := classifier.Active()
	require.NotNil(t, active)
	assert.Equal(t, "profile fields were not saved", active.Message)
}
