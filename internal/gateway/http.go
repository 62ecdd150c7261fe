// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Provider endpoints (Strapi-compatible).
const (
	pathAuthenticate  = "/api/auth/local"
	pathCreateAccount = "/api/auth/local/register"
	pathCurrentUser   = "/api/users/me"
)

const defaultRequestTimeout = 10 * time.Second

// FetchCurrentUser is the only idempotent call; transient failures are
// retried a couple of times with fibonacci backoff before surfacing.
const (
	fetchMaxRetries   = 2
	fetchRetryBackoff = 200 * time.Millisecond
)

// HTTP implements Gateway over HTTP/JSON against a Strapi-style provider.
type HTTP struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

var _ Gateway = (*HTTP)(nil)

// NewHTTP creates an HTTP gateway for the provider at baseURL. A nil
// client gets a default with a request timeout.
func NewHTTP(baseURL string, client *http.Client, logger *slog.Logger) (*HTTP, error) {
	if baseURL == "" {
		return nil, oops.Code("VALIDATION_GATEWAY_URL").Errorf("gateway base URL is required")
	}
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}, nil
}

// Authenticate implements Gateway.
func (g *HTTP) Authenticate(ctx context.Context, identifier, password string) (*Session, error) {
	body := map[string]string{
		"identifier": identifier,
		"password":   password,
	}
	var session Session
	if err := g.do(ctx, http.MethodPost, pathAuthenticate, "", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateAccount implements Gateway.
func (g *HTTP) CreateAccount(ctx context.Context, username, email, password string) (*Session, error) {
	body := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}
	var session Session
	if err := g.do(ctx, http.MethodPost, pathCreateAccount, "", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// FetchCurrentUser implements Gateway.
func (g *HTTP) FetchCurrentUser(ctx context.Context, token string) (*Account, error) {
	var account Account

	backoff := retry.WithMaxRetries(fetchMaxRetries, retry.NewFibonacci(fetchRetryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := g.do(ctx, http.MethodGet, pathCurrentUser, token, nil, &account)
		if isTransient(err) {
			g.logger.Debug("retrying current-user fetch", "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateProfile implements Gateway.
func (g *HTTP) UpdateProfile(ctx context.Context, token string, fields ProfileFields) (*Account, error) {
	var account Account
	if err := g.do(ctx, http.MethodPut, pathCurrentUser, token, fields, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// isTransient reports whether a failure is worth retrying: connection
// failures and provider-side 5xx.
func isTransient(err error) bool {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Status == 0 || gwErr.Status >= 500
	}
	return false
}

// errorEnvelope is the provider's error response shape.
type errorEnvelope struct {
	Error struct {
		Status  int    `json:"status"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *HTTP) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return oops.Code("VALIDATION_GATEWAY_REQUEST").Wrap(err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return oops.Code("VALIDATION_GATEWAY_REQUEST").Wrap(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return &Error{Status: 0, Message: "provider unreachable", cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck // read-side close

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: 0, Message: "reading provider response", cause: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &Error{
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, data),
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return oops.Code("SERVER_MALFORMED_RESPONSE").
				With("path", path).
				Wrap(err)
		}
	}
	return nil
}

// errorMessage extracts the provider's message from an error body,
// falling back to the standard status text.
func errorMessage(status int, data []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "unexpected provider response"
}
