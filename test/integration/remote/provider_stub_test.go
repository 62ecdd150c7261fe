// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

package remote_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// providerStub is a minimal in-memory identity provider speaking the
// Strapi v4 auth dialect: /api/auth/local, /api/auth/local/register
// and /api/users/me.
type providerStub struct {
	mu       sync.Mutex
	nextID   int
	accounts map[string]*stubAccount // keyed by email
	tokens   map[string]string       // token -> email
}

type stubAccount struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Surname  string `json:"surname,omitempty"`

	password string
}

func newProviderStub() *providerStub {
	return &providerStub{
		accounts: make(map[string]*stubAccount),
		tokens:   make(map[string]string),
	}
}

func (p *providerStub) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/local", p.handleLogin)
	mux.HandleFunc("POST /api/auth/local/register", p.handleRegister)
	mux.HandleFunc("GET /api/users/me", p.handleMe)
	mux.HandleFunc("PUT /api/users/me", p.handleUpdate)
	return httptest.NewServer(mux)
}

func (p *providerStub) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid payload")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.accounts[strings.ToLower(body.Identifier)]
	if !ok || account.password != body.Password {
		writeError(w, http.StatusBadRequest, "ValidationError", "Invalid identifier or password")
		return
	}

	p.writeSession(w, account)
}

func (p *providerStub) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid payload")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	email := strings.ToLower(body.Email)
	if _, exists := p.accounts[email]; exists {
		writeError(w, http.StatusBadRequest, "ApplicationError", "Email or Username are already taken")
		return
	}

	p.nextID++
	account := &stubAccount{
		ID:       p.nextID,
		Username: body.Username,
		Email:    email,
		password: body.Password,
	}
	p.accounts[email] = account

	p.writeSession(w, account)
}

func (p *providerStub) handleMe(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.authorized(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UnauthorizedError", "Missing or invalid credentials")
		return
	}

	json.NewEncoder(w).Encode(account) //nolint:errcheck // test stub
}

func (p *providerStub) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.authorized(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UnauthorizedError", "Missing or invalid credentials")
		return
	}

	var fields struct {
		Name    string `json:"name"`
		Surname string `json:"surname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid payload")
		return
	}

	account.Name = fields.Name
	account.Surname = fields.Surname
	json.NewEncoder(w).Encode(account) //nolint:errcheck // test stub
}

// authorized resolves the bearer token; callers hold the lock.
func (p *providerStub) authorized(r *http.Request) (*stubAccount, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return nil, false
	}
	email, ok := p.tokens[token]
	if !ok {
		return nil, false
	}
	account, ok := p.accounts[email]
	return account, ok
}

func (p *providerStub) writeSession(w http.ResponseWriter, account *stubAccount) {
	token := fmt.Sprintf("stub-token-%d-%d", account.ID, len(p.tokens))
	p.tokens[token] = account.Email

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // test stub
		"jwt":  token,
		"user": account,
	})
}

// account returns a copy of the stored account, if any.
func (p *providerStub) account(email string) (stubAccount, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	account, ok := p.accounts[email]
	if !ok {
		return stubAccount{}, false
	}
	return *account, true
}

// revoke invalidates every token for the given email, simulating a
// server-side session purge.
func (p *providerStub) revoke(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for token, owner := range p.tokens {
		if owner == email {
			delete(p.tokens, token)
		}
	}
}

func writeError(w http.ResponseWriter, status int, name, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // test stub
		"error": map[string]any{
			"status":  status,
			"name":    name,
			"message": message,
		},
	})
}
