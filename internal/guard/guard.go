// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

// Package guard decides whether a navigation target is reachable
// without a signed-in user, and remembers where a redirected visitor
// wanted to go so login can send them back.
package guard

import (
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// LoginPath is where unauthenticated visitors are redirected.
const LoginPath = "/login"

// DefaultPublicPatterns are reachable without a session.
var DefaultPublicPatterns = []string{
	"/login",
	"/register",
	"/public/**",
}

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Guard gates paths behind an authentication check. Public paths are
// declared as glob patterns, compiled once at construction.
type Guard struct {
	authenticated func() bool
	public        []glob.Glob

	mu       sync.Mutex
	returnTo string
}

// New compiles the public patterns and builds a Guard. authenticated is
// consulted on every check; it must be safe for concurrent use.
func New(authenticated func() bool, publicPatterns []string) (*Guard, error) {
	if authenticated == nil {
		return nil, oops.Code("VALIDATION_DEPENDENCY").Errorf("authenticated check is required")
	}

	public := make([]glob.Glob, 0, len(publicPatterns))
	for _, pattern := range publicPatterns {
		compiled, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, oops.Code("VALIDATION_GUARD_PATTERN").
				With("pattern", pattern).
				Wrap(err)
		}
		public = append(public, compiled)
	}

	return &Guard{
		authenticated: authenticated,
		public:        public,
	}, nil
}

// Check evaluates a navigation to path. A denied check remembers the
// path so a later login can return to it.
func (g *Guard) Check(path string) Decision {
	for _, pattern := range g.public {
		if pattern.Match(path) {
			return Decision{Allowed: true}
		}
	}

	if g.authenticated() {
		return Decision{Allowed: true}
	}

	g.mu.Lock()
	g.returnTo = path
	g.mu.Unlock()

	return Decision{Allowed: false, RedirectTo: LoginPath}
}

// ConsumeReturnTo hands out the remembered target exactly once,
// defaulting to the root path.
func (g *Guard) ConsumeReturnTo() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	target := g.returnTo
	g.returnTo = ""
	if target == "" {
		return "/"
	}
	return target
}
