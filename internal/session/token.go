// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired reports whether a bearer token carries an exp claim in
// the past. The signature is NOT checked; this is a local pre-flight
// that saves a round trip for tokens the provider is guaranteed to
// reject. Malformed tokens and tokens without an exp claim return
// false, leaving the verdict to the provider.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
