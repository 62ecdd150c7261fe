// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

package apperror

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/juanarrow/credentials/internal/watch"
)

// DefaultDisplayDuration is how long an error stays active before
// auto-expiry. A duration of zero means the error never expires.
const DefaultDisplayDuration = 5 * time.Second

// statusCarrier is the transport-failure shape: any error exposing an
// HTTP-style status code. Status 0 means the request never reached the
// server.
type statusCarrier interface {
	HTTPStatus() int
}

// statusEntry is one row of the fixed status→classification table.
type statusEntry struct {
	kind    Kind
	message string
}

var statusTable = map[int]statusEntry{
	400: {KindValidation, "invalid data"},
	401: {KindAuth, "incorrect credentials"},
	403: {KindAuth, "no permission"},
	404: {KindNetwork, "resource not found"},
	500: {KindServer, "server error"},
	0:   {KindNetwork, "connection error"},
}

// Classifier turns arbitrary failures into AppErrors and owns the single
// active-error slot.
type Classifier struct {
	mu       sync.Mutex
	registry map[string]string
	active   *watch.Value[*AppError]
	timer    *time.Timer
	duration time.Duration
	logger   *slog.Logger
}

// New creates a Classifier seeded with the default code registry.
func New(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		registry: defaultRegistry(),
		active:   watch.NewValue[*AppError](nil),
		duration: DefaultDisplayDuration,
		logger:   logger,
	}
}

// SetDisplayDuration overrides how long Handle keeps an error visible.
// Zero disables auto-expiry.
func (c *Classifier) SetDisplayDuration(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.duration = d
}

// DisplayDuration returns the configured display duration.
func (c *Classifier) DisplayDuration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// Handle classifies err and activates it for the configured display duration.
func (c *Classifier) Handle(err error) {
	c.HandleFor(err, c.DisplayDuration())
}

// HandleFor classifies err and activates it for the given duration.
// Duration zero keeps the error active until explicitly cleared.
func (c *Classifier) HandleFor(err error, duration time.Duration) {
	c.activate(c.classify(err), duration)
}

// Set activates an error built directly from caller-supplied text,
// bypassing classification.
func (c *Classifier) Set(message string, kind Kind, duration time.Duration) {
	if kind == "" {
		kind = KindUnknown
	}
	c.activate(&AppError{
		ID:        ulid.Make(),
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
	}, duration)
}

// Clear deactivates the current error immediately. Safe to call when no
// error is active.
func (c *Classifier) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimerLocked()
	if c.active.Get() != nil {
		c.active.Set(nil)
	}
}

// RegisterMessage inserts or overwrites one registry entry. Only future
// classifications see the change.
func (c *Classifier) RegisterMessage(code, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry[code] = message
}

// Active returns the currently visible error, or nil.
func (c *Classifier) Active() *AppError {
	return c.active.Get()
}

// Watch returns the read-only projection of the active-error slot.
func (c *Classifier) Watch() *watch.View[*AppError] {
	return c.active.View()
}

func (c *Classifier) activate(appErr *AppError, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimerLocked()
	c.active.Set(appErr)
	recordClassified(appErr.Kind)

	c.logger.Debug("error activated",
		"kind", string(appErr.Kind),
		"code", appErr.Code,
		"message", appErr.Message,
	)

	if duration > 0 {
		id := appErr.ID
		c.timer = time.AfterFunc(duration, func() { c.expire(id) })
	}
}

// expire clears the active error only if it is still the one the timer was
// armed for. A replacement that raced the timer stays visible.
func (c *Classifier) expire(id ulid.ULID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.active.Get()
	if current == nil || current.ID != id {
		return
	}
	c.active.Set(nil)
	c.timer = nil
}

func (c *Classifier) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Classifier) classify(err error) *AppError {
	now := time.Now()

	if err == nil {
		return &AppError{
			ID:        ulid.Make(),
			Kind:      KindUnknown,
			Message:   "unknown error",
			Timestamp: now,
		}
	}

	// (a) Transport failure with a status code.
	var carrier statusCarrier
	if errors.As(err, &carrier) {
		status := carrier.HTTPStatus()
		entry, ok := statusTable[status]
		if !ok {
			entry = statusEntry{KindUnknown, "unexpected error"}
		}
		return &AppError{
			ID:        ulid.Make(),
			Kind:      entry.kind,
			Message:   entry.message,
			Code:      fmt.Sprintf("HTTP_%d", status),
			Cause:     err,
			Timestamp: now,
		}
	}

	// (b) Application-coded error.
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok && code != "" {
			message, found := c.lookupMessage(code)
			if !found {
				message = err.Error()
			}
			return &AppError{
				ID:        ulid.Make(),
				Kind:      kindForCode(code),
				Message:   message,
				Code:      code,
				Cause:     err,
				Timestamp: now,
			}
		}
	}

	// (c) Unclassifiable.
	message := err.Error()
	if message == "" {
		message = "unknown error"
	}
	return &AppError{
		ID:        ulid.Make(),
		Kind:      KindUnknown,
		Message:   message,
		Cause:     err,
		Timestamp: now,
	}
}

func (c *Classifier) lookupMessage(code string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	message, ok := c.registry[code]
	return message, ok
}

// kindForCode classifies an application code by prefix. Codes outside the
// four taxonomy prefixes (PERMISSION_DENIED, NOT_FOUND, ...) are Unknown.
func kindForCode(code string) Kind {
	switch {
	case strings.HasPrefix(code, "AUTH"):
		return KindAuth
	case strings.HasPrefix(code, "NETWORK"):
		return KindNetwork
	case strings.HasPrefix(code, "VALIDATION"):
		return KindValidation
	case strings.HasPrefix(code, "SERVER"):
		return KindServer
	default:
		return KindUnknown
	}
}
