// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

package session

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result constants for session operation metrics.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Operations is the counter for session lifecycle operations.
// Use RegisterMetrics to register this with a Prometheus registry.
var Operations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "credentials_session_operations_total",
		Help: "Total number of session operations",
	},
	[]string{"strategy", "operation", "result"},
)

// SignedIn is a gauge reflecting whether a user is currently signed in.
// Use RegisterMetrics to register this with a Prometheus registry.
var SignedIn = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "credentials_session_signed_in",
		Help: "Whether a user is currently signed in (1) or not (0)",
	},
	[]string{"strategy"},
)

// RegisterMetrics registers session package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Operations)
	reg.MustRegister(SignedIn)
}

func recordOperation(strategy, operation, result string) {
	Operations.WithLabelValues(strategy, operation, result).Inc()
}

func recordSignedIn(strategy string, signedIn bool) {
	value := 0.0
	if signedIn {
		value = 1
	}
	SignedIn.WithLabelValues(strategy).Set(value)
}
