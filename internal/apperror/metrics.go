// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

package apperror

import (
	"github.com/prometheus/client_golang/prometheus"
)

// errorsClassified counts activated errors by taxonomy kind.
// Use RegisterMetrics to register this with a Prometheus registry.
var errorsClassified = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "credentials_errors_classified_total",
		Help: "Total number of errors activated by the classifier, by kind",
	},
	[]string{"kind"},
)

// RegisterMetrics registers apperror package metrics with the given
// Prometheus registry. Panics if registration fails (prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(errorsClassified)
}

func recordClassified(kind Kind) {
	errorsClassified.WithLabelValues(string(kind)).Inc()
}
