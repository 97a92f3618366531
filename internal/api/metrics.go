// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// authzDecisionsTotal counts authorization decisions by role,
	// method and outcome.
	authzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pressgate_authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"role", "method", "decision"},
	)

	// authzDeniedTotal tracks denials separately for alerting.
	authzDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pressgate_authz_denied_total",
			Help: "Total number of authorization denials",
		},
		[]string{"role", "path"},
	)

	// authzDecisionDuration tracks decision latency.
	authzDecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pressgate_authz_decision_duration_seconds",
			Help:    "Duration of authorization decisions in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"role"},
	)
)

func recordDecision(role, path, method string, allowed bool, elapsed time.Duration) {
	decision := "allow"
	if !allowed {
		decision = "deny"
		authzDeniedTotal.WithLabelValues(role, path).Inc()
	}
	authzDecisionsTotal.WithLabelValues(role, method, decision).Inc()
	authzDecisionDuration.WithLabelValues(role).Observe(elapsed.Seconds())
}
