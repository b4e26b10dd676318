// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package decision

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/meriter/meriter/internal/decision/types"
)

// Metrics for decision evaluation.
var (
	// decisionDuration tracks the latency of engine operations.
	decisionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meriter_decision_duration_seconds",
		Help:    "Histogram of decision engine operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// decisionsTotal counts permission decisions by action and outcome.
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meriter_decisions_total",
		Help: "Total number of permission decisions",
	}, []string{"action", "outcome"})

	// currencyModes counts composed currency modes by label.
	currencyModes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meriter_currency_modes_total",
		Help: "Total number of currency modes returned",
	}, []string{"mode"})

	// meritRoutes counts merit destination routes.
	meritRoutes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meriter_merit_routes_total",
		Help: "Total number of merit destination evaluations by route",
	}, []string{"route"})
)

// Operation labels for decisionDuration.
const (
	opCanPerformAction = "can_perform_action"
	opDecide           = "decide"
	opCurrencyMode     = "currency_mode"
	opMeritDestination = "merit_destination"
	opBatch            = "batch"
)

func observeDuration(operation string, start time.Time) {
	decisionDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordDecision records a permission decision for action.
func RecordDecision(action types.Action, d types.Decision) {
	decisionsTotal.WithLabelValues(string(action), d.Outcome()).Inc()
}

func recordCurrency(mode types.CurrencyMode) {
	currencyModes.WithLabelValues(mode.Label()).Inc()
}

func recordRoute(route types.MeritRoute) {
	meritRoutes.WithLabelValues(string(route)).Inc()
}
