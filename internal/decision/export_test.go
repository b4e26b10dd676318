// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package decision

import "github.com/prometheus/client_golang/prometheus"

// DecisionsCounter exposes the decisions counter to external tests.
func DecisionsCounter(action, outcome string) prometheus.Counter {
	return decisionsTotal.WithLabelValues(action, outcome)
}

// CurrencyModesCounter exposes the currency modes counter to external tests.
func CurrencyModesCounter(mode string) prometheus.Counter {
	return currencyModes.WithLabelValues(mode)
}

// MeritRoutesCounter exposes the merit routes counter to external tests.
func MeritRoutesCounter(route string) prometheus.Counter {
	return meritRoutes.WithLabelValues(route)
}
