// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

var (
	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meriter_decision_cache_requests_total",
		Help: "Total number of decision cache lookups by result",
	}, []string{"result"})

	sharedFlights = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meriter_decision_cache_shared_total",
		Help: "Total number of decisions served from a concurrent identical evaluation",
	})

	invalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meriter_decision_cache_invalidations_total",
		Help: "Total number of community cache version bumps",
	})
)
