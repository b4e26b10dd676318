// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package facts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// lookupErrors counts collaborator failures other than NOT_FOUND.
var lookupErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "meriter_context_lookup_errors_total",
	Help: "Total number of collaborator lookup failures while building decision contexts",
}, []string{"collaborator"})

// missingFacts counts lookups that resolved to NOT_FOUND.
var missingFacts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "meriter_context_missing_facts_total",
	Help: "Total number of collaborator lookups that found nothing",
}, []string{"collaborator"})
