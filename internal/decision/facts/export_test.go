// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package facts

import "github.com/prometheus/client_golang/prometheus"

// MissingFactsCounter exposes the missing-facts counter to external tests.
func MissingFactsCounter(collaborator string) prometheus.Counter {
	return missingFacts.WithLabelValues(collaborator)
}

// LookupErrorsCounter exposes the lookup-errors counter to external tests.
func LookupErrorsCounter(collaborator string) prometheus.Counter {
	return lookupErrors.WithLabelValues(collaborator)
}
