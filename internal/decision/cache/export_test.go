// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package cache

// Exported for external tests.
var (
	CacheRequestsCounter = cacheRequests
	InvalidationsCounter = invalidations
)
