// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/meriter/meriter/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("CURRENCY_NO_COMMUNITY").Errorf("currency mode evaluated without a community")
	errutil.AssertErrorCode(t, err, "CURRENCY_NO_COMMUNITY")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("requester_id", "u1").Errorf("test error")
	errutil.AssertErrorContext(t, err, "requester_id", "u1")
}

func TestAssertErrorDomain(t *testing.T) {
	err := oops.In("store").Code("STORE_QUERY_FAILED").Errorf("query failed")
	errutil.AssertErrorDomain(t, err, "store")
	errutil.AssertErrorCode(t, err, "STORE_QUERY_FAILED")
}
