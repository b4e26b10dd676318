// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

// Package errutil holds helpers for logging and asserting oops errors.
package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustOops(t *testing.T, err error) oops.OopsError {
	t.Helper()
	require.Error(t, err)
	oe, ok := oops.AsOops(err)
	require.Truef(t, ok, "want an oops error, got %T: %v", err, err)
	return oe
}

// AssertErrorCode fails the test unless err carries code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	assert.Equal(t, code, mustOops(t, err).Code(), "error code of %v", err)
}

// AssertErrorContext fails the test unless err carries key set to value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	fields := mustOops(t, err).Context()
	if assert.Contains(t, fields, key) {
		assert.Equal(t, value, fields[key], "context %q", key)
	}
}

// AssertErrorDomain fails the test unless err was raised in domain.
func AssertErrorDomain(t *testing.T, err error, domain string) {
	t.Helper()
	assert.Equal(t, domain, mustOops(t, err).Domain())
}
