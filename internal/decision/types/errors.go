// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package types

import "github.com/samber/oops"

// Error codes shared by the engine and its collaborators.
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeCurrencyNoCommunity = "CURRENCY_NO_COMMUNITY"
	ErrCodeContextBuildFailed  = "CONTEXT_BUILD_FAILED"
)

// NotFound returns a NOT_FOUND error for the given entity kind and id.
// Collaborators return it when a lookup matches nothing.
func NotFound(kind, id string) error {
	return oops.Code(ErrCodeNotFound).
		With("kind", kind).
		With("id", id).
		Errorf("%s %q not found", kind, id)
}

// IsNotFound reports whether err carries the NOT_FOUND code.
func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeNotFound)
}

// HasCode reports whether err is an oops error with the given code.
func HasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	return oopsErr.Code() == code
}
