// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package types

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Toggle is a three-state condition flag. Unset means the condition is not
// configured; Allow and Deny are explicit choices. Serialized as an absent
// field, true, or false.
type Toggle int

// Toggle constants.
const (
	Unset Toggle = iota
	Allow
	Deny
)

var toggleStrings = [...]string{"unset", "allow", "deny"}

func (t Toggle) String() string {
	if t >= 0 && int(t) < len(toggleStrings) {
		return toggleStrings[t]
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// ToggleOf converts a bool into Allow or Deny.
func ToggleOf(b bool) Toggle {
	if b {
		return Allow
	}
	return Deny
}

// IsSet reports whether the toggle carries an explicit value.
func (t Toggle) IsSet() bool { return t == Allow || t == Deny }

// IsAllow reports whether the toggle is explicitly true.
func (t Toggle) IsAllow() bool { return t == Allow }

// IsDeny reports whether the toggle is explicitly false.
func (t Toggle) IsDeny() bool { return t == Deny }

// MarshalJSON encodes Allow/Deny as booleans and Unset as null.
func (t Toggle) MarshalJSON() ([]byte, error) {
	switch t {
	case Allow:
		return []byte("true"), nil
	case Deny:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a boolean or null.
func (t *Toggle) UnmarshalJSON(data []byte) error {
	var b *bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("toggle: %w", err)
	}
	if b == nil {
		*t = Unset
		return nil
	}
	*t = ToggleOf(*b)
	return nil
}

// MarshalYAML encodes Allow/Deny as booleans and Unset as null.
func (t Toggle) MarshalYAML() (any, error) {
	switch t {
	case Allow:
		return true, nil
	case Deny:
		return false, nil
	default:
		return nil, nil
	}
}

// UnmarshalYAML decodes a boolean or null node.
func (t *Toggle) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		*t = Unset
		return nil
	}
	var b bool
	if err := node.Decode(&b); err != nil {
		return fmt.Errorf("toggle: %w", err)
	}
	*t = ToggleOf(b)
	return nil
}
