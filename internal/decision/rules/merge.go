// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package rules

import "github.com/meriter/meriter/internal/decision/types"

// Merge folds overrides into base by (role, action) key, last write wins.
//
// The result holds exactly one rule per key of base, in the position of the
// key's first occurrence in base. Override keys absent from base are dropped.
// Neither input is modified and the result shares no memory with them.
func Merge(base, overrides []types.PermissionRule) []types.PermissionRule {
	out := make([]types.PermissionRule, 0, len(base))
	for _, rule := range base {
		if i := indexOf(out, rule.Key()); i >= 0 {
			out[i] = rule.Clone()
			continue
		}
		out = append(out, rule.Clone())
	}
	for _, rule := range overrides {
		if i := indexOf(out, rule.Key()); i >= 0 {
			out[i] = rule.Clone()
		}
	}
	return out
}

func indexOf(rules []types.PermissionRule, key types.RuleKey) int {
	for i := range rules {
		if rules[i].Key() == key {
			return i
		}
	}
	return -1
}

// Table is a resolved rule table with at most one rule per key.
type Table []types.PermissionRule

// Lookup returns the rule for (role, action).
func (t Table) Lookup(role types.Role, action types.Action) (types.PermissionRule, bool) {
	i := indexOf(t, types.RuleKey{Role: role, Action: action})
	if i < 0 {
		return types.PermissionRule{}, false
	}
	return t[i].Clone(), true
}
