// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package types

import "fmt"

// ConditionSet holds the optional predicates attached to a rule. Every set
// condition must pass for the rule to grant the action, except
// CanVoteForOwnPosts which is checked ahead of the rule's Allowed flag.
type ConditionSet struct {
	RequiresTeamMembership        Toggle `json:"requiresTeamMembership,omitempty" yaml:"requiresTeamMembership,omitempty"`
	OnlyTeamLead                  Toggle `json:"onlyTeamLead,omitempty" yaml:"onlyTeamLead,omitempty"`
	CanEditAfterMinutes           *int   `json:"canEditAfterMinutes,omitempty" yaml:"canEditAfterMinutes,omitempty"`
	CanDeleteWithVotes            Toggle `json:"canDeleteWithVotes,omitempty" yaml:"canDeleteWithVotes,omitempty"`
	CanDeleteWithComments         Toggle `json:"canDeleteWithComments,omitempty" yaml:"canDeleteWithComments,omitempty"`
	CanVoteForOwnPosts            Toggle `json:"canVoteForOwnPosts,omitempty" yaml:"canVoteForOwnPosts,omitempty"`
	TeamOnly                      Toggle `json:"teamOnly,omitempty" yaml:"teamOnly,omitempty"`
	IsHidden                      Toggle `json:"isHidden,omitempty" yaml:"isHidden,omitempty"`
	ParticipantsCannotVoteForLead Toggle `json:"participantsCannotVoteForLead,omitempty" yaml:"participantsCannotVoteForLead,omitempty"`
}

// Clone returns a deep copy of the condition set. Nil stays nil.
func (c *ConditionSet) Clone() *ConditionSet {
	if c == nil {
		return nil
	}
	out := *c
	if c.CanEditAfterMinutes != nil {
		minutes := *c.CanEditAfterMinutes
		out.CanEditAfterMinutes = &minutes
	}
	return &out
}

// Minutes is a helper for building CanEditAfterMinutes literals.
func Minutes(n int) *int {
	return &n
}

// RuleKey uniquely identifies a rule inside a rule table.
type RuleKey struct {
	Role   Role
	Action Action
}

func (k RuleKey) String() string {
	return fmt.Sprintf("%s/%s", k.Role, k.Action)
}

// PermissionRule grants or denies one action to one role.
type PermissionRule struct {
	Role       Role          `json:"role" yaml:"role"`
	Action     Action        `json:"action" yaml:"action"`
	Allowed    bool          `json:"allowed" yaml:"allowed"`
	Conditions *ConditionSet `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// Key returns the (role, action) key of the rule.
func (r PermissionRule) Key() RuleKey {
	return RuleKey{Role: r.Role, Action: r.Action}
}

// Clone returns a copy of the rule that shares no memory with r.
func (r PermissionRule) Clone() PermissionRule {
	r.Conditions = r.Conditions.Clone()
	return r
}
