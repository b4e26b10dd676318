// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

// Package rules resolves effective permission rules and community settings.
//
// Rule tables are never cached: every read derives the table from the base
// matrix, the community type overrides and the community's stored overrides.
package rules

import "github.com/meriter/meriter/internal/decision/types"

// BaseMatrix returns the default rule for every (role, action) key, ordered by
// role rank (highest first) and then action declaration order.
func BaseMatrix() []types.PermissionRule {
	actions := types.AllActions()
	out := make([]types.PermissionRule, 0, len(actions)*3)
	for _, a := range actions {
		out = append(out, types.PermissionRule{Role: types.RoleSuperadmin, Action: a, Allowed: true})
	}
	for _, a := range actions {
		out = append(out, types.PermissionRule{Role: types.RoleLead, Action: a, Allowed: true})
	}
	for _, a := range actions {
		out = append(out, participantDefault(a))
	}
	return out
}

func participantDefault(a types.Action) types.PermissionRule {
	rule := types.PermissionRule{Role: types.RoleParticipant, Action: a, Allowed: true}
	switch a {
	case types.ActionDeletePublication:
		rule.Conditions = &types.ConditionSet{
			CanDeleteWithVotes:    types.Deny,
			CanDeleteWithComments: types.Deny,
		}
	case types.ActionDeleteComment, types.ActionDeletePoll:
		rule.Conditions = &types.ConditionSet{CanDeleteWithVotes: types.Deny}
	}
	return rule
}

// TypeOverrides returns the rules a community type replaces in the base matrix.
// Overrides only ever replace existing keys.
func TypeOverrides(tag types.CommunityTypeTag) []types.PermissionRule {
	switch tag.Normalize() {
	case types.TypeFutureVision:
		return []types.PermissionRule{
			{
				Role: types.RoleParticipant, Action: types.ActionPostPublication, Allowed: true,
				Conditions: &types.ConditionSet{RequiresTeamMembership: types.Allow},
			},
			{
				Role: types.RoleParticipant, Action: types.ActionVote, Allowed: true,
				Conditions: &types.ConditionSet{CanVoteForOwnPosts: types.Deny},
			},
		}
	case types.TypeMarathonOfGood:
		return []types.PermissionRule{
			{
				Role: types.RoleParticipant, Action: types.ActionVote, Allowed: true,
				Conditions: &types.ConditionSet{ParticipantsCannotVoteForLead: types.Allow},
			},
		}
	case types.TypeSupport:
		return []types.PermissionRule{
			{Role: types.RoleParticipant, Action: types.ActionCreatePoll, Allowed: false},
			{
				Role: types.RoleParticipant, Action: types.ActionEditPublication, Allowed: true,
				Conditions: &types.ConditionSet{CanEditAfterMinutes: types.Minutes(60)},
			},
		}
	case types.TypeTeam:
		return []types.PermissionRule{
			{
				Role: types.RoleParticipant, Action: types.ActionPostPublication, Allowed: true,
				Conditions: &types.ConditionSet{TeamOnly: types.Allow},
			},
			{
				Role: types.RoleParticipant, Action: types.ActionCreatePoll, Allowed: true,
				Conditions: &types.ConditionSet{OnlyTeamLead: types.Allow},
			},
			{
				Role: types.RoleParticipant, Action: types.ActionComment, Allowed: true,
				Conditions: &types.ConditionSet{TeamOnly: types.Allow},
			},
			{
				Role: types.RoleParticipant, Action: types.ActionViewCommunity, Allowed: true,
				Conditions: &types.ConditionSet{IsHidden: types.Allow},
			},
		}
	default:
		return nil
	}
}

// Resolve returns the default rule table for a community type: the base
// matrix with the type's overrides merged in.
func Resolve(tag types.CommunityTypeTag) []types.PermissionRule {
	return Merge(BaseMatrix(), TypeOverrides(tag))
}

// Effective returns the rule table of a community: its type defaults with the
// community's stored overrides merged on top. A nil community yields nil.
func Effective(c *types.Community) Table {
	if c == nil {
		return nil
	}
	return Table(Merge(Resolve(c.Type()), c.PermissionRules))
}
