// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

// Package factor holds the single-purpose decision functions the engine
// composes: the role hierarchy permission gate, the two currency factors and
// their composer, and merit destination routing.
package factor

import (
	"github.com/meriter/meriter/internal/decision/rules"
	"github.com/meriter/meriter/internal/decision/types"
)

// RoleHierarchy is the binary permission gate. It is a pure function of its
// inputs and safe for concurrent use.
type RoleHierarchy struct{}

// NewRoleHierarchy creates the permission gate.
func NewRoleHierarchy() RoleHierarchy {
	return RoleHierarchy{}
}

// Evaluate decides whether the requester described by dc may perform action.
// Missing facts deny; this never returns an error.
func (RoleHierarchy) Evaluate(dc types.DecisionContext, action types.Action) types.Decision {
	// Step 1: superadmin bypass
	if dc.IsSuperadmin() {
		return types.Allowed(types.CodeSuperadmin, "superadmin bypass")
	}

	// Step 2: community, resource and role must exist
	if dc.Community == nil {
		return types.Denied(types.CodeNoCommunity, "community not found")
	}
	if action.RequiresResource() && dc.ResourceMissing {
		return types.Denied(types.CodeNoResource, "resource not found")
	}
	role := dc.RequesterRole
	if !role.Valid() {
		return types.Denied(types.CodeNoRole, "no role in community")
	}

	// Step 3: effective rule lookup
	rule, ok := rules.Effective(dc.Community).Lookup(role, action)
	if !ok {
		return types.Denied(types.CodeNoRule, "no matching rule")
	}
	cond := rule.Conditions
	if cond == nil {
		cond = &types.ConditionSet{}
	}

	// Step 4: self-vote ban outranks the rule's own allowed flag
	if action == types.ActionVote && cond.CanVoteForOwnPosts.IsDeny() && dc.IsEffectiveBeneficiary {
		return types.Denied(types.CodeVoteIsAuthor, "cannot vote for own posts")
	}

	// Step 5
	if !rule.Allowed {
		return types.Denied(types.CodeRuleDenied, "rule denies action")
	}

	voting := rules.EffectiveVoting(dc.Community)

	// Step 6: vote gates. not-own is enforced as a currency constraint, not here.
	if action == types.ActionVote {
		if voting.VotingRestriction == types.VotingRestrictionNotSameTeam && dc.SharesTeam() {
			return types.Denied(types.CodeVoteSameTeam, "cannot vote for a teammate")
		}
		if dc.Target.Kind == types.TargetComment && !dc.CommentVotingEnabled {
			return types.Denied(types.CodeVoteCommentDisabled, "voting on comments is disabled")
		}
	}

	// Step 7: team communities let members vote; self-votes are a currency matter
	if dc.Community.Type() == types.TypeTeam && action == types.ActionVote {
		if !dc.IsTeamMember {
			return types.Denied(types.CodeVoteNotTeamMember, "voter is not a team member")
		}
		return types.Allowed(types.CodeRuleAllowed, "team member may vote")
	}

	// Step 8: remaining conditions
	if d, failed := checkConditions(dc, action, role, cond); failed {
		return d
	}

	// Step 9: participants only touch their own content
	if d, failed := checkAuthorship(dc, action, role, voting); failed {
		return d
	}

	return types.Allowed(types.CodeRuleAllowed, "rule grants action")
}

func checkConditions(dc types.DecisionContext, action types.Action, role types.Role, cond *types.ConditionSet) (types.Decision, bool) {
	if cond.RequiresTeamMembership.IsAllow() && !dc.HasTeamMembership && !dc.IsTeamMember {
		return types.Denied(types.CodeTeamRequired, "requires team membership"), true
	}
	if cond.TeamOnly.IsAllow() && !dc.IsTeamMember {
		return types.Denied(types.CodeTeamOnly, "only team members may do this"), true
	}
	if cond.OnlyTeamLead.IsAllow() && !role.AtLeast(types.RoleLead) {
		return types.Denied(types.CodeLeadOnly, "only team leads may do this"), true
	}
	if action.IsEdit() && cond.CanEditAfterMinutes != nil {
		if window := *cond.CanEditAfterMinutes; window > 0 && dc.ResourceAgeMinutes >= float64(window) {
			return types.Denied(types.CodeEditWindowClosed, "edit window has closed"), true
		}
	}
	if action.IsDelete() && cond.CanDeleteWithVotes.IsDeny() && dc.HasVotes {
		return types.Denied(types.CodeDeleteHasVotes, "cannot delete content that has votes"), true
	}
	if action.IsDelete() && cond.CanDeleteWithComments.IsDeny() && dc.HasComments {
		return types.Denied(types.CodeDeleteHasComments, "cannot delete content that has comments"), true
	}
	if cond.IsHidden.IsAllow() && dc.Community.Hidden && !dc.IsTeamMember {
		return types.Denied(types.CodeHidden, "community is hidden"), true
	}
	if action == types.ActionVote && cond.ParticipantsCannotVoteForLead.IsAllow() &&
		role == types.RoleParticipant && (dc.AuthorRole == types.RoleLead || dc.BeneficiaryRole == types.RoleLead) {
		return types.Denied(types.CodeVoteForLead, "participants cannot vote for a lead"), true
	}
	return types.Decision{}, false
}

func checkAuthorship(dc types.DecisionContext, action types.Action, role types.Role, voting types.VotingSettings) (types.Decision, bool) {
	if role != types.RoleParticipant || dc.IsAuthor || !(action.IsEdit() || action.IsDelete()) {
		return types.Decision{}, false
	}
	if action == types.ActionEditPublication && voting.AllowEditByOthers {
		return types.Decision{}, false
	}
	return types.Denied(types.CodeNotAuthor, "only the author may change this content"), true
}
