// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package decisiontest

import "github.com/meriter/meriter/internal/decision/types"

// Community returns a community with the given id and type tag.
func Community(id string, tag types.CommunityTypeTag) *types.Community {
	return &types.Community{ID: id, Name: id, TypeTag: tag}
}

// VoteContext returns a context for requester voting up on a publication
// authored by author, as a participant of community.
func VoteContext(requester, author string, community *types.Community) types.DecisionContext {
	return types.DecisionContext{
		RequesterID:            requester,
		RequesterRole:          types.RoleParticipant,
		AuthorID:               author,
		AuthorRole:             types.RoleParticipant,
		BeneficiaryRole:        types.RoleParticipant,
		IsAuthor:               types.SameID(requester, author),
		IsEffectiveBeneficiary: types.SameID(requester, author),
		Action:                 types.ActionVote,
		Target:                 types.Target{Kind: types.TargetPublication, ID: "pub-1"},
		Direction:              types.DirectionUp,
		Community:              community,
	}
}

// ActionContext returns a context for requester performing action with role
// in community. Resource actions target "res-1" of the action's kind,
// authored by requester.
func ActionContext(requester string, role types.Role, action types.Action, community *types.Community) types.DecisionContext {
	dc := types.DecisionContext{
		RequesterID:   requester,
		RequesterRole: role,
		Action:        action,
		Target:        types.Target{Kind: action.TargetKind(), ID: "res-1"},
		Direction:     types.DirectionUp,
		Community:     community,
	}
	if action.RequiresResource() {
		dc.AuthorID = requester
		dc.AuthorRole = role
		dc.BeneficiaryRole = role
		dc.IsAuthor = true
		dc.IsEffectiveBeneficiary = true
	} else if community != nil {
		dc.Target.ID = community.ID
	}
	return dc
}
