// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

// Package types defines the values exchanged by the permission and currency
// decision engine: actions, roles, rules, community settings, decision contexts
// and factor results.
package types

import (
	"strings"

	"github.com/samber/oops"
)

// Action is a verb on a resource kind. The set is closed; adding an action
// requires adding matching default rules.
type Action string

// Action constants in declaration order.
const (
	ActionPostPublication   Action = "post_publication"
	ActionCreatePoll        Action = "create_poll"
	ActionEditPublication   Action = "edit_publication"
	ActionDeletePublication Action = "delete_publication"
	ActionVote              Action = "vote"
	ActionComment           Action = "comment"
	ActionEditComment       Action = "edit_comment"
	ActionDeleteComment     Action = "delete_comment"
	ActionEditPoll          Action = "edit_poll"
	ActionDeletePoll        Action = "delete_poll"
	ActionViewCommunity     Action = "view_community"
)

var allActions = [...]Action{
	ActionPostPublication,
	ActionCreatePoll,
	ActionEditPublication,
	ActionDeletePublication,
	ActionVote,
	ActionComment,
	ActionEditComment,
	ActionDeleteComment,
	ActionEditPoll,
	ActionDeletePoll,
	ActionViewCommunity,
}

// AllActions returns every action in declaration order.
func AllActions() []Action {
	out := make([]Action, len(allActions))
	copy(out, allActions[:])
	return out
}

// Ordinal returns the declaration index of the action, or -1 if unknown.
func (a Action) Ordinal() int {
	for i, known := range allActions {
		if known == a {
			return i
		}
	}
	return -1
}

// Valid reports whether a is one of the declared actions.
func (a Action) Valid() bool {
	return a.Ordinal() >= 0
}

func (a Action) String() string {
	return string(a)
}

// ParseAction converts a string into an Action.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", oops.Code(ErrCodeInvalidRequest).With("action", s).Errorf("unknown action %q", s)
	}
	return a, nil
}

// TargetKind returns the resource kind the action operates on.
// Actions that create content or view the community target the community itself.
// Vote may also target a comment; callers set the target kind explicitly for that case.
func (a Action) TargetKind() TargetKind {
	switch a {
	case ActionEditPublication, ActionDeletePublication, ActionVote, ActionComment:
		return TargetPublication
	case ActionEditComment, ActionDeleteComment:
		return TargetComment
	case ActionEditPoll, ActionDeletePoll:
		return TargetPoll
	default:
		return TargetCommunity
	}
}

// RequiresResource reports whether the action needs resource facts to be decided.
func (a Action) RequiresResource() bool {
	return a.TargetKind() != TargetCommunity
}

// IsEdit reports whether the action edits existing content.
func (a Action) IsEdit() bool {
	return a == ActionEditPublication || a == ActionEditComment || a == ActionEditPoll
}

// IsDelete reports whether the action deletes existing content.
func (a Action) IsDelete() bool {
	return a == ActionDeletePublication || a == ActionDeleteComment || a == ActionDeletePoll
}

// Role is a requester's tier within a community.
type Role string

// Role constants, highest first.
const (
	RoleSuperadmin  Role = "superadmin"
	RoleLead        Role = "lead"
	RoleParticipant Role = "participant"
	RoleNone        Role = ""
)

// Rank orders roles: superadmin 3, lead 2, participant 1, none 0.
func (r Role) Rank() int {
	switch r {
	case RoleSuperadmin:
		return 3
	case RoleLead:
		return 2
	case RoleParticipant:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r ranks at or above other.
func (r Role) AtLeast(other Role) bool {
	return r.Rank() >= other.Rank()
}

// Valid reports whether r is a concrete role.
func (r Role) Valid() bool {
	return r.Rank() > 0
}

func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}

// ParseRole converts a string into a Role. Empty and "none" map to RoleNone.
func ParseRole(s string) (Role, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", "none":
		return RoleNone, nil
	case string(RoleSuperadmin), string(RoleLead), string(RoleParticipant):
		return Role(v), nil
	default:
		return RoleNone, oops.Code(ErrCodeInvalidRequest).With("role", s).Errorf("unknown role %q", s)
	}
}

// RolesByRank returns the concrete roles, highest first.
func RolesByRank() []Role {
	return []Role{RoleSuperadmin, RoleLead, RoleParticipant}
}

// TargetKind identifies what an action is aimed at.
type TargetKind string

// TargetKind constants.
const (
	TargetCommunity   TargetKind = "community"
	TargetPublication TargetKind = "publication"
	TargetComment     TargetKind = "comment"
	TargetPoll        TargetKind = "poll"
)

// ParseTargetKind converts a string into a TargetKind.
func ParseTargetKind(s string) (TargetKind, error) {
	switch k := TargetKind(strings.ToLower(strings.TrimSpace(s))); k {
	case TargetCommunity, TargetPublication, TargetComment, TargetPoll:
		return k, nil
	default:
		return "", oops.Code(ErrCodeInvalidRequest).With("target_kind", s).Errorf("unknown target kind %q", s)
	}
}

// Direction is the sign of a vote.
type Direction string

// Direction constants. The zero value is treated as an upvote.
const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// PostTypeProject marks project publications, which only accept wallet currency.
const PostTypeProject = "project"
