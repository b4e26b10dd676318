// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package types

import (
	"strings"

	"github.com/samber/oops"
)

// Target identifies the resource an action is aimed at.
type Target struct {
	Kind TargetKind `json:"kind" yaml:"kind"`
	ID   string     `json:"id" yaml:"id"`
}

func (t Target) String() string {
	return string(t.Kind) + ":" + t.ID
}

// ParseTarget parses "kind:id".
func ParseTarget(s string) (Target, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || strings.TrimSpace(id) == "" {
		return Target{}, oops.Code(ErrCodeInvalidRequest).With("target", s).Errorf("target must be in 'kind:id' format")
	}
	k, err := ParseTargetKind(kind)
	if err != nil {
		return Target{}, err
	}
	return Target{Kind: k, ID: strings.TrimSpace(id)}, nil
}

// Intent carries request-side facts the resource cannot supply.
// PostType and IsProject, when set, override the resource's own values.
type Intent struct {
	Direction Direction `json:"direction,omitempty" yaml:"direction,omitempty"`
	PostType  string    `json:"postType,omitempty" yaml:"postType,omitempty"`
	IsProject bool      `json:"isProject,omitempty" yaml:"isProject,omitempty"`
}

// Request is a caller's question to the engine.
type Request struct {
	UserID      string
	CommunityID string
	Action      Action
	Target      Target
	Intent      Intent
}

// Validate rejects requests missing identifiers or naming unknown actions.
func (r Request) Validate() error {
	if strings.TrimSpace(r.UserID) == "" || strings.TrimSpace(r.CommunityID) == "" {
		return oops.Code(ErrCodeInvalidRequest).Errorf("user id and community id must be non-empty")
	}
	if !r.Action.Valid() {
		return oops.Code(ErrCodeInvalidRequest).With("action", r.Action).Errorf("unknown action %q", r.Action)
	}
	if r.Action.RequiresResource() && strings.TrimSpace(r.Target.ID) == "" {
		return oops.Code(ErrCodeInvalidRequest).With("action", r.Action).Errorf("action %s requires a target", r.Action)
	}
	return nil
}

// ResolvedTarget returns the target with its kind defaulted from the action.
func (r Request) ResolvedTarget() Target {
	t := r.Target
	if t.Kind == "" {
		t.Kind = r.Action.TargetKind()
	}
	if t.Kind == TargetCommunity && t.ID == "" {
		t.ID = r.CommunityID
	}
	return t
}

// ResourceFacts describe a publication, comment or poll.
type ResourceFacts struct {
	ID            string
	CommunityID   string
	AuthorID      string
	BeneficiaryID string
	CreatedAt     int64 // unix seconds
	VoteCount     int
	CommentCount  int
	PostType      string
	IsProject     bool
}

// DecisionContext is the fact sheet every factor reads. It is built once per
// decision and passed by value; slices are private copies and must not be
// modified by factors.
type DecisionContext struct {
	RequesterID         string
	RequesterGlobalRole Role
	RequesterRole       Role

	AuthorID      string
	AuthorRole    Role
	BeneficiaryID string
	// BeneficiaryRole is the community role of the effective beneficiary.
	BeneficiaryRole Role

	IsAuthor               bool
	IsBeneficiary          bool
	IsEffectiveBeneficiary bool

	// IsTeamMember is membership in this community when it is a team community.
	IsTeamMember bool
	// HasTeamMembership is membership in any team community.
	HasTeamMembership     bool
	SharedTeamCommunities []string

	ResourceAgeMinutes float64
	HasVotes           bool
	HasComments        bool
	PostType           string
	IsProject          bool

	Action          Action
	Target          Target
	Direction       Direction
	Community       *Community
	ResourceMissing bool

	CommentVotingEnabled bool
}

// IsSuperadmin reports whether the requester holds the global superadmin role.
func (dc DecisionContext) IsSuperadmin() bool {
	return dc.RequesterGlobalRole == RoleSuperadmin
}

// EffectiveBeneficiaryID returns the beneficiary when set and distinct from
// the author, otherwise the author.
func (dc DecisionContext) EffectiveBeneficiaryID() string {
	return EffectiveBeneficiary(dc.AuthorID, dc.BeneficiaryID)
}

// SharesTeam reports whether requester and beneficiary share a team community.
func (dc DecisionContext) SharesTeam() bool {
	return len(dc.SharedTeamCommunities) > 0
}

// IsProjectContent reports whether the target is project content.
func (dc DecisionContext) IsProjectContent() bool {
	return dc.IsProject || dc.PostType == PostTypeProject
}

// EffectiveBeneficiary returns beneficiary if it is set and differs from
// author, otherwise author.
func EffectiveBeneficiary(authorID, beneficiaryID string) string {
	if strings.TrimSpace(beneficiaryID) != "" && !SameID(authorID, beneficiaryID) {
		return beneficiaryID
	}
	return authorID
}

// SameID compares two identifiers ignoring case and surrounding whitespace.
// Empty identifiers never match.
func SameID(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
