// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

// Package facts assembles the DecisionContext for a (user, resource) pair
// from narrow read-only collaborators.
//
// Collaborators signal a missing entity with a NOT_FOUND error (see
// types.NotFound). Missing entities become absent facts, which the factors
// treat as a denial; any other error aborts the build.
package facts

import (
	"context"

	"github.com/meriter/meriter/internal/decision/types"
)

// UserReader loads platform users.
type UserReader interface {
	GetUser(ctx context.Context, id string) (types.User, error)
}

// RoleResolver resolves a user's role inside one community. It returns
// RoleNone or a NOT_FOUND error when the user holds no role there.
type RoleResolver interface {
	GetUserRoleInCommunity(ctx context.Context, userID, communityID string) (types.Role, error)
}

// CommunityReader loads communities.
type CommunityReader interface {
	GetCommunity(ctx context.Context, id string) (*types.Community, error)
	// FindByTypeTag returns the single community carrying tag.
	FindByTypeTag(ctx context.Context, tag types.CommunityTypeTag) (*types.Community, error)
}

// TeamDirectory lists the team-type communities a user belongs to.
type TeamDirectory interface {
	TeamCommunities(ctx context.Context, userID string) ([]string, error)
}

// ResourceResolver loads the facts of one kind of resource.
type ResourceResolver interface {
	Resolve(ctx context.Context, id string) (types.ResourceFacts, error)
}

// ResourceResolverFunc adapts a function to ResourceResolver.
type ResourceResolverFunc func(ctx context.Context, id string) (types.ResourceFacts, error)

// Resolve calls f.
func (f ResourceResolverFunc) Resolve(ctx context.Context, id string) (types.ResourceFacts, error) {
	return f(ctx, id)
}

// Sources bundles the collaborators the Builder reads from.
type Sources struct {
	Users       UserReader
	Roles       RoleResolver
	Communities CommunityReader
	Teams       TeamDirectory
	Resources   map[types.TargetKind]ResourceResolver
}
