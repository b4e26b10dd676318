// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

// Package memstore is an in-memory implementation of every decision
// collaborator. It backs fixtures, the CLI and tests.
package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/meriter/meriter/internal/decision/facts"
	"github.com/meriter/meriter/internal/decision/types"
)

// Store holds users, communities, memberships and resources. Team
// memberships are derived from roles held in team-type communities.
type Store struct {
	mu          sync.RWMutex
	users       map[string]types.User
	communities map[string]*types.Community
	roles       map[string]map[string]types.Role // community id -> user id -> role
	resources   map[types.TargetKind]map[string]types.ResourceFacts
}

// Compile-time checks that Store implements the collaborator interfaces.
var (
	_ facts.UserReader      = (*Store)(nil)
	_ facts.RoleResolver    = (*Store)(nil)
	_ facts.CommunityReader = (*Store)(nil)
	_ facts.TeamDirectory   = (*Store)(nil)
)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:       make(map[string]types.User),
		communities: make(map[string]*types.Community),
		roles:       make(map[string]map[string]types.Role),
		resources:   make(map[types.TargetKind]map[string]types.ResourceFacts),
	}
}

func key(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// PutUser adds or replaces a user. An empty id is replaced with a new one.
func (s *Store) PutUser(u types.User) types.User {
	if strings.TrimSpace(u.ID) == "" {
		u.ID = NewID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[key(u.ID)] = u
	return u
}

// PutCommunity adds or replaces a community. An empty id is replaced with a
// new one. The store keeps its own copy.
func (s *Store) PutCommunity(c *types.Community) *types.Community {
	stored := c.Clone()
	if strings.TrimSpace(stored.ID) == "" {
		stored.ID = NewID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.communities[key(stored.ID)] = stored
	return stored.Clone()
}

// SetRole grants userID role in communityID. RoleNone removes the membership.
func (s *Store) SetRole(userID, communityID string, role types.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ck, uk := key(communityID), key(userID)
	if role == types.RoleNone {
		delete(s.roles[ck], uk)
		return
	}
	if s.roles[ck] == nil {
		s.roles[ck] = make(map[string]types.Role)
	}
	s.roles[ck][uk] = role
}

// PutResource adds or replaces a publication, comment or poll. An empty id
// is replaced with a new one.
func (s *Store) PutResource(kind types.TargetKind, res types.ResourceFacts) types.ResourceFacts {
	if strings.TrimSpace(res.ID) == "" {
		res.ID = NewID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resources[kind] == nil {
		s.resources[kind] = make(map[string]types.ResourceFacts)
	}
	s.resources[kind][key(res.ID)] = res
	return res
}

// GetUser implements facts.UserReader.
func (s *Store) GetUser(_ context.Context, id string) (types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[key(id)]
	if !ok {
		return types.User{}, types.NotFound("user", id)
	}
	return u, nil
}

// GetUserRoleInCommunity implements facts.RoleResolver.
func (s *Store) GetUserRoleInCommunity(_ context.Context, userID, communityID string) (types.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[key(communityID)][key(userID)]
	if !ok {
		return types.RoleNone, types.NotFound("membership", userID+"@"+communityID)
	}
	return role, nil
}

// GetCommunity implements facts.CommunityReader.
func (s *Store) GetCommunity(_ context.Context, id string) (*types.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.communities[key(id)]
	if !ok {
		return nil, types.NotFound("community", id)
	}
	return c.Clone(), nil
}

// FindByTypeTag implements facts.CommunityReader. When several communities
// carry tag, the one with the smallest id wins.
func (s *Store) FindByTypeTag(_ context.Context, tag types.CommunityTypeTag) (*types.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *types.Community
	for _, c := range s.communities {
		if c.Type() != tag.Normalize() {
			continue
		}
		if found == nil || c.ID < found.ID {
			found = c
		}
	}
	if found == nil {
		return nil, types.NotFound("community", string(tag))
	}
	return found.Clone(), nil
}

// TeamCommunities implements facts.TeamDirectory. Ids are sorted.
func (s *Store) TeamCommunities(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	uk := key(userID)
	for ck, members := range s.roles {
		c, ok := s.communities[ck]
		if !ok || c.Type() != types.TypeTeam {
			continue
		}
		if _, member := members[uk]; member {
			out = append(out, c.ID)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Resolver returns the resource resolver for kind.
func (s *Store) Resolver(kind types.TargetKind) facts.ResourceResolver {
	return facts.ResourceResolverFunc(func(_ context.Context, id string) (types.ResourceFacts, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		res, ok := s.resources[kind][key(id)]
		if !ok {
			return types.ResourceFacts{}, types.NotFound(string(kind), id)
		}
		return res, nil
	})
}

// Sources returns the store wired as every collaborator.
func (s *Store) Sources() facts.Sources {
	return facts.Sources{
		Users:       s,
		Roles:       s,
		Communities: s,
		Teams:       s,
		Resources: map[types.TargetKind]facts.ResourceResolver{
			types.TargetPublication: s.Resolver(types.TargetPublication),
			types.TargetComment:     s.Resolver(types.TargetComment),
			types.TargetPoll:        s.Resolver(types.TargetPoll),
		},
	}
}

// Communities returns copies of every community, sorted by id.
func (s *Store) Communities() []*types.Community {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Community, 0, len(s.communities))
	for _, c := range s.communities {
		out = append(out, c.Clone())
	}
	slices.SortFunc(out, func(a, b *types.Community) int { return strings.Compare(a.ID, b.ID) })
	return out
}
