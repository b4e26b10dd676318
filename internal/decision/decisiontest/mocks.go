// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

// Package decisiontest provides test doubles for the decision engine's
// collaborators and factors.
package decisiontest

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/meriter/meriter/internal/decision/facts"
	"github.com/meriter/meriter/internal/decision/types"
)

// MockUserReader is a testify mock of facts.UserReader.
type MockUserReader struct {
	mock.Mock
}

// GetUser implements facts.UserReader.
func (m *MockUserReader) GetUser(ctx context.Context, id string) (types.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.User), args.Error(1)
}

// MockRoleResolver is a testify mock of facts.RoleResolver.
type MockRoleResolver struct {
	mock.Mock
}

// GetUserRoleInCommunity implements facts.RoleResolver.
func (m *MockRoleResolver) GetUserRoleInCommunity(ctx context.Context, userID, communityID string) (types.Role, error) {
	args := m.Called(ctx, userID, communityID)
	return args.Get(0).(types.Role), args.Error(1)
}

// MockCommunityReader is a testify mock of facts.CommunityReader.
type MockCommunityReader struct {
	mock.Mock
}

// GetCommunity implements facts.CommunityReader.
func (m *MockCommunityReader) GetCommunity(ctx context.Context, id string) (*types.Community, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*types.Community)
	return c, args.Error(1)
}

// FindByTypeTag implements facts.CommunityReader.
func (m *MockCommunityReader) FindByTypeTag(ctx context.Context, tag types.CommunityTypeTag) (*types.Community, error) {
	args := m.Called(ctx, tag)
	c, _ := args.Get(0).(*types.Community)
	return c, args.Error(1)
}

// MockTeamDirectory is a testify mock of facts.TeamDirectory.
type MockTeamDirectory struct {
	mock.Mock
}

// TeamCommunities implements facts.TeamDirectory.
func (m *MockTeamDirectory) TeamCommunities(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

// MockResourceResolver is a testify mock of facts.ResourceResolver.
type MockResourceResolver struct {
	mock.Mock
}

// Resolve implements facts.ResourceResolver.
func (m *MockResourceResolver) Resolve(ctx context.Context, id string) (types.ResourceFacts, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.ResourceFacts), args.Error(1)
}

// MockSocialEvaluator is a testify mock of the social currency factor.
type MockSocialEvaluator struct {
	mock.Mock
}

// Evaluate implements factor.SocialEvaluator.
func (m *MockSocialEvaluator) Evaluate(dc types.DecisionContext) types.SocialConstraint {
	args := m.Called(dc)
	return args.Get(0).(types.SocialConstraint)
}

// MockCurrencyEvaluator is a testify mock of the context currency factor.
type MockCurrencyEvaluator struct {
	mock.Mock
}

// Evaluate implements factor.CurrencyEvaluator.
func (m *MockCurrencyEvaluator) Evaluate(dc types.DecisionContext) (types.CurrencyMode, error) {
	args := m.Called(dc)
	return args.Get(0).(types.CurrencyMode), args.Error(1)
}

// Mocks bundles one mock per collaborator.
type Mocks struct {
	Users        *MockUserReader
	Roles        *MockRoleResolver
	Communities  *MockCommunityReader
	Teams        *MockTeamDirectory
	Publications *MockResourceResolver
	Comments     *MockResourceResolver
	Polls        *MockResourceResolver
}

// NewMocks creates a fresh set of collaborator mocks.
func NewMocks() *Mocks {
	return &Mocks{
		Users:        &MockUserReader{},
		Roles:        &MockRoleResolver{},
		Communities:  &MockCommunityReader{},
		Teams:        &MockTeamDirectory{},
		Publications: &MockResourceResolver{},
		Comments:     &MockResourceResolver{},
		Polls:        &MockResourceResolver{},
	}
}

// Sources wires the mocks as collaborators.
func (m *Mocks) Sources() facts.Sources {
	return facts.Sources{
		Users:       m.Users,
		Roles:       m.Roles,
		Communities: m.Communities,
		Teams:       m.Teams,
		Resources: map[types.TargetKind]facts.ResourceResolver{
			types.TargetPublication: m.Publications,
			types.TargetComment:     m.Comments,
			types.TargetPoll:        m.Polls,
		},
	}
}

// AssertExpectations asserts every mock's expectations.
func (m *Mocks) AssertExpectations(t mock.TestingT) {
	m.Users.AssertExpectations(t)
	m.Roles.AssertExpectations(t)
	m.Communities.AssertExpectations(t)
	m.Teams.AssertExpectations(t)
	m.Publications.AssertExpectations(t)
	m.Comments.AssertExpectations(t)
	m.Polls.AssertExpectations(t)
}

// FixedClock returns a clock that always reports now.
func FixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}
