// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package decision_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/meriter/meriter/internal/decision"
	"github.com/meriter/meriter/internal/decision/factor"
	"github.com/meriter/meriter/internal/decision/facts"
	"github.com/meriter/meriter/internal/decision/types"
	"github.com/meriter/meriter/internal/memstore"
	"github.com/meriter/meriter/pkg/errutil"
)

// world seeds a store with a custom community, a future-vision pool and a
// marathon-of-good community, each with a lead and two participants.
func world(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New()
	s.PutUser(types.User{ID: "admin", GlobalRole: types.RoleSuperadmin})
	for _, id := range []string{"lead", "alice", "bob"} {
		s.PutUser(types.User{ID: id})
	}
	for _, c := range []*types.Community{
		{ID: "custom", TypeTag: types.TypeCustom},
		{ID: "fv", TypeTag: types.TypeFutureVision},
		{ID: "mog", TypeTag: types.TypeMarathonOfGood},
	} {
		s.PutCommunity(c)
		s.SetRole("lead", c.ID, types.RoleLead)
		s.SetRole("alice", c.ID, types.RoleParticipant)
		s.SetRole("bob", c.ID, types.RoleParticipant)
	}
	s.PutResource(types.TargetPublication, types.ResourceFacts{ID: "alice-post", CommunityID: "custom", AuthorID: "alice"})
	s.PutResource(types.TargetPublication, types.ResourceFacts{ID: "bob-post", CommunityID: "custom", AuthorID: "bob", VoteCount: 1})
	s.PutResource(types.TargetPublication, types.ResourceFacts{ID: "mog-post", CommunityID: "mog", AuthorID: "bob"})
	return s
}

func vote(user, community, post string) types.Request {
	return types.Request{
		UserID:      user,
		CommunityID: community,
		Action:      types.ActionVote,
		Target:      types.Target{Kind: types.TargetPublication, ID: post},
	}
}

type mockComposer struct {
	mock.Mock
}

func (m *mockComposer) Compose(dc types.DecisionContext) (types.CurrencyMode, error) {
	args := m.Called(dc)
	return args.Get(0).(types.CurrencyMode), args.Error(1)
}

type failingBuilder struct {
	err error
}

func (b failingBuilder) Build(_ context.Context, req types.Request) (types.DecisionContext, error) {
	return types.DecisionContext{RequesterID: req.UserID}, b.err
}

func TestEngine_DecideVoteIncludesCurrency(t *testing.T) {
	e := decision.NewEngine(world(t).Sources(), facts.Options{})

	before := testutil.ToFloat64(decision.CurrencyModesCounter("quota-and-wallet"))
	out, err := e.Decide(context.Background(), vote("alice", "custom", "bob-post"))
	require.NoError(t, err)
	assert.True(t, out.Permission.IsAllowed())
	require.NotNil(t, out.Currency)
	assert.Equal(t, types.QuotaAndWallet(factor.ReasonDefaultCurrency), *out.Currency)
	assert.Equal(t, before+1, testutil.ToFloat64(decision.CurrencyModesCounter("quota-and-wallet")))
}

func TestEngine_DecideNonVoteSkipsCurrency(t *testing.T) {
	composer := &mockComposer{}
	e := decision.NewEngine(world(t).Sources(), facts.Options{}, decision.WithComposer(composer))

	out, err := e.Decide(context.Background(), types.Request{
		UserID: "alice", CommunityID: "custom", Action: types.ActionPostPublication,
	})
	require.NoError(t, err)
	assert.True(t, out.Permission.IsAllowed())
	assert.Nil(t, out.Currency)
	composer.AssertNotCalled(t, "Compose", mock.Anything)
}

func TestEngine_DeniedPermissionSkipsCurrency(t *testing.T) {
	composer := &mockComposer{}
	e := decision.NewEngine(world(t).Sources(), facts.Options{}, decision.WithComposer(composer))

	before := testutil.ToFloat64(decision.DecisionsCounter("vote", "deny"))
	out, err := e.EvaluateCurrencyMode(context.Background(), vote("mallory", "custom", "bob-post"))
	require.NoError(t, err)
	assert.False(t, out.Permission.IsAllowed())
	assert.Equal(t, types.CodeNoRole, out.Permission.Code)
	assert.Nil(t, out.Currency)
	composer.AssertNotCalled(t, "Compose", mock.Anything)
	assert.Equal(t, before+1, testutil.ToFloat64(decision.DecisionsCounter("vote", "deny")))
}

func TestEngine_EvaluateCurrencyModeSelfVote(t *testing.T) {
	e := decision.NewEngine(world(t).Sources(), facts.Options{})

	out, err := e.EvaluateCurrencyMode(context.Background(), vote("alice", "custom", "alice-post"))
	require.NoError(t, err)
	assert.True(t, out.Permission.IsAllowed())
	require.NotNil(t, out.Currency)
	assert.Equal(t, types.WalletOnly(factor.ReasonSelfVote), *out.Currency)
}

func TestEngine_ComposerErrorIsReturned(t *testing.T) {
	composer := &mockComposer{}
	composer.On("Compose", mock.Anything).Return(types.CurrencyMode{}, oops.Code("BOOM").Errorf("boom"))
	e := decision.NewEngine(world(t).Sources(), facts.Options{}, decision.WithComposer(composer))

	out, err := e.Decide(context.Background(), vote("alice", "custom", "bob-post"))
	require.Error(t, err)
	assert.True(t, out.Permission.IsAllowed())
	assert.Nil(t, out.Currency)
}

func TestEngine_InvalidCurrencyModeIsRejected(t *testing.T) {
	composer := &mockComposer{}
	composer.On("Compose", mock.Anything).Return(types.CurrencyMode{}, nil)
	e := decision.NewEngine(world(t).Sources(), facts.Options{}, decision.WithComposer(composer))

	_, err := e.Decide(context.Background(), vote("alice", "custom", "bob-post"))
	assert.ErrorContains(t, err, "invariant")
}

func TestEngine_InvalidRequest(t *testing.T) {
	e := decision.NewEngine(world(t).Sources(), facts.Options{})

	d, err := e.CanPerformAction(context.Background(), types.Request{UserID: "alice", Action: types.ActionVote})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, types.ErrCodeInvalidRequest)
	assert.False(t, d.IsAllowed())
	assert.Equal(t, types.CodeInvalidRequest, d.Code)
}

func TestEngine_BuilderErrorDenies(t *testing.T) {
	e := decision.NewEngine(facts.Sources{}, facts.Options{},
		decision.WithBuilder(failingBuilder{err: errors.New("database down")}))

	d, err := e.CanPerformAction(context.Background(), vote("alice", "custom", "bob-post"))
	require.Error(t, err)
	assert.False(t, d.IsAllowed())
	assert.Equal(t, types.CodeLookupFailed, d.Code)

	_, err = e.EvaluateMeritDestination(context.Background(), vote("alice", "custom", "bob-post"), 5)
	assert.Error(t, err)
}

func TestEngine_CancelledContextDenies(t *testing.T) {
	e := decision.NewEngine(world(t).Sources(), facts.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := e.CanPerformAction(ctx, vote("alice", "custom", "bob-post"))
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, d.IsAllowed())
}

func TestEngine_EvaluateMeritDestination(t *testing.T) {
	e := decision.NewEngine(world(t).Sources(), facts.Options{})

	before := testutil.ToFloat64(decision.MeritRoutesCounter(string(types.RouteFutureVision)))
	got, err := e.EvaluateMeritDestination(context.Background(), vote("alice", "mog", "mog-post"), 50)
	require.NoError(t, err)
	assert.Equal(t, types.RouteFutureVision, got.Route)
	assert.Equal(t, []types.Destination{{
		RecipientUserID: "bob",
		CommunityID:     "fv",
		Amount:          50,
		CurrencyLabel:   "merits",
	}}, got.Destinations)
	assert.Equal(t, before+1, testutil.ToFloat64(decision.MeritRoutesCounter(string(types.RouteFutureVision))))
}

func TestEngine_Batch(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := decision.NewEngine(world(t).Sources(), facts.Options{}, decision.WithBatchConcurrency(2))
	req := types.Request{UserID: "alice", CommunityID: "custom", Action: types.ActionDeletePublication}

	got, err := e.CanPerformActionBatch(context.Background(), req, []types.Target{
		{Kind: types.TargetPublication, ID: "alice-post"},
		{Kind: types.TargetPublication, ID: "bob-post"},
		{Kind: types.TargetPublication, ID: "ghost-post"},
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got["alice-post"].IsAllowed())
	assert.Equal(t, types.CodeDeleteHasVotes, got["bob-post"].Code)
	assert.Equal(t, types.CodeNoResource, got["ghost-post"].Code)
}

func TestEngine_BatchRejectsIDSharedAcrossKinds(t *testing.T) {
	s := world(t)
	s.PutResource(types.TargetPublication, types.ResourceFacts{ID: "x", CommunityID: "custom", AuthorID: "bob"})
	s.PutResource(types.TargetComment, types.ResourceFacts{ID: "x", CommunityID: "custom", AuthorID: "alice"})
	e := decision.NewEngine(s.Sources(), facts.Options{})
	req := types.Request{UserID: "alice", CommunityID: "custom", Action: types.ActionEditComment}

	got, err := e.CanPerformActionBatch(context.Background(), req, []types.Target{
		{Kind: types.TargetComment, ID: "x"},
		{Kind: types.TargetPublication, ID: "x"},
	})
	require.Error(t, err)
	assert.Nil(t, got)
	errutil.AssertErrorCode(t, err, types.ErrCodeInvalidRequest)
	errutil.AssertErrorContext(t, err, "target_id", "x")

	got, err = e.CanPerformActionBatch(context.Background(), req, []types.Target{
		{Kind: types.TargetComment, ID: "x"},
		{Kind: types.TargetComment, ID: "x"},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got["x"].IsAllowed(), "alice edits her own comment: %v", got["x"])
}

func TestEngine_VoteForLeadBeneficiaryDenied(t *testing.T) {
	s := world(t)
	s.PutResource(types.TargetPublication, types.ResourceFacts{
		ID: "for-lead", CommunityID: "mog", AuthorID: "alice", BeneficiaryID: "lead",
	})
	e := decision.NewEngine(s.Sources(), facts.Options{})

	d, err := e.CanPerformAction(context.Background(), vote("bob", "mog", "for-lead"))
	require.NoError(t, err)
	assert.Equal(t, types.CodeVoteForLead, d.Code, d.Reason)
}

// countingBuilder records the peak number of concurrent builds.
type countingBuilder struct {
	inner   decision.ContextBuilder
	current atomic.Int32
	peak    atomic.Int32
}

func (b *countingBuilder) Build(ctx context.Context, req types.Request) (types.DecisionContext, error) {
	n := b.current.Add(1)
	defer b.current.Add(-1)
	for {
		peak := b.peak.Load()
		if n <= peak || b.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return b.inner.Build(ctx, req)
}

func TestEngine_BatchRespectsConcurrencyLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := world(t)
	builder := &countingBuilder{inner: facts.NewBuilder(s.Sources(), facts.Options{})}
	e := decision.NewEngine(s.Sources(), facts.Options{},
		decision.WithBuilder(builder),
		decision.WithBatchConcurrency(3))

	targets := make([]types.Target, 20)
	for i := range targets {
		targets[i] = types.Target{Kind: types.TargetPublication, ID: memstore.NewID()}
	}
	got, err := e.CanPerformActionBatch(context.Background(), vote("alice", "custom", ""), targets)
	require.NoError(t, err)
	assert.Len(t, got, len(targets))
	assert.LessOrEqual(t, builder.peak.Load(), int32(3))
}

func TestEngine_BatchCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := decision.NewEngine(world(t).Sources(), facts.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.CanPerformActionBatch(ctx, vote("alice", "custom", ""), []types.Target{
		{Kind: types.TargetPublication, ID: "bob-post"},
	})
	require.ErrorIs(t, err, context.Canceled)
}
