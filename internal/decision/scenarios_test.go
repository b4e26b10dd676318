// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package decision_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/meriter/meriter/internal/decision"
	"github.com/meriter/meriter/internal/decision/factor"
	"github.com/meriter/meriter/internal/decision/facts"
	"github.com/meriter/meriter/internal/decision/rules"
	"github.com/meriter/meriter/internal/decision/types"
	"github.com/meriter/meriter/internal/memstore"
)

var _ = Describe("Decision scenarios", func() {
	var (
		ctx    context.Context
		store  *memstore.Store
		engine *decision.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memstore.New()
		store.PutUser(types.User{ID: "admin", GlobalRole: types.RoleSuperadmin})
		store.PutUser(types.User{ID: "alice"})
		store.PutUser(types.User{ID: "bob"})
		engine = decision.NewEngine(store.Sources(), facts.Options{})
	})

	Describe("superadmin voting on their own publication", func() {
		It("is allowed by bypass regardless of the rule table", func() {
			store.PutCommunity(&types.Community{
				ID:      "locked",
				TypeTag: types.TypeFutureVision,
				PermissionRules: []types.PermissionRule{
					{Role: types.RoleSuperadmin, Action: types.ActionVote, Allowed: false},
				},
			})
			store.PutResource(types.TargetPublication, types.ResourceFacts{ID: "p1", CommunityID: "locked", AuthorID: "admin"})

			d, err := engine.CanPerformAction(ctx, vote("admin", "locked", "p1"))
			Expect(err).NotTo(HaveOccurred())
			Expect(d.IsAllowed()).To(BeTrue())
			Expect(d.Code).To(Equal(types.CodeSuperadmin))
		})
	})

	Describe("participant outside a team community", func() {
		It("cannot vote and is told why", func() {
			store.PutCommunity(&types.Community{ID: "team", TypeTag: types.TypeTeam})
			store.SetRole("alice", "team", types.RoleParticipant)
			store.PutResource(types.TargetPublication, types.ResourceFacts{ID: "p1", CommunityID: "team", AuthorID: "bob"})

			// The team directory no longer lists alice, e.g. they left the team
			// and their community role has not been revoked yet.
			src := store.Sources()
			src.Teams = &teamOverride{Store: store, teams: map[string][]string{}}
			e := decision.NewEngine(src, facts.Options{})

			d, err := e.CanPerformAction(ctx, vote("alice", "team", "p1"))
			Expect(err).NotTo(HaveOccurred())
			Expect(d.IsAllowed()).To(BeFalse())
			Expect(d.Reason).To(ContainSubstring("team member"))
		})
	})

	Describe("participant self-voting in a custom community", func() {
		It("is permitted but must pay from the wallet", func() {
			store.PutCommunity(&types.Community{
				ID:     "custom",
				Voting: types.VotingSettingsOverride{VotingRestriction: ptr(types.VotingRestrictionAny)},
			})
			store.SetRole("alice", "custom", types.RoleParticipant)
			store.PutResource(types.TargetPublication, types.ResourceFacts{ID: "p1", CommunityID: "custom", AuthorID: "alice"})

			out, err := engine.Decide(ctx, vote("alice", "custom", "p1"))
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Permission.IsAllowed()).To(BeTrue())
			Expect(out.Currency).NotTo(BeNil())
			Expect(*out.Currency).To(Equal(types.CurrencyMode{
				AllowedQuota:  false,
				AllowedWallet: true,
				Required:      types.CurrencyWallet,
				Reason:        factor.ReasonSelfVote,
			}))
		})
	})

	Describe("merit earned in the marathon of good", func() {
		It("flows to the future-vision community wallet", func() {
			store.PutCommunity(&types.Community{ID: "mog", TypeTag: types.TypeMarathonOfGood})
			store.PutCommunity(&types.Community{ID: "fv", TypeTag: types.TypeFutureVision})
			store.SetRole("alice", "mog", types.RoleParticipant)
			store.SetRole("bob", "mog", types.RoleParticipant)
			store.PutResource(types.TargetPublication, types.ResourceFacts{ID: "p1", CommunityID: "mog", AuthorID: "bob"})

			got, err := engine.EvaluateMeritDestination(ctx, vote("alice", "mog", "p1"), 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Destinations).To(HaveLen(1))
			Expect(got.Destinations[0].CommunityID).To(Equal("fv"))
			Expect(got.Destinations[0].Amount).To(Equal(50.0))
			Expect(got.Destinations[0].RecipientUserID).To(Equal("bob"))
		})
	})

	Describe("merit earned in future vision", func() {
		It("is extinguished", func() {
			store.PutCommunity(&types.Community{ID: "fv", TypeTag: types.TypeFutureVision})
			store.PutResource(types.TargetPublication, types.ResourceFacts{ID: "p1", CommunityID: "fv", AuthorID: "bob"})

			got, err := engine.EvaluateMeritDestination(ctx, vote("alice", "fv", "p1"), 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Destinations).To(BeEmpty())
			Expect(got.Route).To(Equal(types.RouteTerminalSink))
		})
	})

	Describe("rule defaults for future vision", func() {
		It("has the same rule count as an untagged community", func() {
			Expect(rules.Resolve(types.TypeFutureVision)).To(HaveLen(len(rules.Resolve(""))))
		})
	})
})

// teamOverride replaces the store's derived team memberships.
type teamOverride struct {
	*memstore.Store
	teams map[string][]string
}

func (o *teamOverride) TeamCommunities(_ context.Context, userID string) ([]string, error) {
	return o.teams[userID], nil
}

func ptr[T any](v T) *T { return &v }
