// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/meriter/meriter/internal/decision"
	"github.com/meriter/meriter/internal/decision/facts"
	"github.com/meriter/meriter/internal/decision/types"
	"github.com/meriter/meriter/internal/store"
)

const seedSQL = `
INSERT INTO users (id, global_role) VALUES ('admin', 'superadmin'), ('alice', NULL), ('bob', NULL);
INSERT INTO communities (id, name, type_tag, hidden, permission_rules, voting_settings, merit_conversion) VALUES
  ('mog', 'Marathon', 'marathon-of-good', FALSE, '[]', '{}', NULL),
  ('fv', 'Future Vision', 'future-vision', FALSE, '[]', '{}', NULL),
  ('team-a', 'Team A', 'team', TRUE, '[]', '{}', NULL),
  ('garden', 'Garden', 'custom', FALSE,
   '[{"role":"participant","action":"edit_publication","allowed":true,"conditions":{"canEditAfterMinutes":30}}]',
   '{"votingRestriction":"not-same-team"}',
   '{"targetCommunityId":"fv","ratio":0.5}');
INSERT INTO community_memberships (user_id, community_id, role) VALUES
  ('alice', 'mog', 'participant'), ('bob', 'mog', 'participant'),
  ('alice', 'team-a', 'participant'), ('bob', 'team-a', 'lead'),
  ('alice', 'garden', 'participant'), ('bob', 'garden', 'participant');
INSERT INTO publications (id, community_id, author_id, created_at, vote_count) VALUES
  ('mog-post', 'mog', 'alice', NOW() - INTERVAL '10 minutes', 0),
  ('garden-post', 'garden', 'alice', NOW() - INTERVAL '45 minutes', 2);
INSERT INTO comments (id, community_id, author_id) VALUES ('garden-comment', 'garden', 'bob');
`

var _ = Describe("FactStore against PostgreSQL", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		pool      *pgxpool.Pool
		engine    *decision.Engine
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("meriter"),
			postgres.WithUsername("meriter"),
			postgres.WithPassword("meriter"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2)),
		)
		Expect(err).NotTo(HaveOccurred())

		url, err := container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		migrator, err := store.NewMigrator(url)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		pool, err = store.Connect(ctx, url, 30*time.Second, nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = pool.Exec(ctx, seedSQL)
		Expect(err).NotTo(HaveOccurred())

		engine = decision.NewEngine(store.NewFactStore(pool).Sources(), facts.Options{})
	})

	AfterAll(func() {
		if pool != nil {
			pool.Close()
		}
		if container != nil {
			Expect(container.Terminate(ctx)).To(Succeed())
		}
	})

	It("reads stored overrides", func() {
		c, err := store.NewFactStore(pool).GetCommunity(ctx, "garden")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.PermissionRules).To(HaveLen(1))
		Expect(*c.PermissionRules[0].Conditions.CanEditAfterMinutes).To(Equal(30))
		Expect(c.Conversion).NotTo(BeNil())
		Expect(c.Conversion.EffectiveRatio()).To(Equal(0.5))
	})

	It("derives team membership from team communities", func() {
		teams, err := store.NewFactStore(pool).TeamCommunities(ctx, "bob")
		Expect(err).NotTo(HaveOccurred())
		Expect(teams).To(Equal([]string{"team-a"}))
	})

	It("restricts teammates to wallet in a marathon community", func() {
		out, err := engine.Decide(ctx, types.Request{
			UserID:      "bob",
			CommunityID: "mog",
			Action:      types.ActionVote,
			Target:      types.Target{Kind: types.TargetPublication, ID: "mog-post"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Permission.IsAllowed()).To(BeTrue())
		Expect(out.Currency).NotTo(BeNil())
		Expect(out.Currency.Required).To(Equal(types.CurrencyWallet))
	})

	It("denies teammates under a not-same-team restriction", func() {
		d, err := engine.CanPerformAction(ctx, types.Request{
			UserID:      "bob",
			CommunityID: "garden",
			Action:      types.ActionVote,
			Target:      types.Target{Kind: types.TargetPublication, ID: "garden-post"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(d.IsAllowed()).To(BeFalse())
		Expect(d.Code).To(Equal(types.CodeVoteSameTeam))
	})

	It("closes the edit window from stored creation time", func() {
		d, err := engine.CanPerformAction(ctx, types.Request{
			UserID:      "alice",
			CommunityID: "garden",
			Action:      types.ActionEditPublication,
			Target:      types.Target{Kind: types.TargetPublication, ID: "garden-post"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(d.IsAllowed()).To(BeFalse())
	})

	It("routes converted merit into the target community", func() {
		dest, err := engine.EvaluateMeritDestination(ctx, types.Request{
			UserID:      "bob",
			CommunityID: "garden",
			Action:      types.ActionVote,
			Target:      types.Target{Kind: types.TargetPublication, ID: "garden-post"},
		}, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(dest.Route).To(Equal(types.RouteConversion))
		Expect(dest.Total()).To(BeNumerically("~", 5))
	})

	It("reports missing resources as absent facts", func() {
		d, err := engine.CanPerformAction(ctx, types.Request{
			UserID:      "alice",
			CommunityID: "garden",
			Action:      types.ActionDeleteComment,
			Target:      types.Target{Kind: types.TargetComment, ID: "no-such-comment"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(d.IsAllowed()).To(BeFalse())
		Expect(d.Code).To(Equal(types.CodeNoResource))
	})
})
