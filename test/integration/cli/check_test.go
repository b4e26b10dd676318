// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

//go:build integration

package cli_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

const seedSQL = `
INSERT INTO users (id) VALUES ('alice'), ('bob');
INSERT INTO communities (id, name, type_tag) VALUES
  ('mog', 'Marathon', 'marathon-of-good'),
  ('fv', 'Future Vision', 'future-vision');
INSERT INTO community_memberships (user_id, community_id, role) VALUES
  ('alice', 'mog', 'participant'), ('bob', 'mog', 'participant');
INSERT INTO publications (id, community_id, author_id) VALUES ('mog-post', 'mog', 'alice');
`

var _ = Describe("Database-backed commands", Ordered, func() {
	var ctx context.Context

	BeforeAll(func() {
		ctx = context.Background()
	})

	It("reports pending migrations on a fresh database", func() {
		output, err := meriter(ctx, "migrate", "status")
		Expect(err).NotTo(HaveOccurred(), output)
		Expect(output).To(ContainSubstring("Schema version: 0"))
		Expect(output).To(ContainSubstring("pending: 000001"))
	})

	It("applies migrations", func() {
		output, err := meriter(ctx, "migrate", "up")
		Expect(err).NotTo(HaveOccurred(), output)
		Expect(output).To(ContainSubstring("Schema version: 2"))

		output, err = meriter(ctx, "migrate", "status")
		Expect(err).NotTo(HaveOccurred(), output)
		Expect(output).To(ContainSubstring("No pending migrations"))
	})

	It("evaluates a vote against stored facts", func() {
		_, err := pool.Exec(ctx, seedSQL)
		Expect(err).NotTo(HaveOccurred())

		output, err := meriter(ctx, "check",
			"--user", "bob", "--community", "mog", "--action", "vote",
			"--target", "publication:mog-post", "--amount", "3")
		Expect(err).NotTo(HaveOccurred(), output)
		Expect(output).To(ContainSubstring("allowed: true"))
		Expect(output).To(ContainSubstring("route: future-vision-pool"))
		Expect(output).To(ContainSubstring("recipientUserId: alice"))
	})

	It("denies users without a membership", func() {
		output, err := meriter(ctx, "check",
			"--user", "carol", "--community", "mog", "--action", "post_publication")
		Expect(err).NotTo(HaveOccurred(), output)
		Expect(output).To(ContainSubstring("allowed: false"))
		Expect(output).To(ContainSubstring("permission.noRole"))
	})

	It("reverts the latest migration", func() {
		output, err := meriter(ctx, "migrate", "down")
		Expect(err).NotTo(HaveOccurred(), output)
		Expect(output).To(ContainSubstring("Schema version: 1"))
	})
})
