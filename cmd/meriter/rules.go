// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package main

import (
	"context"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/meriter/meriter/internal/decision/rules"
	"github.com/meriter/meriter/internal/decision/types"
	"github.com/meriter/meriter/internal/fixture"
)

type rulesOptions struct {
	typeTag   string
	action    string
	role      string
	fixture   string
	community string
}

// rulesReport is the YAML shape printed by the rules command.
type rulesReport struct {
	Community string                 `yaml:"community,omitempty"`
	Type      types.CommunityTypeTag `yaml:"type"`
	Rules     []types.PermissionRule `yaml:"rules"`
	Voting    *types.VotingSettings  `yaml:"voting,omitempty"`
	Merit     *types.MeritSettings   `yaml:"merit,omitempty"`
}

func newRulesCmd(a *app) *cobra.Command {
	opts := &rulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the effective permission rule table",
		Long: `Prints the permission rules in force for a community type, or for a
community loaded from a fixture with its stored overrides applied.

Examples:
  meriter rules --type marathon-of-good
  meriter rules --type team --action 'edit_*' --role participant
  meriter rules --fixture scenario.yaml --community garden`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRules(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.typeTag, "type", "custom", "community type tag")
	cmd.Flags().StringVar(&opts.action, "action", "*", "glob pattern over action names")
	cmd.Flags().StringVar(&opts.role, "role", "", "only show rules for this role")
	cmd.Flags().StringVar(&opts.fixture, "fixture", "", "fixture file to read the community from")
	cmd.Flags().StringVar(&opts.community, "community", "", "community id within the fixture")
	return cmd
}

func (a *app) runRules(cmd *cobra.Command, opts *rulesOptions) error {
	pattern, err := glob.Compile(opts.action)
	if err != nil {
		return oops.Code(types.ErrCodeInvalidRequest).With("pattern", opts.action).Wrapf(err, "invalid action pattern")
	}
	var role types.Role
	if opts.role != "" {
		if role, err = types.ParseRole(opts.role); err != nil {
			return err
		}
	}

	report, err := a.rulesFor(cmd.Context(), opts)
	if err != nil {
		return err
	}
	report.Rules = filterRules(report.Rules, pattern, role)
	return writeYAML(cmd, report)
}

func (a *app) rulesFor(ctx context.Context, opts *rulesOptions) (rulesReport, error) {
	if opts.fixture == "" {
		if opts.community != "" {
			return rulesReport{}, oops.Code(types.ErrCodeInvalidRequest).Errorf("--community requires --fixture")
		}
		tag, err := types.ParseCommunityTypeTag(opts.typeTag)
		if err != nil {
			return rulesReport{}, err
		}
		return rulesReport{Type: tag, Rules: rules.Resolve(tag)}, nil
	}

	if opts.community == "" {
		return rulesReport{}, oops.Code(types.ErrCodeInvalidRequest).Errorf("--fixture requires --community")
	}
	f, err := fixture.LoadFile(opts.fixture)
	if err != nil {
		return rulesReport{}, err
	}
	c, err := f.Store.GetCommunity(ctx, opts.community)
	if err != nil {
		return rulesReport{}, err
	}
	voting := rules.EffectiveVoting(c)
	merit := rules.EffectiveMerit(c)
	return rulesReport{
		Community: c.ID,
		Type:      c.Type(),
		Rules:     rules.Effective(c),
		Voting:    &voting,
		Merit:     &merit,
	}, nil
}

func filterRules(all []types.PermissionRule, pattern glob.Glob, role types.Role) []types.PermissionRule {
	out := make([]types.PermissionRule, 0, len(all))
	for _, r := range all {
		if role != "" && r.Role != role {
			continue
		}
		if !pattern.Match(string(r.Action)) {
			continue
		}
		out = append(out, r)
	}
	return out
}
