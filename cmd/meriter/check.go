// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package main

import (
	"io"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/meriter/meriter/internal/decision"
	"github.com/meriter/meriter/internal/decision/cache"
	"github.com/meriter/meriter/internal/decision/types"
)

type checkOptions struct {
	fixture        string
	user           string
	community      string
	action         string
	targets        []string
	direction      string
	postType       string
	project        bool
	amount         float64
	permissionOnly bool
	metrics        bool
}

// checkReport is the YAML shape printed for a single-target check.
type checkReport struct {
	Request    requestView             `yaml:"request"`
	Permission types.Decision          `yaml:"permission"`
	Currency   *types.CurrencyMode     `yaml:"currency,omitempty"`
	Merit      *types.MeritDestination `yaml:"merit,omitempty"`
}

type requestView struct {
	User      string `yaml:"user"`
	Community string `yaml:"community"`
	Action    string `yaml:"action"`
	Target    string `yaml:"target,omitempty"`
}

// batchReport is the YAML shape printed when several targets are checked.
type batchReport struct {
	Request requestView   `yaml:"request"`
	Results []batchResult `yaml:"results"`
}

type batchResult struct {
	Target  string `yaml:"target"`
	Allowed bool   `yaml:"allowed"`
	Code    string `yaml:"code"`
	Reason  string `yaml:"reason"`
}

func newCheckCmd(a *app) *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate a permission and currency decision",
		Long: `Evaluates whether a user may perform an action in a community. Votes
also report the currency mode, and a positive --amount reports where the
merit would be credited.

Facts come from --fixture when given, otherwise from the configured
database. Passing --target more than once evaluates every target in one
batch and reports permission only.

Examples:
  meriter check --fixture scenario.yaml --user bob --community mog \
    --action vote --target publication:alice-post --amount 5
  meriter check --user u1 --community c1 --action delete_publication \
    --target publication:p1 --target publication:p2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCheck(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.fixture, "fixture", "", "fixture file to read facts from")
	f.StringVar(&opts.user, "user", "", "acting user id")
	f.StringVar(&opts.community, "community", "", "community id")
	f.StringVar(&opts.action, "action", "", "action name")
	f.StringArrayVar(&opts.targets, "target", nil, "target as kind:id (repeatable)")
	f.StringVar(&opts.direction, "direction", "", "vote direction (up or down)")
	f.StringVar(&opts.postType, "post-type", "", "post type of the publication being created or voted on")
	f.BoolVar(&opts.project, "project", false, "treat the publication as project content")
	f.Float64Var(&opts.amount, "amount", 0, "merit amount to route")
	f.BoolVar(&opts.permissionOnly, "permission-only", false, "report permission only, through the decision cache when configured")
	f.BoolVar(&opts.metrics, "metrics", false, "print decision metrics to stderr afterwards")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("community")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

func (o *checkOptions) request() (types.Request, []types.Target, error) {
	action, err := types.ParseAction(o.action)
	if err != nil {
		return types.Request{}, nil, err
	}
	var dir types.Direction
	switch d := types.Direction(strings.ToLower(o.direction)); d {
	case "", types.DirectionUp, types.DirectionDown:
		dir = d
	default:
		return types.Request{}, nil, oops.Code(types.ErrCodeInvalidRequest).
			With("direction", o.direction).Errorf("direction must be up or down")
	}
	if o.amount < 0 {
		return types.Request{}, nil, oops.Code(types.ErrCodeInvalidRequest).
			With("amount", o.amount).Errorf("amount must not be negative")
	}

	targets := make([]types.Target, 0, len(o.targets))
	for _, s := range o.targets {
		t, err := types.ParseTarget(s)
		if err != nil {
			return types.Request{}, nil, err
		}
		targets = append(targets, t)
	}

	req := types.Request{
		UserID:      o.user,
		CommunityID: o.community,
		Action:      action,
		Intent:      types.Intent{Direction: dir, PostType: o.postType, IsProject: o.project},
	}
	if len(targets) == 1 {
		req.Target = targets[0]
	}
	return req, targets, nil
}

func (a *app) runCheck(cmd *cobra.Command, opts *checkOptions) error {
	req, targets, err := opts.request()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	src, factsOpts, release, err := a.factSource(ctx, opts.fixture)
	if err != nil {
		return err
	}
	defer release()
	engine := a.newEngine(src, factsOpts)

	if opts.metrics {
		defer func() {
			if err := writeMetrics(cmd.ErrOrStderr(), prometheus.DefaultGatherer); err != nil {
				a.logger.WarnContext(ctx, "metrics output failed", "error", err)
			}
		}()
	}

	view := requestView{
		User:      req.UserID,
		Community: req.CommunityID,
		Action:    string(req.Action),
	}
	if len(targets) > 1 {
		return a.runBatch(cmd, engine, req, targets, view)
	}
	if len(targets) == 1 {
		view.Target = targets[0].String()
	}

	if opts.permissionOnly {
		return a.runPermissionOnly(cmd, engine, req, view)
	}

	out, err := engine.Decide(ctx, req)
	if err != nil {
		return err
	}
	report := checkReport{Request: view, Permission: out.Permission, Currency: out.Currency}
	if opts.amount > 0 && out.Permission.IsAllowed() {
		dest, err := engine.EvaluateMeritDestination(ctx, req, opts.amount)
		if err != nil {
			return err
		}
		report.Merit = &dest
	}
	return writeYAML(cmd, report)
}

func (a *app) runPermissionOnly(cmd *cobra.Command, engine *decision.Engine, req types.Request, view requestView) error {
	var decider cache.Decider = engine
	if addr := a.cfg.Redis.Addr; addr != "" {
		client := a.deps.NewRedis(addr)
		defer func() { _ = client.Close() }()
		decider = cache.New(engine, client, cache.WithTTL(a.cfg.Redis.TTL), cache.WithLogger(a.logger))
	}
	d, err := decider.CanPerformAction(cmd.Context(), req)
	if err != nil {
		return err
	}
	return writeYAML(cmd, checkReport{Request: view, Permission: d})
}

func (a *app) runBatch(cmd *cobra.Command, engine *decision.Engine, req types.Request, targets []types.Target, view requestView) error {
	results, err := engine.CanPerformActionBatch(cmd.Context(), req, targets)
	if err != nil {
		return err
	}
	report := batchReport{Request: view, Results: make([]batchResult, 0, len(targets))}
	for _, t := range targets {
		d := results[t.ID]
		report.Results = append(report.Results, batchResult{
			Target:  t.String(),
			Allowed: d.IsAllowed(),
			Code:    d.Code,
			Reason:  d.Reason,
		})
	}
	slices.SortFunc(report.Results, func(x, y batchResult) int {
		return strings.Compare(x.Target, y.Target)
	})
	report.Results = slices.CompactFunc(report.Results, func(x, y batchResult) bool {
		return x.Target == y.Target
	})
	return writeYAML(cmd, report)
}

// writeMetrics prints the meriter metric families in the Prometheus text
// exposition format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return oops.In("cli").Wrapf(err, "gather metrics")
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "meriter_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return oops.In("cli").With("family", mf.GetName()).Wrapf(err, "write metrics")
		}
	}
	return nil
}
