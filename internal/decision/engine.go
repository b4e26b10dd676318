// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

// Package decision answers the two questions every user action on the
// platform raises: may this user do it, and with which currency. It wires the
// context builder to the role hierarchy gate, the currency factors and merit
// routing.
package decision

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/meriter/meriter/internal/decision/factor"
	"github.com/meriter/meriter/internal/decision/facts"
	"github.com/meriter/meriter/internal/decision/types"
	"github.com/meriter/meriter/pkg/errutil"
)

// DefaultBatchConcurrency bounds the number of contexts built at once by
// CanPerformActionBatch.
const DefaultBatchConcurrency = 32

var tracer = otel.Tracer("github.com/meriter/meriter/internal/decision")

// ContextBuilder assembles decision contexts.
type ContextBuilder interface {
	Build(ctx context.Context, req types.Request) (types.DecisionContext, error)
}

// PermissionGate is the binary permission factor.
type PermissionGate interface {
	Evaluate(dc types.DecisionContext, action types.Action) types.Decision
}

// CurrencyComposer combines the currency factors.
type CurrencyComposer interface {
	Compose(dc types.DecisionContext) (types.CurrencyMode, error)
}

// MeritRouter computes merit destinations.
type MeritRouter interface {
	Evaluate(ctx context.Context, dc types.DecisionContext, amount float64) (types.MeritDestination, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithBatchConcurrency limits concurrent context builds in batch evaluation.
// Values below one are ignored.
func WithBatchConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchConcurrency = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithBuilder replaces the context builder.
func WithBuilder(b ContextBuilder) Option {
	return func(e *Engine) { e.builder = b }
}

// WithGate replaces the permission gate.
func WithGate(g PermissionGate) Option {
	return func(e *Engine) { e.gate = g }
}

// WithComposer replaces the currency composer.
func WithComposer(c CurrencyComposer) Option {
	return func(e *Engine) { e.currency = c }
}

// WithMeritRouter replaces the merit destination factor.
func WithMeritRouter(m MeritRouter) Option {
	return func(e *Engine) { e.merit = m }
}

// Engine is the decision orchestrator. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	builder          ContextBuilder
	gate             PermissionGate
	currency         CurrencyComposer
	merit            MeritRouter
	logger           *slog.Logger
	batchConcurrency int
}

// NewEngine creates an engine reading facts from src.
func NewEngine(src facts.Sources, factsOpts facts.Options, opts ...Option) *Engine {
	e := &Engine{
		logger:           slog.Default(),
		batchConcurrency: DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	if factsOpts.Logger == nil {
		factsOpts.Logger = e.logger
	}
	if e.builder == nil {
		e.builder = facts.NewBuilder(src, factsOpts)
	}
	if e.gate == nil {
		e.gate = factor.NewRoleHierarchy()
	}
	if e.currency == nil {
		e.currency = factor.NewComposer(nil, nil)
	}
	if e.merit == nil {
		e.merit = factor.NewMeritDestination(src.Communities, e.logger)
	}
	return e
}

// CanPerformAction decides whether req.UserID may perform req.Action.
// Lookup failures deny and are returned alongside the denial.
func (e *Engine) CanPerformAction(ctx context.Context, req types.Request) (types.Decision, error) {
	start := time.Now()
	defer observeDuration(opCanPerformAction, start)

	ctx, span := e.startSpan(ctx, "decision.CanPerformAction", req)
	defer span.End()

	d, _, err := e.permission(ctx, req)
	return d, err
}

// Decide evaluates permission and, for permitted votes, the currency mode.
func (e *Engine) Decide(ctx context.Context, req types.Request) (types.Outcome, error) {
	start := time.Now()
	defer observeDuration(opDecide, start)

	ctx, span := e.startSpan(ctx, "decision.Decide", req)
	defer span.End()

	d, dc, err := e.permission(ctx, req)
	out := types.Outcome{Permission: d}
	if err != nil || !d.IsAllowed() || req.Action != types.ActionVote {
		return out, err
	}

	mode, err := e.compose(ctx, dc)
	if err != nil {
		return out, err
	}
	out.Currency = &mode
	return out, nil
}

// EvaluateCurrencyMode evaluates permission and, when permitted, the currency
// mode regardless of the action. A denied permission skips the currency
// factors.
func (e *Engine) EvaluateCurrencyMode(ctx context.Context, req types.Request) (types.Outcome, error) {
	start := time.Now()
	defer observeDuration(opCurrencyMode, start)

	ctx, span := e.startSpan(ctx, "decision.EvaluateCurrencyMode", req)
	defer span.End()

	d, dc, err := e.permission(ctx, req)
	out := types.Outcome{Permission: d}
	if err != nil || !d.IsAllowed() {
		return out, err
	}

	mode, err := e.compose(ctx, dc)
	if err != nil {
		return out, err
	}
	out.Currency = &mode
	return out, nil
}

// EvaluateMeritDestination routes amount for the resource named by req. It
// does not re-check permission; callers invoke it after the action succeeded.
func (e *Engine) EvaluateMeritDestination(ctx context.Context, req types.Request, amount float64) (types.MeritDestination, error) {
	start := time.Now()
	defer observeDuration(opMeritDestination, start)

	ctx, span := e.startSpan(ctx, "decision.EvaluateMeritDestination", req)
	defer span.End()
	span.SetAttributes(attribute.Float64("meriter.amount", amount))

	empty := types.MeritDestination{Route: types.RouteNone, Destinations: []types.Destination{}}
	if err := req.Validate(); err != nil {
		return empty, err
	}

	dc, err := e.builder.Build(ctx, req)
	if err != nil {
		errutil.LogErrorContext(ctx, e.logger, "merit destination context build failed", err)
		span.RecordError(err)
		return empty, err
	}

	dest, err := e.merit.Evaluate(ctx, dc, amount)
	if err != nil {
		errutil.LogErrorContext(ctx, e.logger, "merit destination evaluation failed", err)
		span.RecordError(err)
		return empty, err
	}
	recordRoute(dest.Route)
	span.SetAttributes(attribute.String("meriter.merit_route", string(dest.Route)))
	return dest, nil
}

// CanPerformActionBatch evaluates req.Action against every target, building
// an independent context for each. Results are keyed by target id, so targets
// of different kinds sharing an id are rejected with an invalid request error.
// Lookup failures on a single target deny that target only.
func (e *Engine) CanPerformActionBatch(ctx context.Context, req types.Request, targets []types.Target) (map[string]types.Decision, error) {
	start := time.Now()
	defer observeDuration(opBatch, start)

	ctx, span := e.startSpan(ctx, "decision.CanPerformActionBatch", req)
	defer span.End()
	span.SetAttributes(attribute.Int("meriter.batch_size", len(targets)))

	if err := checkBatchIDs(targets); err != nil {
		span.RecordError(err)
		return nil, err
	}

	results := make(map[string]types.Decision, len(targets))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.batchConcurrency)
	for _, target := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err //nolint:wrapcheck // cancellation passes through unchanged
			}
			one := req
			one.Target = target
			d, _, err := e.permission(gctx, one)
			if err != nil {
				e.logger.WarnContext(gctx, "batch target denied on error",
					"target", target.String(),
					"error", err)
			}
			mu.Lock()
			results[target.ID] = d
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, oops.In("decision").
			With("user_id", req.UserID).
			With("community_id", req.CommunityID).
			Wrapf(err, "batch evaluation cancelled")
	}
	return results, nil
}

// checkBatchIDs rejects batches where one id names targets of two kinds.
// Repeating the same kind:id is allowed.
func checkBatchIDs(targets []types.Target) error {
	kinds := make(map[string]types.TargetKind, len(targets))
	for _, t := range targets {
		if k, ok := kinds[t.ID]; ok && k != t.Kind {
			return oops.Code(types.ErrCodeInvalidRequest).
				With("target_id", t.ID).
				With("kinds", []types.TargetKind{k, t.Kind}).
				Errorf("target id %q is used by both %s and %s", t.ID, k, t.Kind)
		}
		kinds[t.ID] = t.Kind
	}
	return nil
}

// permission validates req, builds its context and runs the gate.
func (e *Engine) permission(ctx context.Context, req types.Request) (types.Decision, types.DecisionContext, error) {
	if err := ctx.Err(); err != nil {
		d := types.Denied(types.CodeLookupFailed, "request cancelled")
		return d, types.DecisionContext{}, oops.In("decision").Wrapf(err, "context cancelled before evaluation")
	}
	if err := req.Validate(); err != nil {
		d := types.Denied(types.CodeInvalidRequest, "invalid request")
		RecordDecision(req.Action, d)
		return d, types.DecisionContext{}, err
	}

	dc, err := e.builder.Build(ctx, req)
	if err != nil {
		errutil.LogErrorContext(ctx, e.logger, "decision context build failed", err)
		d := types.Denied(types.CodeLookupFailed, "fact lookup failed")
		RecordDecision(req.Action, d)
		return d, dc, err
	}

	d := e.gate.Evaluate(dc, req.Action)
	RecordDecision(req.Action, d)
	e.logger.DebugContext(ctx, "permission decided",
		"user_id", req.UserID,
		"community_id", req.CommunityID,
		"action", string(req.Action),
		"target", dc.Target.String(),
		"allowed", d.IsAllowed(),
		"code", d.Code,
	)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Bool("meriter.allowed", d.IsAllowed()),
		attribute.String("meriter.code", d.Code),
	)
	return d, dc, nil
}

func (e *Engine) compose(ctx context.Context, dc types.DecisionContext) (types.CurrencyMode, error) {
	mode, err := e.currency.Compose(dc)
	if err != nil {
		errutil.LogErrorContext(ctx, e.logger, "currency mode evaluation failed", err)
		return types.CurrencyMode{}, err
	}
	if err := mode.Validate(); err != nil {
		return types.CurrencyMode{}, oops.In("decision").Wrapf(err, "currency mode validation failed")
	}
	recordCurrency(mode)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("meriter.currency_mode", mode.Label()))
	return mode, nil
}

func (e *Engine) startSpan(ctx context.Context, name string, req types.Request) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	span.SetAttributes(
		attribute.String("meriter.user_id", req.UserID),
		attribute.String("meriter.community_id", req.CommunityID),
		attribute.String("meriter.action", string(req.Action)),
	)
	return ctx, span
}
