// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package facts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/meriter/meriter/internal/decision/types"
)

var tracer = otel.Tracer("github.com/meriter/meriter/internal/decision/facts")

// Options configure a Builder.
type Options struct {
	// CommentVotingEnabled allows votes that target comments.
	CommentVotingEnabled bool
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Builder assembles DecisionContexts. It holds no per-request state and is
// safe for concurrent use.
type Builder struct {
	src    Sources
	opts   Options
	logger *slog.Logger
}

// NewBuilder creates a Builder reading from src.
func NewBuilder(src Sources, opts Options) *Builder {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{src: src, opts: opts, logger: logger}
}

// Communities exposes the community reader for factors that route merit.
func (b *Builder) Communities() CommunityReader {
	return b.src.Communities
}

// firstWave holds the lookups that only depend on the request.
type firstWave struct {
	user           types.User
	userFound      bool
	role           types.Role
	community      *types.Community
	requesterTeams []string
	resource       types.ResourceFacts
	resourceFound  bool
}

// secondWave holds the lookups that depend on the resource.
type secondWave struct {
	authorRole       types.Role
	beneficiaryRole  types.Role
	beneficiaryTeams []string
}

// Build assembles the fact sheet for req. Missing entities leave facts
// absent; the returned context is still usable and fails closed. A non-nil
// error means a collaborator failed for another reason; the context returned
// alongside it must be treated as a denial.
func (b *Builder) Build(ctx context.Context, req types.Request) (types.DecisionContext, error) {
	ctx, span := tracer.Start(ctx, "facts.Build")
	defer span.End()
	span.SetAttributes(
		attribute.String("meriter.user_id", req.UserID),
		attribute.String("meriter.community_id", req.CommunityID),
		attribute.String("meriter.action", string(req.Action)),
	)

	target := req.ResolvedTarget()
	dc := types.DecisionContext{
		RequesterID:          req.UserID,
		Action:               req.Action,
		Target:               target,
		Direction:            req.Intent.Direction,
		CommentVotingEnabled: b.opts.CommentVotingEnabled,
	}
	if dc.Direction == "" {
		dc.Direction = types.DirectionUp
	}

	first, err := b.loadFirstWave(ctx, req, target)
	if err != nil {
		dc.ResourceMissing = req.Action.RequiresResource()
		span.RecordError(err)
		return dc, oops.In("decision").
			Code(types.ErrCodeContextBuildFailed).
			With("user_id", req.UserID).
			With("community_id", req.CommunityID).
			Wrap(err)
	}

	dc.Community = first.community
	dc.RequesterRole = first.role
	if first.userFound {
		dc.RequesterGlobalRole = first.user.GlobalRole
	}
	dc.HasTeamMembership = len(first.requesterTeams) > 0
	if dc.Community != nil && dc.Community.Type() == types.TypeTeam {
		dc.IsTeamMember = containsID(first.requesterTeams, dc.Community.ID)
	}

	resourceFound := first.resourceFound
	if resourceFound && first.resource.CommunityID != "" && dc.Community != nil &&
		!types.SameID(first.resource.CommunityID, dc.Community.ID) {
		b.logger.WarnContext(ctx, "resource belongs to another community, treating as missing",
			"target", target.String(),
			"community_id", dc.Community.ID,
			"resource_community_id", first.resource.CommunityID)
		resourceFound = false
	}
	dc.ResourceMissing = req.Action.RequiresResource() && !resourceFound

	if resourceFound {
		b.applyResource(&dc, req, first.resource)
	} else {
		dc.PostType = req.Intent.PostType
		dc.IsProject = req.Intent.IsProject
	}

	if !resourceFound || dc.Community == nil {
		return dc, nil
	}

	second, err := b.loadSecondWave(ctx, dc)
	if err != nil {
		span.RecordError(err)
		return dc, oops.In("decision").
			Code(types.ErrCodeContextBuildFailed).
			With("user_id", req.UserID).
			With("community_id", req.CommunityID).
			Wrap(err)
	}
	dc.AuthorRole = second.authorRole
	dc.BeneficiaryRole = second.authorRole
	if !types.SameID(dc.EffectiveBeneficiaryID(), dc.AuthorID) {
		dc.BeneficiaryRole = second.beneficiaryRole
	}
	if !dc.IsEffectiveBeneficiary {
		dc.SharedTeamCommunities = intersectIDs(first.requesterTeams, second.beneficiaryTeams)
	}

	return dc, nil
}

func (b *Builder) applyResource(dc *types.DecisionContext, req types.Request, res types.ResourceFacts) {
	dc.AuthorID = res.AuthorID
	dc.BeneficiaryID = res.BeneficiaryID
	dc.IsAuthor = types.SameID(req.UserID, res.AuthorID)
	dc.IsBeneficiary = types.SameID(req.UserID, res.BeneficiaryID)
	dc.IsEffectiveBeneficiary = types.SameID(req.UserID, types.EffectiveBeneficiary(res.AuthorID, res.BeneficiaryID))
	dc.HasVotes = res.VoteCount > 0
	dc.HasComments = res.CommentCount > 0

	if res.CreatedAt > 0 {
		age := b.opts.Now().Sub(time.Unix(res.CreatedAt, 0)).Minutes()
		if age < 0 {
			age = 0
		}
		dc.ResourceAgeMinutes = age
	}

	dc.PostType = res.PostType
	if req.Intent.PostType != "" {
		dc.PostType = req.Intent.PostType
	}
	dc.IsProject = res.IsProject || req.Intent.IsProject
}

func (b *Builder) loadFirstWave(ctx context.Context, req types.Request, target types.Target) (firstWave, error) {
	var w firstWave
	g, gctx := errgroup.WithContext(ctx)

	if b.src.Users != nil {
		g.Go(b.guard(gctx, "users", func() error {
			user, err := b.src.Users.GetUser(gctx, req.UserID)
			if err != nil {
				return err
			}
			w.user, w.userFound = user, true
			return nil
		}))
	}
	if b.src.Roles != nil {
		g.Go(b.guard(gctx, "roles", func() error {
			role, err := b.src.Roles.GetUserRoleInCommunity(gctx, req.UserID, req.CommunityID)
			if err != nil {
				return err
			}
			w.role = role
			return nil
		}))
	}
	if b.src.Communities != nil {
		g.Go(b.guard(gctx, "communities", func() error {
			community, err := b.src.Communities.GetCommunity(gctx, req.CommunityID)
			if err != nil {
				return err
			}
			w.community = community.Clone()
			return nil
		}))
	}
	if b.src.Teams != nil {
		g.Go(b.guard(gctx, "teams", func() error {
			teams, err := b.src.Teams.TeamCommunities(gctx, req.UserID)
			if err != nil {
				return err
			}
			w.requesterTeams = append([]string(nil), teams...)
			return nil
		}))
	}
	if target.Kind != types.TargetCommunity {
		resolver, ok := b.src.Resources[target.Kind]
		if !ok {
			b.logger.WarnContext(ctx, "no resource resolver registered", "target_kind", string(target.Kind))
		} else {
			g.Go(b.guard(gctx, "resources", func() error {
				res, err := resolver.Resolve(gctx, target.ID)
				if err != nil {
					return err
				}
				w.resource, w.resourceFound = res, true
				return nil
			}))
		}
	}

	if err := g.Wait(); err != nil {
		return firstWave{}, err
	}
	return w, nil
}

func (b *Builder) loadSecondWave(ctx context.Context, dc types.DecisionContext) (secondWave, error) {
	var w secondWave
	g, gctx := errgroup.WithContext(ctx)

	if b.src.Roles != nil && strings.TrimSpace(dc.AuthorID) != "" {
		g.Go(b.guard(gctx, "roles", func() error {
			role, err := b.src.Roles.GetUserRoleInCommunity(gctx, dc.AuthorID, dc.Community.ID)
			if err != nil {
				return err
			}
			w.authorRole = role
			return nil
		}))
	}
	beneficiary := dc.EffectiveBeneficiaryID()
	if b.src.Roles != nil && strings.TrimSpace(beneficiary) != "" && !types.SameID(beneficiary, dc.AuthorID) {
		g.Go(b.guard(gctx, "roles", func() error {
			role, err := b.src.Roles.GetUserRoleInCommunity(gctx, beneficiary, dc.Community.ID)
			if err != nil {
				return err
			}
			w.beneficiaryRole = role
			return nil
		}))
	}
	if b.src.Teams != nil && !dc.IsEffectiveBeneficiary && strings.TrimSpace(beneficiary) != "" {
		g.Go(b.guard(gctx, "teams", func() error {
			teams, err := b.src.Teams.TeamCommunities(gctx, beneficiary)
			if err != nil {
				return err
			}
			w.beneficiaryTeams = append([]string(nil), teams...)
			return nil
		}))
	}

	if err := g.Wait(); err != nil {
		return secondWave{}, err
	}
	return w, nil
}

// guard wraps a lookup so NOT_FOUND becomes an absent fact, panics become
// errors, and failures are counted.
func (b *Builder) guard(ctx context.Context, collaborator string, lookup func() error) func() error {
	return func() (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				b.logger.ErrorContext(ctx, "collaborator panicked during context build",
					"collaborator", collaborator,
					"panic", recovered,
				)
				lookupErrors.WithLabelValues(collaborator).Inc()
				err = oops.In("decision").
					With("collaborator", collaborator).
					Errorf("collaborator panicked: %v", recovered)
			}
		}()

		lookupErr := lookup()
		switch {
		case lookupErr == nil:
			return nil
		case types.IsNotFound(lookupErr):
			missingFacts.WithLabelValues(collaborator).Inc()
			b.logger.DebugContext(ctx, "fact not found", "collaborator", collaborator, "error", lookupErr)
			return nil
		default:
			lookupErrors.WithLabelValues(collaborator).Inc()
			return fmt.Errorf("%s lookup: %w", collaborator, lookupErr)
		}
	}
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if types.SameID(candidate, id) {
			return true
		}
	}
	return false
}

// intersectIDs returns the ids of a that also appear in b, in a's order,
// without duplicates.
func intersectIDs(a, b []string) []string {
	var out []string
	for _, id := range a {
		if containsID(b, id) && !containsID(out, id) {
			out = append(out, id)
		}
	}
	return out
}
