// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package factor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/meriter/meriter/internal/decision/rules"
	"github.com/meriter/meriter/internal/decision/types"
)

// CommunityLookup is the read-only community access merit routing needs.
type CommunityLookup interface {
	GetCommunity(ctx context.Context, id string) (*types.Community, error)
	FindByTypeTag(ctx context.Context, tag types.CommunityTypeTag) (*types.Community, error)
}

// MeritDestination computes which wallet receives merit produced by a
// successful currency-consuming action.
type MeritDestination struct {
	communities CommunityLookup
	logger      *slog.Logger
}

// NewMeritDestination creates the merit routing factor. A nil logger uses slog.Default.
func NewMeritDestination(communities CommunityLookup, logger *slog.Logger) *MeritDestination {
	if logger == nil {
		logger = slog.Default()
	}
	if communities == nil {
		communities = noCommunities{}
	}
	return &MeritDestination{communities: communities, logger: logger}
}

// Evaluate routes amount to the effective beneficiary. Missing inputs and
// non-positive amounts yield an empty destination list. Misconfigured
// conversion targets are logged and skipped; other lookup failures are
// returned so merit is never silently dropped on an I/O error.
func (f *MeritDestination) Evaluate(ctx context.Context, dc types.DecisionContext, amount float64) (types.MeritDestination, error) {
	none := types.MeritDestination{Route: types.RouteNone, Destinations: []types.Destination{}}

	recipient := strings.TrimSpace(dc.EffectiveBeneficiaryID())
	if dc.Community == nil || recipient == "" || amount <= 0 {
		return none, nil
	}
	if !rules.EffectiveVoting(dc.Community).AwardsMerits {
		none.Route = types.RouteDisabled
		return none, nil
	}

	// 1. explicit conversion
	if conv := dc.Community.Conversion; conv != nil {
		target, err := f.conversionTarget(ctx, dc.Community, *conv)
		if err != nil {
			return none, err
		}
		if target != nil {
			return single(types.RouteConversion, recipient, target, amount*conv.EffectiveRatio()), nil
		}
	}

	switch dc.Community.Type() {
	case types.TypeMarathonOfGood:
		// 2. cross-community routing into the platform's future-vision pool
		pool, err := f.communities.FindByTypeTag(ctx, types.TypeFutureVision)
		if err == nil && pool == nil {
			err = types.NotFound("community", string(types.TypeFutureVision))
		}
		if err != nil {
			if types.IsNotFound(err) {
				f.logger.WarnContext(ctx, "future-vision community missing, merit not routed",
					"community_id", dc.Community.ID)
				none.Route = types.RouteFutureVision
				return none, nil
			}
			return none, oops.In("decision").
				With("community_id", dc.Community.ID).
				Wrapf(err, "find future-vision community")
		}
		return single(types.RouteFutureVision, recipient, pool, amount), nil
	case types.TypeFutureVision:
		// 3. terminal sink
		none.Route = types.RouteTerminalSink
		return none, nil
	case types.TypeTeam:
		return single(types.RouteTeamWallet, recipient, dc.Community, amount), nil
	default:
		return single(types.RouteCommunityWallet, recipient, dc.Community, amount), nil
	}
}

// conversionTarget loads the conversion target. A nil community with a nil
// error means the conversion is misconfigured and routing should fall through.
func (f *MeritDestination) conversionTarget(ctx context.Context, source *types.Community, conv types.MeritConversion) (*types.Community, error) {
	if strings.TrimSpace(conv.TargetCommunityID) == "" {
		f.logger.WarnContext(ctx, "merit conversion without target, skipping",
			"community_id", source.ID)
		return nil, nil
	}
	target, err := f.communities.GetCommunity(ctx, conv.TargetCommunityID)
	if err != nil {
		if types.IsNotFound(err) {
			f.logger.WarnContext(ctx, "merit conversion target missing, skipping",
				"community_id", source.ID,
				"target_community_id", conv.TargetCommunityID)
			return nil, nil
		}
		return nil, oops.In("decision").
			With("community_id", source.ID).
			With("target_community_id", conv.TargetCommunityID).
			Wrapf(err, "load merit conversion target")
	}
	return target, nil
}

func single(route types.MeritRoute, recipient string, community *types.Community, amount float64) types.MeritDestination {
	return types.MeritDestination{
		Route: route,
		Destinations: []types.Destination{{
			RecipientUserID: recipient,
			CommunityID:     community.ID,
			Amount:          amount,
			CurrencyLabel:   rules.EffectiveMerit(community).CurrencyLabel,
		}},
	}
}

// noCommunities finds nothing.
type noCommunities struct{}

func (noCommunities) GetCommunity(_ context.Context, id string) (*types.Community, error) {
	return nil, types.NotFound("community", id)
}

func (noCommunities) FindByTypeTag(_ context.Context, tag types.CommunityTypeTag) (*types.Community, error) {
	return nil, types.NotFound("community", string(tag))
}
