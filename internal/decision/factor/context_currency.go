// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package factor

import (
	"github.com/samber/oops"

	"github.com/meriter/meriter/internal/decision/rules"
	"github.com/meriter/meriter/internal/decision/types"
)

// Reasons reported by the context currency factor.
const (
	ReasonExplicitSource   = "community currency source"
	ReasonFutureVision     = "future-vision votes use wallet"
	ReasonProject          = "project content accepts wallet only"
	ReasonPoll             = "polls accept wallet only"
	ReasonDownvote         = "downvotes use wallet"
	ReasonQuotaNotEligible = "role not eligible for quota"
	ReasonDefaultCurrency  = "quota or wallet"
)

// ContextCurrency picks currency sources from the community and content
// being voted on. It is consulted only when the social factor imposed nothing.
type ContextCurrency struct{}

// NewContextCurrency creates the context-based currency factor.
func NewContextCurrency() ContextCurrency {
	return ContextCurrency{}
}

// Evaluate returns the currency mode for dc. The first matching rule wins.
// A context without a community is a caller bug and returns an error.
func (ContextCurrency) Evaluate(dc types.DecisionContext) (types.CurrencyMode, error) {
	if dc.Community == nil {
		return types.CurrencyMode{}, oops.In("decision").
			Code(types.ErrCodeCurrencyNoCommunity).
			With("requester_id", dc.RequesterID).
			Errorf("currency mode evaluated without a community")
	}

	voting := rules.EffectiveVoting(dc.Community)
	onPublication := dc.Target.Kind == types.TargetPublication

	// 1. explicit community override
	if onPublication && voting.CurrencySource != "" {
		switch voting.CurrencySource {
		case types.CurrencySourceQuotaOnly:
			return types.QuotaOnly(ReasonExplicitSource), nil
		case types.CurrencySourceWalletOnly:
			return types.WalletOnly(ReasonExplicitSource), nil
		case types.CurrencySourceQuotaAndWallet:
			return types.QuotaAndWallet(ReasonExplicitSource), nil
		}
	}

	// 2. future-vision legacy default
	if onPublication && dc.Community.Type() == types.TypeFutureVision {
		return types.WalletOnly(ReasonFutureVision), nil
	}

	// 3.
	if dc.IsProjectContent() {
		return types.WalletOnly(ReasonProject), nil
	}

	// 4. polls are normally routed elsewhere
	if dc.Target.Kind == types.TargetPoll {
		return types.WalletOnly(ReasonPoll), nil
	}

	// 5.
	if dc.Direction == types.DirectionDown {
		return types.WalletOnly(ReasonDownvote), nil
	}

	// 6. default, gated by quota recipients
	role := dc.RequesterRole
	if dc.IsSuperadmin() {
		role = types.RoleSuperadmin
	}
	if !rules.EffectiveMerit(dc.Community).ReceivesQuota(role) {
		return types.WalletOnly(ReasonQuotaNotEligible), nil
	}
	return types.QuotaAndWallet(ReasonDefaultCurrency), nil
}
