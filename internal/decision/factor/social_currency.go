// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package factor

import "github.com/meriter/meriter/internal/decision/types"

// Reasons reported by the social currency factor.
const (
	ReasonSelfVote     = "self-voting requires wallet"
	ReasonTeammateVote = "teammate voting in special community"
)

// SocialCurrency restricts currency based on who is voting for whom. It never
// denies an action; it can only narrow the currency to wallet.
type SocialCurrency struct{}

// NewSocialCurrency creates the relationship-based currency factor.
func NewSocialCurrency() SocialCurrency {
	return SocialCurrency{}
}

// Evaluate returns a wallet-only constraint for self-votes and for teammate
// votes in future-vision and marathon-of-good communities.
func (SocialCurrency) Evaluate(dc types.DecisionContext) types.SocialConstraint {
	if types.SameID(dc.RequesterID, dc.EffectiveBeneficiaryID()) {
		return types.SocialConstraint{WalletOnly: true, Reason: ReasonSelfVote}
	}
	if dc.Community != nil && dc.Community.Type().IsSpecial() && dc.SharesTeam() {
		return types.SocialConstraint{WalletOnly: true, Reason: ReasonTeammateVote}
	}
	return types.SocialConstraint{}
}
