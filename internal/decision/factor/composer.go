// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package factor

import "github.com/meriter/meriter/internal/decision/types"

// SocialEvaluator is the relationship-based currency factor.
type SocialEvaluator interface {
	Evaluate(dc types.DecisionContext) types.SocialConstraint
}

// CurrencyEvaluator is the context-based currency factor.
type CurrencyEvaluator interface {
	Evaluate(dc types.DecisionContext) (types.CurrencyMode, error)
}

// Composer merges the two currency factors. A social constraint wins outright
// and the context factor is not consulted; otherwise the context result is
// returned unmodified.
type Composer struct {
	social  SocialEvaluator
	context CurrencyEvaluator
}

// NewComposer creates a Composer. Nil arguments select the default factors.
func NewComposer(social SocialEvaluator, context CurrencyEvaluator) *Composer {
	if social == nil {
		social = NewSocialCurrency()
	}
	if context == nil {
		context = NewContextCurrency()
	}
	return &Composer{social: social, context: context}
}

// Compose returns the currency mode for dc.
func (c *Composer) Compose(dc types.DecisionContext) (types.CurrencyMode, error) {
	if constraint := c.social.Evaluate(dc); constraint.WalletOnly {
		return types.WalletOnly(constraint.Reason), nil
	}
	return c.context.Evaluate(dc)
}
