// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package types

import "github.com/samber/oops"

// Currency names a source of merit.
type Currency string

// Currency constants. CurrencyNone means the caller chooses.
const (
	CurrencyNone   Currency = "none"
	CurrencyQuota  Currency = "quota"
	CurrencyWallet Currency = "wallet"
)

// CurrencyMode says which currency sources an action may draw from.
type CurrencyMode struct {
	AllowedQuota  bool     `json:"allowedQuota" yaml:"allowedQuota"`
	AllowedWallet bool     `json:"allowedWallet" yaml:"allowedWallet"`
	Required      Currency `json:"requiredCurrency" yaml:"requiredCurrency"`
	Reason        string   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// WalletOnly returns a mode that forbids quota and requires wallet.
func WalletOnly(reason string) CurrencyMode {
	return CurrencyMode{AllowedWallet: true, Required: CurrencyWallet, Reason: reason}
}

// QuotaOnly returns a mode that forbids wallet and requires quota.
func QuotaOnly(reason string) CurrencyMode {
	return CurrencyMode{AllowedQuota: true, Required: CurrencyQuota, Reason: reason}
}

// QuotaAndWallet returns a mode where the caller chooses.
func QuotaAndWallet(reason string) CurrencyMode {
	return CurrencyMode{AllowedQuota: true, AllowedWallet: true, Required: CurrencyNone, Reason: reason}
}

// Label returns a short name for the mode, used in metrics and CLI output.
func (m CurrencyMode) Label() string {
	switch {
	case m.AllowedQuota && m.AllowedWallet:
		return "quota-and-wallet"
	case m.AllowedWallet:
		return "wallet-only"
	case m.AllowedQuota:
		return "quota-only"
	default:
		return "none"
	}
}

// Validate checks that at least one source is allowed and that a required
// source is also an allowed one.
func (m CurrencyMode) Validate() error {
	if !m.AllowedQuota && !m.AllowedWallet {
		return oops.In("decision").With("mode", m.Label()).Errorf("currency mode invariant violated: quota and wallet both forbidden")
	}
	if m.Required == CurrencyQuota && !m.AllowedQuota {
		return oops.In("decision").With("mode", m.Label()).Errorf("currency mode invariant violated: quota required but not allowed")
	}
	if m.Required == CurrencyWallet && !m.AllowedWallet {
		return oops.In("decision").With("mode", m.Label()).Errorf("currency mode invariant violated: wallet required but not allowed")
	}
	return nil
}

// SocialConstraint is the outcome of the relationship-based currency factor.
type SocialConstraint struct {
	WalletOnly bool   `json:"walletOnly" yaml:"walletOnly"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Destination is one wallet credit produced by a merit-moving action.
type Destination struct {
	RecipientUserID string  `json:"recipientUserId" yaml:"recipientUserId"`
	CommunityID     string  `json:"communityId" yaml:"communityId"`
	Amount          float64 `json:"amount" yaml:"amount"`
	CurrencyLabel   string  `json:"currencyLabel" yaml:"currencyLabel"`
}

// MeritRoute names the routing rule that produced a merit destination.
type MeritRoute string

// MeritRoute constants.
const (
	RouteNone            MeritRoute = "none"
	RouteDisabled        MeritRoute = "awards-disabled"
	RouteConversion      MeritRoute = "conversion"
	RouteFutureVision    MeritRoute = "future-vision-pool"
	RouteTerminalSink    MeritRoute = "terminal-sink"
	RouteTeamWallet      MeritRoute = "team-wallet"
	RouteCommunityWallet MeritRoute = "community-wallet"
)

// MeritDestination is the ordered list of wallet credits for an action,
// together with the route that produced it. An empty list is valid: the
// merit is extinguished.
type MeritDestination struct {
	Route        MeritRoute    `json:"route" yaml:"route"`
	Destinations []Destination `json:"destinations" yaml:"destinations"`
}

// Total returns the sum of all destination amounts.
func (m MeritDestination) Total() float64 {
	var sum float64
	for _, d := range m.Destinations {
		sum += d.Amount
	}
	return sum
}
