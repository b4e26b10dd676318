// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package types

import (
	"strings"

	"github.com/samber/oops"
)

// CommunityTypeTag selects rule and currency overrides for a community.
type CommunityTypeTag string

// CommunityTypeTag constants.
const (
	TypeCustom         CommunityTypeTag = "custom"
	TypeMarathonOfGood CommunityTypeTag = "marathon-of-good"
	TypeFutureVision   CommunityTypeTag = "future-vision"
	TypeSupport        CommunityTypeTag = "support"
	TypeTeam           CommunityTypeTag = "team"
)

// Normalize maps the empty tag to TypeCustom.
func (t CommunityTypeTag) Normalize() CommunityTypeTag {
	if t == "" {
		return TypeCustom
	}
	return t
}

// IsSpecial reports whether teammate voting in this type is restricted to wallet.
func (t CommunityTypeTag) IsSpecial() bool {
	t = t.Normalize()
	return t == TypeFutureVision || t == TypeMarathonOfGood
}

// ParseCommunityTypeTag converts a string into a CommunityTypeTag.
func ParseCommunityTypeTag(s string) (CommunityTypeTag, error) {
	switch t := CommunityTypeTag(strings.ToLower(strings.TrimSpace(s))).Normalize(); t {
	case TypeCustom, TypeMarathonOfGood, TypeFutureVision, TypeSupport, TypeTeam:
		return t, nil
	default:
		return "", oops.Code(ErrCodeInvalidRequest).With("type_tag", s).Errorf("unknown community type %q", s)
	}
}

// CurrencySource is an explicit community override of which currency votes use.
type CurrencySource string

// CurrencySource constants. The empty value means no override.
const (
	CurrencySourceQuotaOnly      CurrencySource = "quota-only"
	CurrencySourceWalletOnly     CurrencySource = "wallet-only"
	CurrencySourceQuotaAndWallet CurrencySource = "quota-and-wallet"
)

// VotingRestriction limits who may vote on whose content.
type VotingRestriction string

// VotingRestriction constants.
const (
	VotingRestrictionAny         VotingRestriction = "any"
	VotingRestrictionNotOwn      VotingRestriction = "not-own"
	VotingRestrictionNotSameTeam VotingRestriction = "not-same-team"
)

// VotingSettings are the effective voting settings of a community.
type VotingSettings struct {
	CurrencySource    CurrencySource    `json:"currencySource,omitempty" yaml:"currencySource,omitempty"`
	VotingRestriction VotingRestriction `json:"votingRestriction" yaml:"votingRestriction"`
	AwardsMerits      bool              `json:"awardsMerits" yaml:"awardsMerits"`
	AllowEditByOthers bool              `json:"allowEditByOthers" yaml:"allowEditByOthers"`
}

// VotingSettingsOverride is the stored, partial form of VotingSettings.
// Nil fields fall back to the type defaults.
type VotingSettingsOverride struct {
	CurrencySource    *CurrencySource    `json:"currencySource,omitempty" yaml:"currencySource,omitempty"`
	VotingRestriction *VotingRestriction `json:"votingRestriction,omitempty" yaml:"votingRestriction,omitempty"`
	AwardsMerits      *bool              `json:"awardsMerits,omitempty" yaml:"awardsMerits,omitempty"`
	AllowEditByOthers *bool              `json:"allowEditByOthers,omitempty" yaml:"allowEditByOthers,omitempty"`
}

// MeritSettings are the effective merit settings of a community.
type MeritSettings struct {
	QuotaRecipients []Role `json:"quotaRecipients" yaml:"quotaRecipients"`
	DailyQuota      int    `json:"dailyQuota" yaml:"dailyQuota"`
	CurrencyLabel   string `json:"currencyLabel" yaml:"currencyLabel"`
}

// ReceivesQuota reports whether role is listed as a quota recipient.
func (m MeritSettings) ReceivesQuota(role Role) bool {
	for _, r := range m.QuotaRecipients {
		if r == role {
			return true
		}
	}
	return false
}

// MeritSettingsOverride is the stored, partial form of MeritSettings.
type MeritSettingsOverride struct {
	QuotaRecipients []Role  `json:"quotaRecipients,omitempty" yaml:"quotaRecipients,omitempty"`
	DailyQuota      *int    `json:"dailyQuota,omitempty" yaml:"dailyQuota,omitempty"`
	CurrencyLabel   *string `json:"currencyLabel,omitempty" yaml:"currencyLabel,omitempty"`
}

// MeritConversion reroutes merit earned in a community into another
// community's wallet at the given ratio. A zero ratio means 1.
type MeritConversion struct {
	TargetCommunityID string  `json:"targetCommunityId" yaml:"targetCommunityId"`
	Ratio             float64 `json:"ratio,omitempty" yaml:"ratio,omitempty"`
}

// EffectiveRatio returns the ratio with the default applied.
func (m MeritConversion) EffectiveRatio() float64 {
	if m.Ratio <= 0 {
		return 1
	}
	return m.Ratio
}

// Community is the read-only view of a community the engine consumes.
// PermissionRules, Voting and Merit hold only the stored overrides; the
// effective values are derived by the rules package on every read.
type Community struct {
	ID              string                 `json:"id" yaml:"id"`
	Name            string                 `json:"name,omitempty" yaml:"name,omitempty"`
	TypeTag         CommunityTypeTag       `json:"typeTag,omitempty" yaml:"typeTag,omitempty"`
	Hidden          bool                   `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	PermissionRules []PermissionRule       `json:"permissionRules,omitempty" yaml:"permissionRules,omitempty"`
	Voting          VotingSettingsOverride `json:"votingSettings,omitempty" yaml:"votingSettings,omitempty"`
	Merit           MeritSettingsOverride  `json:"meritSettings,omitempty" yaml:"meritSettings,omitempty"`
	Conversion      *MeritConversion       `json:"meritConversion,omitempty" yaml:"meritConversion,omitempty"`
}

// Type returns the normalized type tag.
func (c *Community) Type() CommunityTypeTag {
	return c.TypeTag.Normalize()
}

// Clone returns a deep copy of the community.
func (c *Community) Clone() *Community {
	if c == nil {
		return nil
	}
	out := *c
	if c.PermissionRules != nil {
		out.PermissionRules = make([]PermissionRule, len(c.PermissionRules))
		for i, r := range c.PermissionRules {
			out.PermissionRules[i] = r.Clone()
		}
	}
	if c.Merit.QuotaRecipients != nil {
		out.Merit.QuotaRecipients = append([]Role(nil), c.Merit.QuotaRecipients...)
	}
	if c.Conversion != nil {
		conv := *c.Conversion
		out.Conversion = &conv
	}
	return &out
}

// User is the read-only view of a platform user.
type User struct {
	ID         string `json:"id" yaml:"id"`
	GlobalRole Role   `json:"globalRole,omitempty" yaml:"globalRole,omitempty"`
}

// IsSuperadmin reports whether the user holds the global superadmin role.
func (u User) IsSuperadmin() bool {
	return u.GlobalRole == RoleSuperadmin
}
