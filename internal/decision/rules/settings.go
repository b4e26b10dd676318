// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package rules

import "github.com/meriter/meriter/internal/decision/types"

// DefaultCurrencyLabel names merit when a community does not set its own label.
const DefaultCurrencyLabel = "merits"

const defaultDailyQuota = 10

// DefaultVoting returns the voting settings a community type starts from.
// All types currently share the same voting defaults.
func DefaultVoting(types.CommunityTypeTag) types.VotingSettings {
	return types.VotingSettings{
		VotingRestriction: types.VotingRestrictionAny,
		AwardsMerits:      true,
	}
}

// DefaultMerit returns the merit settings a community type starts from.
func DefaultMerit(tag types.CommunityTypeTag) types.MeritSettings {
	recipients := []types.Role{types.RoleSuperadmin, types.RoleLead, types.RoleParticipant}
	if tag.Normalize() == types.TypeSupport {
		recipients = []types.Role{types.RoleSuperadmin, types.RoleLead}
	}
	return types.MeritSettings{
		QuotaRecipients: recipients,
		DailyQuota:      defaultDailyQuota,
		CurrencyLabel:   DefaultCurrencyLabel,
	}
}

// MergeVoting applies the non-nil fields of override onto defaults.
func MergeVoting(defaults types.VotingSettings, override types.VotingSettingsOverride) types.VotingSettings {
	out := defaults
	if override.CurrencySource != nil {
		out.CurrencySource = *override.CurrencySource
	}
	if override.VotingRestriction != nil {
		out.VotingRestriction = *override.VotingRestriction
	}
	if override.AwardsMerits != nil {
		out.AwardsMerits = *override.AwardsMerits
	}
	if override.AllowEditByOthers != nil {
		out.AllowEditByOthers = *override.AllowEditByOthers
	}
	return out
}

// MergeMerit applies the set fields of override onto defaults. A non-nil
// QuotaRecipients slice replaces the default list, even when empty.
func MergeMerit(defaults types.MeritSettings, override types.MeritSettingsOverride) types.MeritSettings {
	out := defaults
	out.QuotaRecipients = append([]types.Role(nil), defaults.QuotaRecipients...)
	if override.QuotaRecipients != nil {
		out.QuotaRecipients = append([]types.Role{}, override.QuotaRecipients...)
	}
	if override.DailyQuota != nil {
		out.DailyQuota = *override.DailyQuota
	}
	if override.CurrencyLabel != nil && *override.CurrencyLabel != "" {
		out.CurrencyLabel = *override.CurrencyLabel
	}
	return out
}

// EffectiveVoting returns the community's voting settings with defaults applied.
func EffectiveVoting(c *types.Community) types.VotingSettings {
	if c == nil {
		return DefaultVoting(types.TypeCustom)
	}
	return MergeVoting(DefaultVoting(c.Type()), c.Voting)
}

// EffectiveMerit returns the community's merit settings with defaults applied.
func EffectiveMerit(c *types.Community) types.MeritSettings {
	if c == nil {
		return DefaultMerit(types.TypeCustom)
	}
	return MergeMerit(DefaultMerit(c.Type()), c.Merit)
}
