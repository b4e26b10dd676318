// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package types

import "fmt"

// Reason codes are stable, machine-readable identifiers for decision outcomes.
// Callers localize them; they never change meaning once published.
const (
	CodeSuperadmin          = "permission.superadmin"
	CodeRuleAllowed         = "permission.allowed"
	CodeNoCommunity         = "permission.noCommunity"
	CodeNoResource          = "permission.noResource"
	CodeNoRole              = "permission.noRole"
	CodeNoRule              = "permission.noRule"
	CodeRuleDenied          = "permission.ruleDenied"
	CodeLookupFailed        = "permission.lookupFailed"
	CodeInvalidRequest      = "permission.invalidRequest"
	CodeNotAuthor           = "permission.notAuthor"
	CodeTeamRequired        = "permission.teamMembershipRequired"
	CodeTeamOnly            = "permission.teamOnly"
	CodeLeadOnly            = "permission.leadOnly"
	CodeEditWindowClosed    = "editDisabled.windowClosed"
	CodeDeleteHasVotes      = "deleteDisabled.hasVotes"
	CodeDeleteHasComments   = "deleteDisabled.hasComments"
	CodeHidden              = "permission.hidden"
	CodeVoteIsAuthor        = "voteDisabled.isAuthor"
	CodeVoteSameTeam        = "voteDisabled.sameTeam"
	CodeVoteNotTeamMember   = "voteDisabled.notTeamMember"
	CodeVoteForLead         = "voteDisabled.authorIsLead"
	CodeVoteCommentDisabled = "voteDisabled.commentVoting"
)

// Decision is the outcome of a permission check. The allowed field is
// unexported so a decision cannot be built with a code that contradicts it.
type Decision struct {
	allowed bool
	Code    string
	Reason  string
}

// Allowed returns a granting decision.
func Allowed(code, reason string) Decision {
	return Decision{allowed: true, Code: code, Reason: reason}
}

// Denied returns a refusing decision.
func Denied(code, reason string) Decision {
	return Decision{allowed: false, Code: code, Reason: reason}
}

// IsAllowed reports whether the decision grants the action.
func (d Decision) IsAllowed() bool {
	return d.allowed
}

// Outcome returns "allow" or "deny", used as a metrics label.
func (d Decision) Outcome() string {
	if d.allowed {
		return "allow"
	}
	return "deny"
}

func (d Decision) String() string {
	return fmt.Sprintf("%s (%s): %s", d.Outcome(), d.Code, d.Reason)
}

// MarshalYAML exposes the unexported allowed flag for CLI output.
func (d Decision) MarshalYAML() (any, error) {
	return struct {
		Allowed bool   `yaml:"allowed"`
		Code    string `yaml:"code"`
		Reason  string `yaml:"reason"`
	}{d.allowed, d.Code, d.Reason}, nil
}

// Outcome is the composed result of a decision request.
// Currency is set only for permitted votes.
type Outcome struct {
	Permission Decision      `yaml:"permission"`
	Currency   *CurrencyMode `yaml:"currency,omitempty"`
}
