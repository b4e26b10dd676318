// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestToggle_Predicates(t *testing.T) {
	tests := []struct {
		toggle           Toggle
		set, allow, deny bool
		name             string
	}{
		{Unset, false, false, false, "unset"},
		{Allow, true, true, false, "allow"},
		{Deny, true, false, true, "deny"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.set, tt.toggle.IsSet())
			assert.Equal(t, tt.allow, tt.toggle.IsAllow())
			assert.Equal(t, tt.deny, tt.toggle.IsDeny())
			assert.Equal(t, tt.name, tt.toggle.String())
		})
	}
}

func TestToggle_JSONDistinguishesUnsetFromFalse(t *testing.T) {
	var cs ConditionSet
	require.NoError(t, json.Unmarshal([]byte(`{"canVoteForOwnPosts":false,"teamOnly":true,"isHidden":null}`), &cs))

	assert.Equal(t, Deny, cs.CanVoteForOwnPosts)
	assert.Equal(t, Allow, cs.TeamOnly)
	assert.Equal(t, Unset, cs.IsHidden)
	assert.Equal(t, Unset, cs.OnlyTeamLead)

	out, err := json.Marshal(cs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"canVoteForOwnPosts":false,"teamOnly":true}`, string(out))
}

func TestToggle_YAMLDistinguishesUnsetFromFalse(t *testing.T) {
	var cs ConditionSet
	require.NoError(t, yaml.Unmarshal([]byte("canVoteForOwnPosts: false\nrequiresTeamMembership: true\nisHidden: ~\n"), &cs))

	assert.Equal(t, Deny, cs.CanVoteForOwnPosts)
	assert.Equal(t, Allow, cs.RequiresTeamMembership)
	assert.Equal(t, Unset, cs.IsHidden)

	out, err := yaml.Marshal(cs)
	require.NoError(t, err)
	assert.Equal(t, "requiresTeamMembership: true\ncanVoteForOwnPosts: false\n", string(out))
}

func TestToggle_RejectsNonBoolean(t *testing.T) {
	var cs ConditionSet
	assert.Error(t, json.Unmarshal([]byte(`{"teamOnly":"yes please"}`), &cs))
	assert.Error(t, yaml.Unmarshal([]byte("teamOnly: [1]\n"), &cs))
}
