// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAction_ParseAndOrder(t *testing.T) {
	all := AllActions()
	require.Len(t, all, 11)
	for i, a := range all {
		assert.Equal(t, i, a.Ordinal(), a)
		parsed, err := ParseAction(string(a))
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}

	_, err := ParseAction("teleport")
	assert.True(t, HasCode(err, ErrCodeInvalidRequest))

	all[0] = "mutated"
	assert.Equal(t, ActionPostPublication, AllActions()[0], "AllActions must return a copy")
}

func TestAction_TargetKinds(t *testing.T) {
	tests := map[Action]TargetKind{
		ActionPostPublication:   TargetCommunity,
		ActionCreatePoll:        TargetCommunity,
		ActionViewCommunity:     TargetCommunity,
		ActionEditPublication:   TargetPublication,
		ActionDeletePublication: TargetPublication,
		ActionVote:              TargetPublication,
		ActionComment:           TargetPublication,
		ActionEditComment:       TargetComment,
		ActionDeleteComment:     TargetComment,
		ActionEditPoll:          TargetPoll,
		ActionDeletePoll:        TargetPoll,
	}
	for action, kind := range tests {
		assert.Equal(t, kind, action.TargetKind(), action)
		assert.Equal(t, kind != TargetCommunity, action.RequiresResource(), action)
	}
}

func TestRole_Ranking(t *testing.T) {
	assert.True(t, RoleSuperadmin.AtLeast(RoleLead))
	assert.True(t, RoleLead.AtLeast(RoleLead))
	assert.False(t, RoleParticipant.AtLeast(RoleLead))
	assert.False(t, RoleNone.AtLeast(RoleParticipant))
	assert.False(t, RoleNone.Valid())
	assert.Equal(t, "none", RoleNone.String())
	assert.Equal(t, []Role{RoleSuperadmin, RoleLead, RoleParticipant}, RolesByRank())

	role, err := ParseRole("lead")
	require.NoError(t, err)
	assert.Equal(t, RoleLead, role)

	_, err = ParseRole("overlord")
	assert.Error(t, err)
}

func TestCommunityTypeTag(t *testing.T) {
	assert.Equal(t, TypeCustom, CommunityTypeTag("").Normalize())
	assert.True(t, TypeFutureVision.IsSpecial())
	assert.True(t, TypeMarathonOfGood.IsSpecial())
	assert.False(t, TypeTeam.IsSpecial())

	_, err := ParseCommunityTypeTag("guild")
	assert.True(t, HasCode(err, ErrCodeInvalidRequest))
}
