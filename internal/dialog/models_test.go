package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger/infrastructure"
)

func TestNewDialog_Defaults(t *testing.T) {
	d, err := NewDialog(TypeGroup, "team", []string{"u2", "u3"}, "u1")
	require.NoError(t, err)

	assert.Equal(t, TypeGroup, d.Type)
	assert.ElementsMatch(t, []string{"u1", "u2", "u3"}, d.ParticipantIDs)
	assert.Equal(t, []string{"u1"}, d.AdminIDs)
	assert.Equal(t, 5000, d.Settings.MaxParticipants)
	assert.Equal(t, PolicyMembers, d.Settings.WhoCanMessage)
	assert.NotEmpty(t, d.ID)
}

func TestNewDialog_ChannelDefaultsToAdminOnly(t *testing.T) {
	d, err := NewDialog(TypeChannel, "news", nil, "u1")
	require.NoError(t, err)
	assert.Equal(t, PolicyAdmins, d.Settings.WhoCanInvite)
	assert.Equal(t, PolicyAdmins, d.Settings.WhoCanMessage)
}

func TestNewDialog_GroupWithoutName(t *testing.T) {
	_, err := NewDialog(TypeGroup, "", []string{"u2"}, "u1")
	require.Error(t, err)

	var verr *infrastructure.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "name is required for dialog type: group")
}

func TestNewDialog_DirectCapacity(t *testing.T) {
	_, err := NewDialog(TypeDirect, "", []string{"u2", "u3"}, "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many participants: 3, max allowed: 2")
}

func TestValidate_ReportsAllViolationsAtOnce(t *testing.T) {
	d := &Dialog{
		ID:             "d1",
		Type:           TypeGroup,
		ParticipantIDs: []string{"u1", "u1"},
		AdminIDs:       []string{"ghost"},
		Settings:       DefaultSettings(TypeGroup),
	}
	err := d.Validate()
	require.Error(t, err)

	var verr *infrastructure.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 3) // missing name, duplicate, ghost admin
	assert.Contains(t, err.Error(), "duplicate participant: u1")
	assert.Contains(t, err.Error(), "admin ghost is not a participant")
}

func TestAddParticipant(t *testing.T) {
	d, err := NewDialog(TypeGroup, "team", []string{"u2"}, "u1")
	require.NoError(t, err)

	require.NoError(t, d.AddParticipant("u3"))
	assert.True(t, d.HasParticipant("u3"))

	err = d.AddParticipant("u3")
	var conflict *infrastructure.StateConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestAddParticipant_AtCapacity(t *testing.T) {
	d, err := NewDialog(TypeDirect, "", []string{"u2"}, "u1")
	require.NoError(t, err)

	err = d.AddParticipant("u3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many participants")
	assert.False(t, d.HasParticipant("u3"), "failed add must not leak state")
}

func TestRemoveParticipant_DemotesAdmin(t *testing.T) {
	d, err := NewDialog(TypeGroup, "team", []string{"u2"}, "u1")
	require.NoError(t, err)
	require.NoError(t, d.AddAdmin("u2"))

	require.NoError(t, d.RemoveParticipant("u2"))
	assert.False(t, d.HasParticipant("u2"))
	assert.False(t, d.IsAdmin("u2"))
}

func TestRemoveParticipant_RollsBackOnInvalid(t *testing.T) {
	d, err := NewDialog(TypeGroup, "team", nil, "u1")
	require.NoError(t, err)

	err = d.RemoveParticipant("u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialog must have at least one participant")
	assert.Equal(t, []string{"u1"}, d.ParticipantIDs, "failed remove must not leak state")
	assert.Equal(t, []string{"u1"}, d.AdminIDs)
}

func TestParticipantRoundTrip(t *testing.T) {
	d, err := NewDialog(TypeGroup, "team", []string{"u2", "u3"}, "u1")
	require.NoError(t, err)
	before := append([]string(nil), d.ParticipantIDs...)

	require.NoError(t, d.AddParticipant("u4"))
	require.NoError(t, d.RemoveParticipant("u4"))

	assert.ElementsMatch(t, before, d.ParticipantIDs)
}

func TestAddAdmin_DirectDialogRejected(t *testing.T) {
	d, err := NewDialog(TypeDirect, "", []string{"u2"}, "u1")
	require.NoError(t, err)

	err = d.AddAdmin("u2")
	var perr *infrastructure.PermissionError
	require.ErrorAs(t, err, &perr)
}

func TestAddAdmin_RequiresMembership(t *testing.T) {
	d, err := NewDialog(TypeGroup, "team", []string{"u2"}, "u1")
	require.NoError(t, err)

	err = d.AddAdmin("stranger")
	var conflict *infrastructure.StateConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestPolicies(t *testing.T) {
	d, err := NewDialog(TypeGroup, "team", []string{"u2"}, "u1")
	require.NoError(t, err)

	assert.True(t, d.CanUserMessage("u2"))
	assert.False(t, d.CanUserMessage("stranger"))

	d.Settings.WhoCanMessage = PolicyAdmins
	assert.True(t, d.CanUserMessage("u1"))
	assert.False(t, d.CanUserMessage("u2"))

	d.Settings.WhoCanInvite = PolicyEveryone
	assert.True(t, d.CanUserInvite("stranger"))
}

func TestRecipientsFor(t *testing.T) {
	d, err := NewDialog(TypeGroup, "team", []string{"u2", "u3"}, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u2", "u3"}, d.RecipientsFor("u1"))
}

func TestParticipantLeaveTwice(t *testing.T) {
	p, err := NewParticipant("d1", "u1", RoleMember)
	require.NoError(t, err)

	require.NoError(t, p.Leave())
	require.NotNil(t, p.LeftAt)

	err = p.Leave()
	var conflict *infrastructure.StateConflictError
	require.ErrorAs(t, err, &conflict)
}
