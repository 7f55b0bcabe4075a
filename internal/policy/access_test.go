package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func uintPtr(v uint) *uint { return &v }

func testSnapshot() StaffingSnapshot {
	return StaffingSnapshot{
		ProjectID:    1,
		ProjectName:  "Atlas",
		ManagerID:    uintPtr(10),
		TeamLeadID:   uintPtr(20),
		DesignerID:   uintPtr(30),
		DeveloperIDs: []uint{40, 41},
	}
}

func TestCanAccessProjectChat(t *testing.T) {
	snap := testSnapshot()

	tests := []struct {
		name   string
		userID uint
		role   Role
		want   bool
	}{
		{"admin always", 99, RoleAdmin, true},
		{"manager on own project", 10, RoleManager, true},
		{"manager on another project", 11, RoleManager, false},
		{"team lead on own project", 20, RoleTeamLead, true},
		{"team lead on another project", 21, RoleTeamLead, false},
		{"designer on own project", 30, RoleDesigner, true},
		{"designer on another project", 31, RoleDesigner, false},
		{"developer with assigned task", 40, RoleDeveloper, true},
		{"developer without assigned task", 42, RoleDeveloper, false},
		{"unknown role", 10, Role("INTERN"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccessProjectChat(snap, tt.userID, tt.role))
		})
	}
}

func TestCanAccessProjectChat_UnstaffedSlots(t *testing.T) {
	snap := StaffingSnapshot{ProjectID: 2, ProjectName: "Bare"}

	assert.True(t, CanAccessProjectChat(snap, 1, RoleAdmin))
	assert.False(t, CanAccessProjectChat(snap, 10, RoleManager))
	assert.False(t, CanAccessProjectChat(snap, 20, RoleTeamLead))
	assert.False(t, CanAccessProjectChat(snap, 30, RoleDesigner))
	assert.False(t, CanAccessProjectChat(snap, 40, RoleDeveloper))
}

func TestDefaultVisibility(t *testing.T) {
	oversight := NewRoleSet(RoleAdmin, RoleManager)
	everyone := NewRoleSet(AllRoles...)

	assert.Equal(t, oversight.Roles(), DefaultVisibility(RoleAdmin).Roles())
	assert.Equal(t, oversight.Roles(), DefaultVisibility(RoleManager).Roles())
	assert.Equal(t, everyone.Roles(), DefaultVisibility(RoleTeamLead).Roles())
	assert.Equal(t, everyone.Roles(), DefaultVisibility(RoleDeveloper).Roles())
	assert.Equal(t, everyone.Roles(), DefaultVisibility(RoleDesigner).Roles())
}

func TestResolveVisibility(t *testing.T) {
	explicit := NewRoleSet(RoleTeamLead, RoleDeveloper)
	resolved := ResolveVisibility(RoleManager, explicit)
	assert.Equal(t, explicit.Roles(), resolved.Roles())

	resolved = ResolveVisibility(RoleManager, RoleSet{})
	assert.Equal(t, []Role{RoleAdmin, RoleManager}, resolved.Roles())

	resolved = ResolveVisibility(RoleDesigner, RoleSet{})
	assert.Equal(t, 5, resolved.Len())
}

func TestHasDeveloper(t *testing.T) {
	snap := testSnapshot()
	assert.True(t, snap.HasDeveloper(41))
	assert.False(t, snap.HasDeveloper(30), "designer slot does not count as developer staffing")
}
