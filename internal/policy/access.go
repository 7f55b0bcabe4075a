package policy

// StaffingSnapshot is a project's staffing at a point in time: the three
// named role slots plus the distinct developer IDs derived from task
// assignments. It is a plain value so the policy stays free of I/O.
type StaffingSnapshot struct {
	ProjectID    uint
	ProjectName  string
	ManagerID    *uint
	TeamLeadID   *uint
	DesignerID   *uint
	DeveloperIDs []uint
}

// HasDeveloper reports whether the user holds at least one task assignment
// in the project.
func (s StaffingSnapshot) HasDeveloper(userID uint) bool {
	for _, id := range s.DeveloperIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// CanAccessProjectChat decides whether a user may read or write a project's
// chat. Admins are always authorized; everyone else needs a staffing
// relationship on this specific project: the matching named slot for their
// role, or, for developers, at least one assigned task.
func CanAccessProjectChat(snap StaffingSnapshot, userID uint, role Role) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleManager:
		return snap.ManagerID != nil && *snap.ManagerID == userID
	case RoleTeamLead:
		return snap.TeamLeadID != nil && *snap.TeamLeadID == userID
	case RoleDesigner:
		return snap.DesignerID != nil && *snap.DesignerID == userID
	case RoleDeveloper:
		return snap.HasDeveloper(userID)
	default:
		return false
	}
}

// DefaultVisibility computes the role set a message is visible to when the
// sender supplied none. Oversight roles (admin, manager) default to a
// private channel between themselves; everyone else posts to the full team
// channel. Oversight senders can widen a message by passing an explicit set.
func DefaultVisibility(senderRole Role) RoleSet {
	switch senderRole {
	case RoleAdmin, RoleManager:
		return NewRoleSet(RoleAdmin, RoleManager)
	default:
		return NewRoleSet(AllRoles...)
	}
}

// ResolveVisibility picks the explicit set when it is non-empty, otherwise
// the role-dependent default. The result is never empty.
func ResolveVisibility(senderRole Role, explicit RoleSet) RoleSet {
	if explicit.IsEmpty() {
		return DefaultVisibility(senderRole)
	}
	return explicit
}
