package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Maintains templates and assignments
	RoleEmployee Role = "employee" // Regular employee
	RolePending  Role = "pending"  // Still in onboarding
)

// CanManageSchedules reports whether the role may change templates or assignments.
func (r Role) CanManageSchedules() bool {
	return HasPermission(r, PermissionScheduleManage)
}
