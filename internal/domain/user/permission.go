package user

type Permission string

const (
	// Schedule Management
	PermissionScheduleView   Permission = "schedule.view"
	PermissionScheduleManage Permission = "schedule.manage"
	PermissionAssignManage   Permission = "schedule.assign"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionScheduleView,
		PermissionScheduleManage,
		PermissionAssignManage,
	},
	RoleManager: {
		PermissionScheduleView,
		PermissionScheduleManage,
		PermissionAssignManage,
	},
	RoleEmployee: {
		PermissionScheduleView,
	},
	RolePending: {},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}
