package shared

// Permissions guarding the role service's own surface.
const (
	PermRolesView   = "roles.view"
	PermRolesManage = "roles.manage"

	PermPermissionsView   = "permissions.view"
	PermPermissionsManage = "permissions.manage"

	PermAssignmentsView   = "assignments.view"
	PermAssignmentsManage = "assignments.manage"

	PermUsersSearch = "users.search"
)

// CoreScopes lists all permissions the service checks against itself.
func CoreScopes() []string {
	return []string{
		PermRolesView,
		PermRolesManage,
		PermPermissionsView,
		PermPermissionsManage,
		PermAssignmentsView,
		PermAssignmentsManage,
		PermUsersSearch,
	}
}
