package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionStudentsRead allows viewing the marksheet, charts and the live stream.
	PermissionStudentsRead Permission = "students:read"

	// PermissionStudentsWrite allows creating, editing and deleting student records.
	PermissionStudentsWrite Permission = "students:write"

	// PermissionSubjectsWrite allows adding and deleting subjects.
	PermissionSubjectsWrite Permission = "subjects:write"

	// PermissionReportsExport allows downloading XLSX and PDF exports.
	PermissionReportsExport Permission = "reports:export"
)

// Role is a fixed bundle of permissions assigned to a user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleViewer  Role = "viewer"
)

var rolePermissions = map[Role][]Permission{
	RoleAdmin:   {PermissionStudentsRead, PermissionStudentsWrite, PermissionSubjectsWrite, PermissionReportsExport},
	RoleTeacher: {PermissionStudentsRead, PermissionStudentsWrite, PermissionSubjectsWrite, PermissionReportsExport},
	RoleViewer:  {PermissionStudentsRead, PermissionReportsExport},
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permissions returns the permission codes granted to the role.
func (r Role) Permissions() []string {
	perms := rolePermissions[r]
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out
}
