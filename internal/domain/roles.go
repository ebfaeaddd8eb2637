package domain

type Role string

// The role set is closed; the users.role CHECK constraint mirrors it.
const (
	RoleUser  Role = "user"  // chat, read FAQs
	RoleStaff Role = "staff" // + manage FAQs, upload documents
	RoleAdmin Role = "admin" // + change roles
)

// Roles lists every assignable role, lowest privilege first.
var Roles = []Role{RoleUser, RoleStaff, RoleAdmin}

// IsValidRole is case-sensitive: "Admin" is not a role.
func IsValidRole(r string) bool {
	for _, known := range Roles {
		if r == string(known) {
			return true
		}
	}
	return false
}
