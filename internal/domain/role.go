package domain

// Role is an ordered account role. Comparison goes through Level so the
// hierarchy lives in exactly one place.
type Role string

const (
	RoleUser       Role = "USER"
	RoleManager    Role = "MANAGER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

// AllRoles contains all valid roles in ascending order of privilege.
var AllRoles = []Role{RoleUser, RoleManager, RoleAdmin, RoleSuperAdmin}

var roleLevels = map[Role]int{
	RoleUser:       0,
	RoleManager:    1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// Level returns the role's position in the hierarchy. Unknown roles rank
// below USER so a corrupt value never grants access.
func (r Role) Level() int {
	if lvl, ok := roleLevels[r]; ok {
		return lvl
	}
	return -1
}

// AtLeast reports whether r carries at least the privilege of other.
func (r Role) AtLeast(other Role) bool {
	return r.Level() >= other.Level() && r.Level() >= 0
}

// IsValid checks if a role is valid
func (r Role) IsValid() bool {
	_, ok := roleLevels[r]
	return ok
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}
