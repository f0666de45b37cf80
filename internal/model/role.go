package model

// Role is a user's authorization level.
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// AllRoles lists every role in ascending privilege.
var AllRoles = []Role{RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin}

func (r Role) bit() RoleSet {
	switch r {
	case RoleUser:
		return 1 << 0
	case RoleGuide:
		return 1 << 1
	case RoleLeadGuide:
		return 1 << 2
	case RoleAdmin:
		return 1 << 3
	default:
		return 0
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.bit() != 0
}

// RoleSet is an immutable set of roles a route accepts.
type RoleSet uint8

// NewRoleSet builds a set; unknown roles are ignored.
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s |= r.bit()
	}
	return s
}

// Contains reports membership. Unknown roles are never members.
func (s RoleSet) Contains(r Role) bool {
	b := r.bit()
	return b != 0 && s&b != 0
}

// Roles returns the members in AllRoles order.
func (s RoleSet) Roles() []Role {
	var out []Role
	for _, r := range AllRoles {
		if s.Contains(r) {
			out = append(out, r)
		}
	}
	return out
}
