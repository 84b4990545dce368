// Package auth resolves who is making a request and decides what they may do.
//
// Identity resolution happens once per request (Resolver). The edge gate and
// the page guard both consult the same Registry of protected prefixes, and
// handlers call Authorize / AuthorizeNotSelf before privileged work.
package auth

import (
	"fmt"
	"strings"
)

// Role is the closed set of clinic roles.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleDentist   Role = "DENTIST"
	RoleAssistant Role = "ASSISTANT"
	RolePatient   Role = "PATIENT"
)

// StaffRoles may see clinic-wide data.
var StaffRoles = []Role{RoleAdmin, RoleDentist, RoleAssistant}

// ParseRole converts a stored role string into a Role. Legacy values written
// by earlier versions of the API are mapped onto the current set.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADMIN":
		return RoleAdmin, nil
	case "DENTIST":
		return RoleDentist, nil
	case "ASSISTANT", "STAFF":
		return RoleAssistant, nil
	case "PATIENT", "CLIENT":
		return RolePatient, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string { return string(r) }

// Identity is the authenticated principal of a single request.
type Identity struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

// Is reports whether the identity holds one of roles.
func (i *Identity) Is(roles ...Role) bool {
	if i == nil {
		return false
	}
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}
