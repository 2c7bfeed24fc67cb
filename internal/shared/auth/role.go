package auth

import (
	"errors"
	"strings"
)

// Role is the privilege level attached to an authenticated user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a stored role string to a Role. Unknown values get the
// least privileged role.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// CanManageFiles reports whether the role may upload or delete registry files.
func (r Role) CanManageFiles() bool {
	return r == RoleAdmin
}

// Identity is what the access gate hands to the services.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// ErrUnknownUser is returned by identity lookups when the token subject no
// longer exists.
var ErrUnknownUser = errors.New("unknown user")
