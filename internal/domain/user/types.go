package user

import "parking-booking/internal/pkg/errs"

var (
	ErrInvalidRole   = errs.Kind("invalid role", errs.ErrValidation)
	ErrAdminRequired = errs.Kind("admin access required", errs.ErrForbidden)
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

func NewRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}
