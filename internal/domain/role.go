package domain

import "strings"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleBoss  Role = "boss"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleBoss:
		return RoleBoss, true
	}
	return "", false
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Actor is the authenticated employee on whose behalf an operation runs.
type Actor struct {
	EmployeeID int64
	Username   string
	Role       Role
}

// CanChangeRole reports whether actor may assign target to an employee.
func CanChangeRole(actor, target Role) bool {
	switch actor {
	case RoleBoss:
		return target.Valid()
	case RoleAdmin:
		return target == RoleUser
	default:
		return false
	}
}

// CanEditEmployee reports whether actor may edit or delete an employee holding target.
func CanEditEmployee(actor, target Role) bool {
	switch actor {
	case RoleBoss:
		return true
	case RoleAdmin:
		return target == RoleUser
	default:
		return false
	}
}

// CanGeneratePackages covers generate, confirm and cancel.
func CanGeneratePackages(r Role) bool {
	return r.Valid()
}

// CanDeletePackages covers removal of confirmed packages.
func CanDeletePackages(r Role) bool {
	return r == RoleAdmin || r == RoleBoss
}

func CanManageProducts(r Role) bool {
	return r == RoleAdmin || r == RoleBoss
}

func CanManageEmployees(r Role) bool {
	return r == RoleAdmin || r == RoleBoss
}
