package domain

import "errors"

// Role is the authorization role carried by an authenticated principal.
// The string form matches what the upstream API returns and what gets
// persisted in session snapshots.
type Role string

const (
	RoleSuperadmin Role = "SUPERADMIN"
	RoleManager    Role = "MANAGER"
	RoleTechnician Role = "TECHNICIAN"
	RoleAssistant  Role = "ASSISTANT"
	RoleCustomer   Role = "CUSTOMER"
)

// StaffRoles is the administrative role set; everything except the
// customer principal type.
var StaffRoles = []Role{RoleSuperadmin, RoleManager, RoleTechnician, RoleAssistant}

// AllRoles admits any authenticated principal.
var AllRoles = []Role{RoleSuperadmin, RoleManager, RoleTechnician, RoleAssistant, RoleCustomer}

var ErrNotAuthenticated = errors.New("not authenticated")
var ErrForbiddenRole = errors.New("role not permitted")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrSessionExpired = errors.New("session expired")
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// IsValid reports whether r is one of the enumerated roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperadmin, RoleManager, RoleTechnician, RoleAssistant, RoleCustomer:
		return true
	}
	return false
}

// IsStaff reports whether r belongs to the administrative role set.
func (r Role) IsStaff() bool {
	for _, s := range StaffRoles {
		if r == s {
			return true
		}
	}
	return false
}

// Identity models the authenticated principal held client-side.
type Identity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}
