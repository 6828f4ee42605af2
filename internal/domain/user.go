package domain

import "time"

// Role is the single enumerated role carried by every portal user.
type Role string

const (
	RoleCustomer     Role = "CUSTOMER"
	RoleSupportAgent Role = "SUPPORT_AGENT"
	RoleTechnician   Role = "TECHNICIAN"
	RoleAdmin        Role = "ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSupportAgent, RoleTechnician, RoleAdmin:
		return true
	}
	return false
}

// AppUser is the portal user record: identity, a single role and the
// address notifications go to.
type AppUser struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName returns the user's name with an explicit fallback when the
// lookup produced an empty value.
func DisplayName(u *AppUser) string {
	if u == nil || u.Name == "" {
		return "Unknown"
	}
	return u.Name
}
