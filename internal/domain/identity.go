package domain

import "time"

// Role enumerates the principal roles known to the platform.
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleNGO    Role = "ngo"
	RoleAdmin  Role = "admin"
)

// ValidRegistrationRole reports whether a role may be chosen at registration.
// Administrator accounts are provisioned out of band, never self-registered.
func ValidRegistrationRole(r Role) bool {
	return r == RoleFarmer || r == RoleNGO
}

// Identity is the domain model for a registered principal.
type Identity struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	Role          Role
	Phone         string
	Location      string
	EmailVerified bool
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
