package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a platform account. Role is the user's profile role; the role a user
// plays on a given project lives on ProjectAssignment.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Role constants for user roles.
const (
	RoleAdmin           = "admin"
	RoleUseCaseOwner    = "use-case-owner"
	RoleEthicalExpert   = "ethical-expert"
	RoleMedicalExpert   = "medical-expert"
	RoleTechnicalExpert = "technical-expert"
	RoleLegalExpert     = "legal-expert"
	RoleEducationExpert = "education-expert"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{
	RoleAdmin,
	RoleUseCaseOwner,
	RoleEthicalExpert,
	RoleMedicalExpert,
	RoleTechnicalExpert,
	RoleLegalExpert,
	RoleEducationExpert,
}

// IsValidRole checks if the given role is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user holds the admin profile role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
