// Package model holds the domain entities shared across services,
// repositories, and the HTTP layer.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the membership role of a household member.
type Role string

// Membership roles.
const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether the role is one of the known membership roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}

	return false
}

// Household is the top-level tenant. Goals, decisions, budget policy, and
// periods are all scoped to a household.
type Household struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a person inside a household. Discretionary allowance is tracked
// per member.
type Member struct {
	ID          uuid.UUID `json:"id"`
	HouseholdID uuid.UUID `json:"household_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
}
