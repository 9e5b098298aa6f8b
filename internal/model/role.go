package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is a named permission group, many-to-many with principals. A role must
// exist in the registry before it can be assigned.
type Role struct {
	Base
	Name string `json:"name" db:"name"`
}

// PrincipalRole is the membership join row.
type PrincipalRole struct {
	PrincipalID uuid.UUID `json:"principal_id" db:"principal_id"`
	RoleID      uuid.UUID `json:"role_id" db:"role_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type CreateRoleRequest struct {
	Name string `json:"name" binding:"required"`
}

type UpdateRoleRequest struct {
	Name string `json:"name" binding:"required"`
}

// RoleMembershipRequest adds or removes a role for a principal by username.
type RoleMembershipRequest struct {
	Username string `json:"username" binding:"required"`
	Role     string `json:"role" binding:"required"`
}
