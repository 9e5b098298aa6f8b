package model

import (
	"time"

	"github.com/google/uuid"
)

// PrincipalKind discriminates the authenticatable account kinds.
type PrincipalKind string

const (
	KindAdministrator PrincipalKind = "administrator"
	KindNurse         PrincipalKind = "nurse"
	KindDoctor        PrincipalKind = "doctor"
	KindPatient       PrincipalKind = "patient"
)

// Lifecycle status constants. Status is the single authoritative lifecycle
// state; the deleted flag is derived from it, never set independently.
const (
	StatusActive  = "active"
	StatusOnLeave = "on_leave"
)

// Principal represents any authenticatable account. Kind-specific fields are
// nullable: HospitalID is set only for administrators, DepartmentID only for
// nurses and doctors.
type Principal struct {
	Base
	Kind                  PrincipalKind `json:"kind" db:"kind"`
	Username              string        `json:"username" db:"username"`
	Email                 string        `json:"email" db:"email"`
	Password              string        `json:"password,omitempty" db:"-"`
	PasswordHash          string        `json:"-" db:"password_hash"`
	Name                  string        `json:"name" db:"name"`
	Surname               string        `json:"surname" db:"surname"`
	ImageURL              *string       `json:"image_url,omitempty" db:"image_url"`
	Status                string        `json:"status" db:"status"`
	StartDate             time.Time     `json:"start_date" db:"start_date"`
	EndDate               *time.Time    `json:"end_date,omitempty" db:"end_date"`
	HospitalID            *uuid.UUID    `json:"hospital_id,omitempty" db:"hospital_id"`
	DepartmentID          *uuid.UUID    `json:"department_id,omitempty" db:"department_id"`
	RefreshToken          *string       `json:"-" db:"refresh_token"`
	RefreshTokenExpiresAt *time.Time    `json:"-" db:"refresh_token_expires_at"`
}

// IsDeleted reports whether the principal is soft-deleted.
func (p *Principal) IsDeleted() bool {
	return p.Status == StatusOnLeave
}

// PrincipalListItem is the read shape returned by list endpoints.
type PrincipalListItem struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Surname      string     `json:"surname"`
	ImageURL     *string    `json:"image_url,omitempty"`
	Status       string     `json:"status"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	Roles        []string   `json:"roles"`
}

// CreatePrincipalRequest represents principal creation parameters. The image
// file arrives as a separate multipart part and is validated by the service.
type CreatePrincipalRequest struct {
	Username     string     `form:"username" binding:"required"`
	Email        string     `form:"email" binding:"required,email"`
	Password     string     `form:"password" binding:"required,min=8"`
	Name         string     `form:"name" binding:"required"`
	Surname      string     `form:"surname" binding:"required"`
	DepartmentID *uuid.UUID `form:"department_id"`
}

// UpdatePrincipalRequest represents principal update parameters. Nil fields
// are left untouched. A Status transition drives the soft-delete lifecycle.
type UpdatePrincipalRequest struct {
	Username *string `form:"username"`
	Email    *string `form:"email" binding:"omitempty,email"`
	Name     *string `form:"name"`
	Surname  *string `form:"surname"`
	Status   *string `form:"status" binding:"omitempty,workstatus"`
}
