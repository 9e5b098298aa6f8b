package model

// Hospital is the singleton aggregate root administrators attach to. It is
// created once per deployment and never soft-deleted.
type Hospital struct {
	Base
	Name        string `json:"name" db:"name"`
	Address     string `json:"address" db:"address"`
	Description string `json:"description" db:"description"`
}

type CreateHospitalRequest struct {
	Name        string `json:"name" binding:"required"`
	Address     string `json:"address" binding:"required"`
	Description string `json:"description"`
}

type UpdateHospitalRequest struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
}
