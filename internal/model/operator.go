package model

import (
	"strings"

	"github.com/google/uuid"
)

// Operator represents a back-office operator
type Operator struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Email    string    `json:"email" db:"email"`
	Phone    string    `json:"phone,omitempty" db:"phone"`
	IsActive bool      `json:"is_active" db:"is_active"`
}

// OperatorRequest is the body used to create or overwrite an operator.
// A nil IsActive means true on creation and "unchanged" on update.
type OperatorRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=20"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// Validate validates the operator request
func (r *OperatorRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	return validateStruct(r)
}
