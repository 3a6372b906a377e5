package address

import (
	"time"

	"github.com/google/uuid"

	"github.com/sliceline/pizzeria-backend/pkg/db/models"
)

// CreateInput is the payload for adding an address book entry.
type CreateInput struct {
	Label      string  `json:"label" validate:"omitempty,max=50"`
	Line1      string  `json:"line1" validate:"required,max=200"`
	Line2      *string `json:"line2" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"required,max=100"`
	PostalCode string  `json:"postal_code" validate:"required,max=20"`
	Phone      string  `json:"phone" validate:"required,max=30"`
	IsDefault  bool    `json:"is_default"`
}

// UpdateInput carries partial edits to an existing entry.
type UpdateInput struct {
	Label      *string `json:"label" validate:"omitempty,max=50"`
	Line1      *string `json:"line1" validate:"omitempty,max=200"`
	Line2      *string `json:"line2" validate:"omitempty,max=200"`
	City       *string `json:"city" validate:"omitempty,max=100"`
	State      *string `json:"state" validate:"omitempty,max=100"`
	PostalCode *string `json:"postal_code" validate:"omitempty,max=20"`
	Phone      *string `json:"phone" validate:"omitempty,max=30"`
	IsDefault  *bool   `json:"is_default"`
}

// Response is the address book entry payload.
type Response struct {
	ID         uuid.UUID `json:"id"`
	Label      string    `json:"label"`
	Line1      string    `json:"line1"`
	Line2      *string   `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Phone      string    `json:"phone"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
}

func toResponse(address *models.Address) *Response {
	return &Response{
		ID:         address.ID,
		Label:      address.Label,
		Line1:      address.Line1,
		Line2:      address.Line2,
		City:       address.City,
		State:      address.State,
		PostalCode: address.PostalCode,
		Phone:      address.Phone,
		IsDefault:  address.IsDefault,
		CreatedAt:  address.CreatedAt,
	}
}
