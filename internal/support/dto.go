package support

import (
	"time"

	"github.com/google/uuid"

	"github.com/sliceline/pizzeria-backend/pkg/db/models"
)

// SubmitInput is the public contact-form payload.
type SubmitInput struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Email   string  `json:"email" validate:"required,email,max=254"`
	Phone   *string `json:"phone" validate:"omitempty,max=30"`
	Subject string  `json:"subject" validate:"required,max=200"`
	Message string  `json:"message" validate:"required,max=2000"`
}

// ResolveInput closes a contact message with an optional note.
type ResolveInput struct {
	Note *string `json:"note" validate:"omitempty,max=1000"`
}

// Response is the contact message payload.
type Response struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          *string   `json:"phone,omitempty"`
	Subject        string    `json:"subject"`
	Message        string    `json:"message"`
	Status         string    `json:"status"`
	ResolutionNote *string   `json:"resolution_note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// List is a cursor-paginated contact queue page.
type List struct {
	Messages   []Response `json:"messages"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

func toResponse(message *models.ContactMessage) *Response {
	return &Response{
		ID:             message.ID,
		Name:           message.Name,
		Email:          message.Email,
		Phone:          message.Phone,
		Subject:        message.Subject,
		Message:        message.Message,
		Status:         string(message.Status),
		ResolutionNote: message.ResolutionNote,
		CreatedAt:      message.CreatedAt,
	}
}
