package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sliceline/pizzeria-backend/pkg/enums"
)

// ContactMessage is a support request submitted through the public contact
// form.
type ContactMessage struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string              `gorm:"column:name;not null"`
	Email          string              `gorm:"column:email;not null"`
	Phone          *string             `gorm:"column:phone"`
	Subject        string              `gorm:"column:subject;not null"`
	Message        string              `gorm:"column:message;not null"`
	Status         enums.ContactStatus `gorm:"column:status;type:text;not null;default:'open'"`
	ResolutionNote *string             `gorm:"column:resolution_note"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
