package models

import (
	"github.com/google/uuid"

	"github.com/sliceline/pizzeria-backend/pkg/enums"
)

// PizzaSize maps one offered size of a pizza to its price and diameter.
type PizzaSize struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PizzaID    uuid.UUID       `gorm:"column:pizza_id;type:uuid;not null;index"`
	Size       enums.PizzaSize `gorm:"column:size;type:text;not null"`
	Price      int             `gorm:"column:price;not null"`
	DiameterCM int             `gorm:"column:diameter_cm;not null;default:0"`
}
