package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sliceline/pizzeria-backend/pkg/enums"
	"github.com/sliceline/pizzeria-backend/pkg/types"
)

// OrderItem is the frozen copy of one cart line at checkout time.
type OrderItem struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	PizzaID         uuid.UUID               `gorm:"column:pizza_id;type:uuid;not null"`
	Name            string                  `gorm:"column:name;not null"`
	Size            enums.PizzaSize         `gorm:"column:size;type:text;not null"`
	UnitPrice       int                     `gorm:"column:unit_price;not null"`
	Quantity        int                     `gorm:"column:quantity;not null"`
	ExtraCheese     bool                    `gorm:"column:extra_cheese;not null;default:false"`
	ExtraToppings   types.ToppingSelections `gorm:"column:extra_toppings;type:jsonb;serializer:json"`
	RemovedToppings pq.StringArray          `gorm:"column:removed_toppings;type:text[]"`
	Instructions    *string                 `gorm:"column:instructions"`
	TotalPrice      int                     `gorm:"column:total_price;not null"`
}
