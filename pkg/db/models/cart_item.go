package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sliceline/pizzeria-backend/pkg/enums"
	"github.com/sliceline/pizzeria-backend/pkg/types"
)

// CartItem is one line in a cart: a pizza snapshot plus the customer's
// customizations. TotalPrice is derived by the pricing pass.
type CartItem struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID          uuid.UUID               `gorm:"column:cart_id;type:uuid;not null;index"`
	PizzaID         uuid.UUID               `gorm:"column:pizza_id;type:uuid;not null"`
	Name            string                  `gorm:"column:name;not null"`
	Description     string                  `gorm:"column:description;not null;default:''"`
	ImageURL        string                  `gorm:"column:image_url;not null;default:''"`
	Size            enums.PizzaSize         `gorm:"column:size;type:text;not null"`
	UnitPrice       int                     `gorm:"column:unit_price;not null"`
	Quantity        int                     `gorm:"column:quantity;not null"`
	ExtraCheese     bool                    `gorm:"column:extra_cheese;not null;default:false"`
	ExtraToppings   types.ToppingSelections `gorm:"column:extra_toppings;type:jsonb;serializer:json"`
	RemovedToppings pq.StringArray          `gorm:"column:removed_toppings;type:text[]"`
	Instructions    *string                 `gorm:"column:instructions"`
	TotalPrice      int                     `gorm:"column:total_price;not null;default:0"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// SameLine reports whether other would merge into this line: identical pizza,
// size and customizations.
func (i *CartItem) SameLine(other *CartItem) bool {
	if i.PizzaID != other.PizzaID || i.Size != other.Size || i.ExtraCheese != other.ExtraCheese {
		return false
	}
	if !i.ExtraToppings.Equal(other.ExtraToppings) {
		return false
	}
	if len(i.RemovedToppings) != len(other.RemovedToppings) {
		return false
	}
	for idx := range i.RemovedToppings {
		if i.RemovedToppings[idx] != other.RemovedToppings[idx] {
			return false
		}
	}
	return stringPtrEqual(i.Instructions, other.Instructions)
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
