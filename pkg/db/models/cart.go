package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the single active cart owned by a user. Every derived field is
// recomputed from the item list on each mutation; nothing here is trusted from
// the caller.
type Cart struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	Items           []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	Subtotal        int        `gorm:"column:subtotal;not null;default:0"`
	Tax             int        `gorm:"column:tax;not null;default:0"`
	DeliveryFee     int        `gorm:"column:delivery_fee;not null;default:0"`
	DiscountAmount  int        `gorm:"column:discount_amount;not null;default:0"`
	DiscountCode    *string    `gorm:"column:discount_code"`
	DiscountPercent int        `gorm:"column:discount_percent;not null;default:0"`
	Total           int        `gorm:"column:total;not null;default:0"`
	ItemCount       int        `gorm:"column:item_count;not null;default:0"`
	IsActive        bool       `gorm:"column:is_active;not null;default:true"`
	ExpiresAt       time.Time  `gorm:"column:expires_at;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsExpired reports whether the cart passed its sliding expiry.
func (c *Cart) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
