package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sliceline/pizzeria-backend/pkg/enums"
	"github.com/sliceline/pizzeria-backend/pkg/types"
)

// Order is the immutable snapshot produced from a cart at checkout. Only the
// status fields and the review change after creation; pricing and items are
// frozen.
type Order struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber           string              `gorm:"column:order_number;not null;uniqueIndex"`
	UserID                uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Items                 []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Subtotal              int                 `gorm:"column:subtotal;not null"`
	Tax                   int                 `gorm:"column:tax;not null"`
	DeliveryFee           int                 `gorm:"column:delivery_fee;not null"`
	DiscountAmount        int                 `gorm:"column:discount_amount;not null;default:0"`
	DiscountCode          *string             `gorm:"column:discount_code"`
	Total                 int                 `gorm:"column:total;not null"`
	ShippingAddress       *types.Address      `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	DeliveryType          enums.DeliveryType  `gorm:"column:delivery_type;type:text;not null;default:'delivery'"`
	PaymentMethod         enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus         enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	Status                enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	StatusHistory         []OrderStatusEvent  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CustomerNotes         *string             `gorm:"column:customer_notes"`
	CancelReason          *string             `gorm:"column:cancel_reason"`
	EstimatedDeliveryTime *time.Time          `gorm:"column:estimated_delivery_time"`
	ActualDeliveryTime    *time.Time          `gorm:"column:actual_delivery_time"`
	Rating                *int                `gorm:"column:rating"`
	ReviewComment         *string             `gorm:"column:review_comment"`
	ReviewedAt            *time.Time          `gorm:"column:reviewed_at"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// IsReviewed reports whether a review is already attached.
func (o *Order) IsReviewed() bool {
	return o.ReviewedAt != nil
}
