package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/sliceline/pizzeria-backend/pkg/db/models"
	"github.com/sliceline/pizzeria-backend/pkg/types"
)

// CreateInput is the checkout payload. PaymentMethod is fixed by the route,
// not the body. Delivery orders reference a saved address or carry a new one
// inline.
type CreateInput struct {
	AddressID     *uuid.UUID    `json:"address_id" validate:"omitempty"`
	NewAddress    *AddressInput `json:"new_address" validate:"omitempty"`
	DeliveryType  string        `json:"delivery_type" validate:"required,oneof=delivery pickup"`
	CustomerNotes *string       `json:"customer_notes" validate:"omitempty,max=500"`
}

// AddressInput is an inline shipping address supplied at checkout.
type AddressInput struct {
	Label      string  `json:"label" validate:"omitempty,max=50"`
	Line1      string  `json:"line1" validate:"required,max=200"`
	Line2      *string `json:"line2" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"required,max=100"`
	PostalCode string  `json:"postal_code" validate:"required,max=20"`
	Phone      string  `json:"phone" validate:"required,max=30"`
}

// CancelInput carries the customer's cancellation reason.
type CancelInput struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// UpdateStatusInput is the staff payload for advancing an order.
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"omitempty,max=500"`
}

// ReviewInput attaches a rating to a delivered order.
type ReviewInput struct {
	Rating  int     `json:"rating" validate:"required,gte=1,lte=5"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

// ListFilters narrows order listings.
type ListFilters struct {
	Status *string
}

// ItemResponse is one frozen order line.
type ItemResponse struct {
	ID              uuid.UUID               `json:"id"`
	PizzaID         uuid.UUID               `json:"pizza_id"`
	Name            string                  `json:"name"`
	Size            string                  `json:"size"`
	UnitPrice       int                     `json:"unit_price"`
	Quantity        int                     `json:"quantity"`
	ExtraCheese     bool                    `json:"extra_cheese"`
	ExtraToppings   types.ToppingSelections `json:"extra_toppings,omitempty"`
	RemovedToppings []string                `json:"removed_toppings,omitempty"`
	Instructions    *string                 `json:"instructions,omitempty"`
	TotalPrice      int                     `json:"total_price"`
}

// StatusEventResponse is one entry of the status log.
type StatusEventResponse struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Response is the full order payload.
type Response struct {
	ID                    uuid.UUID             `json:"id"`
	OrderNumber           string                `json:"order_number"`
	Items                 []ItemResponse        `json:"items"`
	Subtotal              int                   `json:"subtotal"`
	Tax                   int                   `json:"tax"`
	DeliveryFee           int                   `json:"delivery_fee"`
	DiscountAmount        int                   `json:"discount_amount"`
	DiscountCode          *string               `json:"discount_code,omitempty"`
	Total                 int                   `json:"total"`
	ShippingAddress       *types.Address        `json:"shipping_address,omitempty"`
	DeliveryType          string                `json:"delivery_type"`
	PaymentMethod         string                `json:"payment_method"`
	PaymentStatus         string                `json:"payment_status"`
	Status                string                `json:"status"`
	StatusHistory         []StatusEventResponse `json:"status_history,omitempty"`
	CustomerNotes         *string               `json:"customer_notes,omitempty"`
	CancelReason          *string               `json:"cancel_reason,omitempty"`
	EstimatedDeliveryTime *time.Time            `json:"estimated_delivery_time,omitempty"`
	ActualDeliveryTime    *time.Time            `json:"actual_delivery_time,omitempty"`
	Rating                *int                  `json:"rating,omitempty"`
	ReviewComment         *string               `json:"review_comment,omitempty"`
	CreatedAt             time.Time             `json:"created_at"`
}

// List is a cursor-paginated order collection.
type List struct {
	Orders     []Response `json:"orders"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

func toItemResponse(item *models.OrderItem) ItemResponse {
	return ItemResponse{
		ID:              item.ID,
		PizzaID:         item.PizzaID,
		Name:            item.Name,
		Size:            string(item.Size),
		UnitPrice:       item.UnitPrice,
		Quantity:        item.Quantity,
		ExtraCheese:     item.ExtraCheese,
		ExtraToppings:   item.ExtraToppings,
		RemovedToppings: item.RemovedToppings,
		Instructions:    item.Instructions,
		TotalPrice:      item.TotalPrice,
	}
}

func toResponse(order *models.Order) *Response {
	items := make([]ItemResponse, 0, len(order.Items))
	for i := range order.Items {
		items = append(items, toItemResponse(&order.Items[i]))
	}
	history := make([]StatusEventResponse, 0, len(order.StatusHistory))
	for _, event := range order.StatusHistory {
		history = append(history, StatusEventResponse{
			Status:    string(event.Status),
			Note:      event.Note,
			CreatedAt: event.CreatedAt,
		})
	}
	return &Response{
		ID:                    order.ID,
		OrderNumber:           order.OrderNumber,
		Items:                 items,
		Subtotal:              order.Subtotal,
		Tax:                   order.Tax,
		DeliveryFee:           order.DeliveryFee,
		DiscountAmount:        order.DiscountAmount,
		DiscountCode:          order.DiscountCode,
		Total:                 order.Total,
		ShippingAddress:       order.ShippingAddress,
		DeliveryType:          string(order.DeliveryType),
		PaymentMethod:         string(order.PaymentMethod),
		PaymentStatus:         string(order.PaymentStatus),
		Status:                string(order.Status),
		StatusHistory:         history,
		CustomerNotes:         order.CustomerNotes,
		CancelReason:          order.CancelReason,
		EstimatedDeliveryTime: order.EstimatedDeliveryTime,
		ActualDeliveryTime:    order.ActualDeliveryTime,
		Rating:                order.Rating,
		ReviewComment:         order.ReviewComment,
		CreatedAt:             order.CreatedAt,
	}
}
