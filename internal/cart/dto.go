package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/sliceline/pizzeria-backend/pkg/db/models"
	"github.com/sliceline/pizzeria-backend/pkg/types"
)

// AddItemInput is the payload for adding a pizza to the cart.
type AddItemInput struct {
	PizzaID         uuid.UUID `json:"pizza_id" validate:"required"`
	Size            string    `json:"size" validate:"required,oneof=small medium large extra_large"`
	Quantity        int       `json:"quantity" validate:"required,gte=1,lte=10"`
	ExtraCheese     bool      `json:"extra_cheese"`
	ExtraToppings   []string  `json:"extra_toppings" validate:"omitempty,max=10,dive,min=1"`
	RemovedToppings []string  `json:"removed_toppings" validate:"omitempty,max=10,dive,min=1"`
	Instructions    *string   `json:"instructions" validate:"omitempty,max=500"`
}

// UpdateQuantityInput changes the quantity of one cart line.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=10"`
}

// ApplyDiscountInput redeems a discount code against the cart.
type ApplyDiscountInput struct {
	Code string `json:"code" validate:"required,min=2,max=40"`
}

// ItemResponse is one cart line as returned to clients.
type ItemResponse struct {
	ID              uuid.UUID               `json:"id"`
	PizzaID         uuid.UUID               `json:"pizza_id"`
	Name            string                  `json:"name"`
	Description     string                  `json:"description,omitempty"`
	ImageURL        string                  `json:"image_url,omitempty"`
	Size            string                  `json:"size"`
	UnitPrice       int                     `json:"unit_price"`
	Quantity        int                     `json:"quantity"`
	ExtraCheese     bool                    `json:"extra_cheese"`
	ExtraToppings   types.ToppingSelections `json:"extra_toppings,omitempty"`
	RemovedToppings []string                `json:"removed_toppings,omitempty"`
	Instructions    *string                 `json:"instructions,omitempty"`
	TotalPrice      int                     `json:"total_price"`
}

// Response is the full cart payload with derived totals.
type Response struct {
	ID              uuid.UUID      `json:"id"`
	Items           []ItemResponse `json:"items"`
	Subtotal        int            `json:"subtotal"`
	Tax             int            `json:"tax"`
	DeliveryFee     int            `json:"delivery_fee"`
	DiscountAmount  int            `json:"discount_amount"`
	DiscountCode    *string        `json:"discount_code,omitempty"`
	DiscountPercent int            `json:"discount_percent,omitempty"`
	Total           int            `json:"total"`
	ItemCount       int            `json:"item_count"`
	ExpiresAt       time.Time      `json:"expires_at"`
}

func toItemResponse(item *models.CartItem) ItemResponse {
	return ItemResponse{
		ID:              item.ID,
		PizzaID:         item.PizzaID,
		Name:            item.Name,
		Description:     item.Description,
		ImageURL:        item.ImageURL,
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

func toResponse(cart *models.Cart) *Response {
	items := make([]ItemResponse, 0, len(cart.Items))
	for i := range cart.Items {
		items = append(items, toItemResponse(&cart.Items[i]))
	}
	return &Response{
		ID:              cart.ID,
		Items:           items,
		Subtotal:        cart.Subtotal,
		Tax:             cart.Tax,
		DeliveryFee:     cart.DeliveryFee,
		DiscountAmount:  cart.DiscountAmount,
		DiscountCode:    cart.DiscountCode,
		DiscountPercent: cart.DiscountPercent,
		Total:           cart.Total,
		ItemCount:       cart.ItemCount,
		ExpiresAt:       cart.ExpiresAt,
	}
}
