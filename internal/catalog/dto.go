package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/sliceline/pizzeria-backend/pkg/db/models"
)

// SizeOptionResponse is one purchasable size of a pizza.
type SizeOptionResponse struct {
	Size       string `json:"size"`
	Price      int    `json:"price"`
	DiameterCM int    `json:"diameter_cm,omitempty"`
}

// PizzaResponse is the public catalog shape.
type PizzaResponse struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	ImageURL     string               `json:"image_url"`
	Category     string               `json:"category"`
	IsVegetarian bool                 `json:"is_vegetarian"`
	IsAvailable  bool                 `json:"is_available"`
	Sizes        []SizeOptionResponse `json:"sizes"`
	CreatedAt    time.Time            `json:"created_at"`
}

// ToppingResponse is the public topping shape.
type ToppingResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Price       int       `json:"price"`
	IsAvailable bool      `json:"is_available"`
}

// SizeOptionInput declares one size when creating or replacing a pizza.
type SizeOptionInput struct {
	Size       string `json:"size" validate:"required,oneof=small medium large extra_large"`
	Price      int    `json:"price" validate:"required,gte=0"`
	DiameterCM int    `json:"diameter_cm" validate:"gte=0"`
}

// CreatePizzaInput carries the admin payload for a new catalog entry.
type CreatePizzaInput struct {
	Name         string            `json:"name" validate:"required,min=2,max=120"`
	Description  string            `json:"description" validate:"max=1000"`
	ImageURL     string            `json:"image_url" validate:"omitempty,url"`
	Category     string            `json:"category" validate:"omitempty,max=60"`
	IsVegetarian bool              `json:"is_vegetarian"`
	Sizes        []SizeOptionInput `json:"sizes" validate:"required,min=1,dive"`
}

// UpdatePizzaInput carries partial updates; nil fields stay untouched.
type UpdatePizzaInput struct {
	Name         *string           `json:"name" validate:"omitempty,min=2,max=120"`
	Description  *string           `json:"description" validate:"omitempty,max=1000"`
	ImageURL     *string           `json:"image_url" validate:"omitempty,url"`
	Category     *string           `json:"category" validate:"omitempty,max=60"`
	IsVegetarian *bool             `json:"is_vegetarian"`
	IsAvailable  *bool             `json:"is_available"`
	Sizes        []SizeOptionInput `json:"sizes" validate:"omitempty,min=1,dive"`
}

// CreateToppingInput carries the admin payload for a new topping.
type CreateToppingInput struct {
	Name  string `json:"name" validate:"required,min=2,max=80"`
	Price int    `json:"price" validate:"required,gte=0"`
}

// UpdateToppingInput carries partial topping updates.
type UpdateToppingInput struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=80"`
	Price       *int    `json:"price" validate:"omitempty,gte=0"`
	IsAvailable *bool   `json:"is_available"`
}

func toPizzaResponse(pizza *models.Pizza) PizzaResponse {
	sizes := make([]SizeOptionResponse, 0, len(pizza.Sizes))
	for _, s := range pizza.Sizes {
		sizes = append(sizes, SizeOptionResponse{
			Size:       string(s.Size),
			Price:      s.Price,
			DiameterCM: s.DiameterCM,
		})
	}
	return PizzaResponse{
		ID:           pizza.ID,
		Name:         pizza.Name,
		Description:  pizza.Description,
		ImageURL:     pizza.ImageURL,
		Category:     pizza.Category,
		IsVegetarian: pizza.IsVegetarian,
		IsAvailable:  pizza.IsAvailable,
		Sizes:        sizes,
		CreatedAt:    pizza.CreatedAt,
	}
}

func toToppingResponse(topping *models.Topping) ToppingResponse {
	return ToppingResponse{
		ID:          topping.ID,
		Name:        topping.Name,
		Price:       topping.Price,
		IsAvailable: topping.IsAvailable,
	}
}
