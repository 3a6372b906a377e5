package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sliceline/pizzeria-backend/pkg/db/models"
	"github.com/sliceline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/sliceline/pizzeria-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog reads plus the admin mutation surface.
type Service interface {
	ListPizzas(ctx context.Context, filters PizzaFilters) ([]PizzaResponse, error)
	GetPizza(ctx context.Context, id uuid.UUID) (*PizzaResponse, error)
	ListToppings(ctx context.Context, includeInactive bool) ([]ToppingResponse, error)
	CreatePizza(ctx context.Context, input CreatePizzaInput) (*PizzaResponse, error)
	UpdatePizza(ctx context.Context, id uuid.UUID, input UpdatePizzaInput) (*PizzaResponse, error)
	DeletePizza(ctx context.Context, id uuid.UUID) error
	CreateTopping(ctx context.Context, input CreateToppingInput) (*ToppingResponse, error)
	UpdateTopping(ctx context.Context, id uuid.UUID, input UpdateToppingInput) (*ToppingResponse, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) ListPizzas(ctx context.Context, filters PizzaFilters) ([]PizzaResponse, error) {
	pizzas, err := s.repo.ListPizzas(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pizzas")
	}
	out := make([]PizzaResponse, 0, len(pizzas))
	for i := range pizzas {
		out = append(out, toPizzaResponse(&pizzas[i]))
	}
	return out, nil
}

func (s *service) GetPizza(ctx context.Context, id uuid.UUID) (*PizzaResponse, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.Validation("pizza id required")
	}
	pizza, err := s.repo.FindPizzaByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.NotFound("pizza not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pizza")
	}
	resp := toPizzaResponse(pizza)
	return &resp, nil
}

func (s *service) ListToppings(ctx context.Context, includeInactive bool) ([]ToppingResponse, error) {
	toppings, err := s.repo.ListToppings(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list toppings")
	}
	out := make([]ToppingResponse, 0, len(toppings))
	for i := range toppings {
		out = append(out, toToppingResponse(&toppings[i]))
	}
	return out, nil
}

func (s *service) CreatePizza(ctx context.Context, input CreatePizzaInput) (*PizzaResponse, error) {
	sizes, err := buildSizes(input.Sizes)
	if err != nil {
		return nil, err
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = "classic"
	}

	pizza := &models.Pizza{
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		ImageURL:     strings.TrimSpace(input.ImageURL),
		Category:     category,
		IsVegetarian: input.IsVegetarian,
		IsAvailable:  true,
		Sizes:        sizes,
	}

	created, err := s.repo.CreatePizza(ctx, pizza)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pizza")
	}
	resp := toPizzaResponse(created)
	return &resp, nil
}

func (s *service) UpdatePizza(ctx context.Context, id uuid.UUID, input UpdatePizzaInput) (*PizzaResponse, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.Validation("pizza id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*input.ImageURL)
	}
	if input.Category != nil {
		updates["category"] = strings.TrimSpace(*input.Category)
	}
	if input.IsVegetarian != nil {
		updates["is_vegetarian"] = *input.IsVegetarian
	}
	if input.IsAvailable != nil {
		updates["is_available"] = *input.IsAvailable
	}

	var sizes []models.PizzaSize
	if input.Sizes != nil {
		var err error
		sizes, err = buildSizes(input.Sizes)
		if err != nil {
			return nil, err
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindPizzaByID(ctx, id); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.NotFound("pizza not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pizza")
		}
		if len(updates) > 0 {
			if err := repo.UpdatePizza(ctx, id, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pizza")
			}
		}
		if sizes != nil {
			for i := range sizes {
				sizes[i].PizzaID = id
			}
			if err := repo.ReplacePizzaSizes(ctx, id, sizes); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace pizza sizes")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetPizza(ctx, id)
}

func (s *service) DeletePizza(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.Validation("pizza id required")
	}
	if _, err := s.repo.FindPizzaByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.NotFound("pizza not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pizza")
	}
	if err := s.repo.DeletePizza(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete pizza")
	}
	return nil
}

func (s *service) CreateTopping(ctx context.Context, input CreateToppingInput) (*ToppingResponse, error) {
	topping := &models.Topping{
		Name:        strings.TrimSpace(input.Name),
		Price:       input.Price,
		IsAvailable: true,
	}
	created, err := s.repo.CreateTopping(ctx, topping)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create topping")
	}
	resp := toToppingResponse(created)
	return &resp, nil
}

func (s *service) UpdateTopping(ctx context.Context, id uuid.UUID, input UpdateToppingInput) (*ToppingResponse, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.Validation("topping id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Price != nil {
		updates["price"] = *input.Price
	}
	if input.IsAvailable != nil {
		updates["is_available"] = *input.IsAvailable
	}
	if len(updates) == 0 {
		return nil, pkgerrors.Validation("no fields to update")
	}

	if err := s.repo.UpdateTopping(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update topping")
	}

	toppings, err := s.repo.ListToppings(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load topping")
	}
	for i := range toppings {
		if toppings[i].ID == id {
			resp := toToppingResponse(&toppings[i])
			return &resp, nil
		}
	}
	return nil, pkgerrors.NotFound("topping not found")
}

func buildSizes(inputs []SizeOptionInput) ([]models.PizzaSize, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.Validation("at least one size is required")
	}
	seen := map[string]bool{}
	sizes := make([]models.PizzaSize, 0, len(inputs))
	for _, in := range inputs {
		size, err := enums.ParsePizzaSize(in.Size)
		if err != nil {
			return nil, pkgerrors.Validation(fmt.Sprintf("invalid size %q", in.Size))
		}
		if seen[in.Size] {
			return nil, pkgerrors.Validation(fmt.Sprintf("duplicate size %q", in.Size))
		}
		seen[in.Size] = true
		sizes = append(sizes, models.PizzaSize{
			Size:       size,
			Price:      in.Price,
			DiameterCM: in.DiameterCM,
		})
	}
	return sizes, nil
}
