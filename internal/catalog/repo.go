package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sliceline/pizzeria-backend/pkg/db/models"
)

// PizzaFilters narrows catalog listings.
type PizzaFilters struct {
	Category        *string
	Vegetarian      *bool
	Search          string
	IncludeInactive bool
}

// Repository defines persistence operations for the pizza catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListPizzas(ctx context.Context, filters PizzaFilters) ([]models.Pizza, error)
	FindPizzaByID(ctx context.Context, id uuid.UUID) (*models.Pizza, error)
	CreatePizza(ctx context.Context, pizza *models.Pizza) (*models.Pizza, error)
	UpdatePizza(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ReplacePizzaSizes(ctx context.Context, pizzaID uuid.UUID, sizes []models.PizzaSize) error
	DeletePizza(ctx context.Context, id uuid.UUID) error
	ListToppings(ctx context.Context, includeInactive bool) ([]models.Topping, error)
	FindToppingsByNames(ctx context.Context, names []string) ([]models.Topping, error)
	CreateTopping(ctx context.Context, topping *models.Topping) (*models.Topping, error)
	UpdateTopping(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListPizzas(ctx context.Context, filters PizzaFilters) ([]models.Pizza, error) {
	query := r.db.WithContext(ctx).Preload("Sizes").Order("name ASC")
	if !filters.IncludeInactive {
		query = query.Where("is_available = ?", true)
	}
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.Vegetarian != nil {
		query = query.Where("is_vegetarian = ?", *filters.Vegetarian)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var pizzas []models.Pizza
	if err := query.Find(&pizzas).Error; err != nil {
		return nil, err
	}
	return pizzas, nil
}

func (r *repository) FindPizzaByID(ctx context.Context, id uuid.UUID) (*models.Pizza, error) {
	var pizza models.Pizza
	err := r.db.WithContext(ctx).
		Preload("Sizes").
		Where("id = ?", id).
		First(&pizza).Error
	if err != nil {
		return nil, err
	}
	return &pizza, nil
}

func (r *repository) CreatePizza(ctx context.Context, pizza *models.Pizza) (*models.Pizza, error) {
	if err := r.db.WithContext(ctx).Create(pizza).Error; err != nil {
		return nil, err
	}
	return pizza, nil
}

func (r *repository) UpdatePizza(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Pizza{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ReplacePizzaSizes(ctx context.Context, pizzaID uuid.UUID, sizes []models.PizzaSize) error {
	if err := r.db.WithContext(ctx).
		Where("pizza_id = ?", pizzaID).
		Delete(&models.PizzaSize{}).Error; err != nil {
		return err
	}
	if len(sizes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&sizes).Error
}

func (r *repository) DeletePizza(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Pizza{}).Error
}

func (r *repository) ListToppings(ctx context.Context, includeInactive bool) ([]models.Topping, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if !includeInactive {
		query = query.Where("is_available = ?", true)
	}
	var toppings []models.Topping
	if err := query.Find(&toppings).Error; err != nil {
		return nil, err
	}
	return toppings, nil
}

func (r *repository) FindToppingsByNames(ctx context.Context, names []string) ([]models.Topping, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var toppings []models.Topping
	err := r.db.WithContext(ctx).
		Where("name IN ?", names).
		Find(&toppings).Error
	if err != nil {
		return nil, err
	}
	return toppings, nil
}

func (r *repository) CreateTopping(ctx context.Context, topping *models.Topping) (*models.Topping, error) {
	if err := r.db.WithContext(ctx).Create(topping).Error; err != nil {
		return nil, err
	}
	return topping, nil
}

func (r *repository) UpdateTopping(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Topping{}).
		Where("id = ?", id).
		Updates(updates).Error
}
