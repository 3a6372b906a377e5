package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sliceline/pizzeria-backend/internal/catalog"
	"github.com/sliceline/pizzeria-backend/pkg/config"
	"github.com/sliceline/pizzeria-backend/pkg/db/models"
	"github.com/sliceline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/sliceline/pizzeria-backend/pkg/errors"
	"github.com/sliceline/pizzeria-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the cart mutation and read surface. Every mutation
// recomputes the derived totals server-side and slides the cart expiry.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*Response, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*Response, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*Response, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*Response, error)
	Clear(ctx context.Context, userID uuid.UUID) (*Response, error)
	ApplyDiscount(ctx context.Context, userID uuid.UUID, code string) (*Response, error)
	RemoveDiscount(ctx context.Context, userID uuid.UUID) (*Response, error)
}

type service struct {
	repo      Repository
	catalog   catalog.Repository
	tx        txRunner
	pricing   config.PricingConfig
	discounts *RuleSet
	now       func() time.Time
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, catalogRepo catalog.Repository, tx txRunner, pricing config.PricingConfig, discounts *RuleSet) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if discounts == nil {
		return nil, fmt.Errorf("discount rules required")
	}
	return &service{
		repo:      repo,
		catalog:   catalogRepo,
		tx:        tx,
		pricing:   pricing,
		discounts: discounts,
		now:       time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*Response, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	cart, err := s.repo.FindActiveCartByUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return emptyResponse(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if cart.IsExpired(s.now()) {
		if err := s.repo.DeactivateCart(ctx, cart.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire cart")
		}
		return emptyResponse(), nil
	}

	return toResponse(cart), nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*Response, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.PizzaID == uuid.Nil {
		return nil, pkgerrors.Validation("pizza id required")
	}

	size, err := enums.ParsePizzaSize(input.Size)
	if err != nil {
		return nil, pkgerrors.Validation(fmt.Sprintf("invalid size %q", input.Size))
	}
	quantity := s.clampQuantity(input.Quantity)

	pizza, err := s.catalog.FindPizzaByID(ctx, input.PizzaID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.NotFound("pizza not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pizza")
	}
	if !pizza.IsAvailable {
		return nil, pkgerrors.Validation("pizza is currently unavailable")
	}
	sizeOption := pizza.SizeOption(string(size))
	if sizeOption == nil {
		return nil, pkgerrors.Validation(fmt.Sprintf("size %q is not offered for this pizza", size))
	}

	toppings, err := s.resolveToppings(ctx, input.ExtraToppings)
	if err != nil {
		return nil, err
	}

	var cartID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.loadOrCreateCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		cartID = cart.ID

		candidate := &models.CartItem{
			CartID:          cart.ID,
			PizzaID:         pizza.ID,
			Name:            pizza.Name,
			Description:     pizza.Description,
			ImageURL:        pizza.ImageURL,
			Size:            size,
			UnitPrice:       sizeOption.Price,
			Quantity:        quantity,
			ExtraCheese:     input.ExtraCheese,
			ExtraToppings:   toppings,
			RemovedToppings: normalizeNames(input.RemovedToppings),
			Instructions:    input.Instructions,
		}

		merged := false
		for i := range cart.Items {
			existing := &cart.Items[i]
			if existing.SameLine(candidate) {
				newQty := s.clampQuantity(existing.Quantity + quantity)
				existing.Quantity = newQty
				existing.TotalPrice = LineTotal(existing, s.pricing)
				if err := repo.UpdateItem(ctx, existing.ID, map[string]any{
					"quantity":    existing.Quantity,
					"total_price": existing.TotalPrice,
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line")
				}
				merged = true
				break
			}
		}

		if !merged {
			candidate.TotalPrice = LineTotal(candidate, s.pricing)
			if _, err := repo.CreateItem(ctx, candidate); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
			}
			cart.Items = append(cart.Items, *candidate)
		}

		return s.recompute(ctx, repo, cart)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, cartID)
}

func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*Response, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.Validation("item id required")
	}
	quantity = s.clampQuantity(quantity)

	var cartID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.requireActiveCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		cartID = cart.ID

		item, err := repo.FindItem(ctx, cart.ID, itemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.NotFound("cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		item.Quantity = quantity
		item.TotalPrice = LineTotal(item, s.pricing)
		if err := repo.UpdateItem(ctx, item.ID, map[string]any{
			"quantity":    item.Quantity,
			"total_price": item.TotalPrice,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
		}

		for i := range cart.Items {
			if cart.Items[i].ID == item.ID {
				cart.Items[i] = *item
			}
		}
		return s.recompute(ctx, repo, cart)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, cartID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*Response, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.Validation("item id required")
	}

	var cartID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.activeCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		if cart == nil {
			return nil
		}
		cartID = cart.ID

		// removing an item that is already gone succeeds without touching
		// the cart
		if _, err := repo.FindItem(ctx, cart.ID, itemID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		if err := repo.DeleteItem(ctx, itemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
		}

		remaining := cart.Items[:0]
		for i := range cart.Items {
			if cart.Items[i].ID != itemID {
				remaining = append(remaining, cart.Items[i])
			}
		}
		cart.Items = remaining
		return s.recompute(ctx, repo, cart)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, cartID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*Response, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var cartID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.activeCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		if cart == nil {
			return nil
		}
		cartID = cart.ID

		if err := repo.DeleteItemsByCart(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		cart.Items = nil
		cart.DiscountCode = nil
		cart.DiscountPercent = 0
		return s.recompute(ctx, repo, cart)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, cartID)
}

func (s *service) ApplyDiscount(ctx context.Context, userID uuid.UUID, code string) (*Response, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, pkgerrors.Validation("discount code required")
	}

	var cartID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.activeCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		if cart == nil || len(cart.Items) == 0 {
			return pkgerrors.Validation("cart is empty")
		}
		cartID = cart.ID

		subtotal := 0
		for i := range cart.Items {
			subtotal += cart.Items[i].TotalPrice
		}
		_, percent, err := s.discounts.Apply(code, subtotal)
		if err != nil {
			return err
		}

		cart.DiscountCode = &code
		cart.DiscountPercent = percent
		return s.recompute(ctx, repo, cart)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, cartID)
}

func (s *service) RemoveDiscount(ctx context.Context, userID uuid.UUID) (*Response, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var cartID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.activeCart(ctx, repo, userID)
		if err != nil {
			return err
		}
		if cart == nil {
			return nil
		}
		cartID = cart.ID

		cart.DiscountCode = nil
		cart.DiscountPercent = 0
		return s.recompute(ctx, repo, cart)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, cartID)
}

func (s *service) loadOrCreateCart(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindActiveCartByUser(ctx, userID)
	if err == nil {
		if !cart.IsExpired(s.now()) {
			return cart, nil
		}
		if err := repo.DeactivateCart(ctx, cart.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire cart")
		}
	} else if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	fresh := &models.Cart{
		UserID:    userID,
		IsActive:  true,
		ExpiresAt: s.now().Add(s.pricing.CartTTL),
	}
	created, err := repo.CreateCart(ctx, fresh)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

// activeCart returns the user's live cart, or nil when none exists. A user
// without a cart row behaves like a user with an empty cart, so removal-style
// operations treat nil as success.
func (s *service) activeCart(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindActiveCartByUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart.IsExpired(s.now()) {
		if err := repo.DeactivateCart(ctx, cart.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire cart")
		}
		return nil, nil
	}
	return cart, nil
}

func (s *service) requireActiveCart(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindActiveCartByUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.NotFound("cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart.IsExpired(s.now()) {
		if err := repo.DeactivateCart(ctx, cart.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire cart")
		}
		return nil, pkgerrors.NotFound("cart not found")
	}
	return cart, nil
}

// recompute rebuilds the derived totals from the in-memory item list and
// persists them. A discount that no longer qualifies is silently dropped.
func (s *service) recompute(ctx context.Context, repo Repository, cart *models.Cart) error {
	subtotal := 0
	for i := range cart.Items {
		subtotal += cart.Items[i].TotalPrice
	}

	discountAmount := 0
	if cart.DiscountCode != nil {
		amount, percent, err := s.discounts.Apply(*cart.DiscountCode, subtotal)
		if err != nil {
			cart.DiscountCode = nil
			cart.DiscountPercent = 0
		} else {
			discountAmount = amount
			cart.DiscountPercent = percent
		}
	}

	totals := ComputeTotals(cart.Items, discountAmount, s.pricing)
	expiresAt := s.now().Add(s.pricing.CartTTL)

	cart.Subtotal = totals.Subtotal
	cart.Tax = totals.Tax
	cart.DeliveryFee = totals.DeliveryFee
	cart.DiscountAmount = totals.DiscountAmount
	cart.Total = totals.Total
	cart.ItemCount = totals.ItemCount
	cart.ExpiresAt = expiresAt

	updates := map[string]any{
		"subtotal":         totals.Subtotal,
		"tax":              totals.Tax,
		"delivery_fee":     totals.DeliveryFee,
		"discount_amount":  totals.DiscountAmount,
		"discount_code":    cart.DiscountCode,
		"discount_percent": cart.DiscountPercent,
		"total":            totals.Total,
		"item_count":       totals.ItemCount,
		"expires_at":       expiresAt,
	}
	if err := repo.UpdateCart(ctx, cart.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart totals")
	}
	return nil
}

func (s *service) reload(ctx context.Context, cartID uuid.UUID) (*Response, error) {
	if cartID == uuid.Nil {
		return emptyResponse(), nil
	}
	cart, err := s.repo.FindCartByID(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return toResponse(cart), nil
}

func (s *service) resolveToppings(ctx context.Context, names []string) (types.ToppingSelections, error) {
	cleaned := normalizeNames(names)
	if len(cleaned) == 0 {
		return nil, nil
	}

	found, err := s.catalog.FindToppingsByNames(ctx, cleaned)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load toppings")
	}

	byName := make(map[string]int, len(found))
	for _, t := range found {
		if t.IsAvailable {
			byName[t.Name] = t.Price
		}
	}

	selections := make(types.ToppingSelections, 0, len(cleaned))
	for _, name := range cleaned {
		price, ok := byName[name]
		if !ok {
			return nil, pkgerrors.Validation(fmt.Sprintf("topping %q is not available", name))
		}
		selections = append(selections, types.ToppingSelection{Name: name, Price: price})
	}
	return selections, nil
}

func (s *service) clampQuantity(quantity int) int {
	if quantity < 1 {
		return 1
	}
	max := s.pricing.MaxQuantity
	if max > 0 && quantity > max {
		return max
	}
	return quantity
}

func normalizeNames(names []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func emptyResponse() *Response {
	return &Response{Items: []ItemResponse{}}
}
