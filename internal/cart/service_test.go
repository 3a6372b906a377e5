package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sliceline/pizzeria-backend/internal/catalog"
	"github.com/sliceline/pizzeria-backend/pkg/db/models"
	"github.com/sliceline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/sliceline/pizzeria-backend/pkg/errors"
)

type stubCartRepo struct {
	carts map[uuid.UUID]*models.Cart
	items map[uuid.UUID]*models.CartItem
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{
		carts: make(map[uuid.UUID]*models.Cart),
		items: make(map[uuid.UUID]*models.CartItem),
	}
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCartRepo) FindActiveCartByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	for _, c := range s.carts {
		if c.UserID == userID && c.IsActive {
			return s.withItems(c), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) FindCartByID(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	c, ok := s.carts[cartID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s.withItems(c), nil
}

func (s *stubCartRepo) withItems(c *models.Cart) *models.Cart {
	clone := *c
	clone.Items = nil
	for _, item := range s.items {
		if item.CartID == c.ID {
			clone.Items = append(clone.Items, *item)
		}
	}
	return &clone
}

func (s *stubCartRepo) CreateCart(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	stored := *cart
	s.carts[cart.ID] = &stored
	return cart, nil
}

func (s *stubCartRepo) UpdateCart(ctx context.Context, cartID uuid.UUID, updates map[string]any) error {
	c, ok := s.carts[cartID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["subtotal"]; ok {
		c.Subtotal = v.(int)
	}
	if v, ok := updates["tax"]; ok {
		c.Tax = v.(int)
	}
	if v, ok := updates["delivery_fee"]; ok {
		c.DeliveryFee = v.(int)
	}
	if v, ok := updates["discount_amount"]; ok {
		c.DiscountAmount = v.(int)
	}
	if v, ok := updates["discount_code"]; ok {
		if code, isPtr := v.(*string); isPtr {
			c.DiscountCode = code
		}
	}
	if v, ok := updates["discount_percent"]; ok {
		c.DiscountPercent = v.(int)
	}
	if v, ok := updates["total"]; ok {
		c.Total = v.(int)
	}
	if v, ok := updates["item_count"]; ok {
		c.ItemCount = v.(int)
	}
	if v, ok := updates["expires_at"]; ok {
		c.ExpiresAt = v.(time.Time)
	}
	return nil
}

func (s *stubCartRepo) DeactivateCart(ctx context.Context, cartID uuid.UUID) error {
	c, ok := s.carts[cartID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.IsActive = false
	return nil
}

func (s *stubCartRepo) CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	stored := *item
	s.items[item.ID] = &stored
	return item, nil
}

func (s *stubCartRepo) UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error {
	item, ok := s.items[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["quantity"]; ok {
		item.Quantity = v.(int)
	}
	if v, ok := updates["total_price"]; ok {
		item.TotalPrice = v.(int)
	}
	return nil
}

func (s *stubCartRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	delete(s.items, itemID)
	return nil
}

func (s *stubCartRepo) DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) error {
	for id, item := range s.items {
		if item.CartID == cartID {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *stubCartRepo) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	item, ok := s.items[itemID]
	if !ok || item.CartID != cartID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *item
	return &clone, nil
}

type stubCatalog struct {
	pizzas   map[uuid.UUID]*models.Pizza
	toppings []models.Topping
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{pizzas: make(map[uuid.UUID]*models.Pizza)}
}

func (s *stubCatalog) WithTx(tx *gorm.DB) catalog.Repository { return s }

func (s *stubCatalog) ListPizzas(ctx context.Context, filters catalog.PizzaFilters) ([]models.Pizza, error) {
	panic("not implemented")
}

func (s *stubCatalog) FindPizzaByID(ctx context.Context, id uuid.UUID) (*models.Pizza, error) {
	p, ok := s.pizzas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (s *stubCatalog) CreatePizza(ctx context.Context, pizza *models.Pizza) (*models.Pizza, error) {
	panic("not implemented")
}

func (s *stubCatalog) UpdatePizza(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	panic("not implemented")
}

func (s *stubCatalog) ReplacePizzaSizes(ctx context.Context, pizzaID uuid.UUID, sizes []models.PizzaSize) error {
	panic("not implemented")
}

func (s *stubCatalog) DeletePizza(ctx context.Context, id uuid.UUID) error {
	panic("not implemented")
}

func (s *stubCatalog) ListToppings(ctx context.Context, includeInactive bool) ([]models.Topping, error) {
	return s.toppings, nil
}

func (s *stubCatalog) FindToppingsByNames(ctx context.Context, names []string) ([]models.Topping, error) {
	out := []models.Topping{}
	for _, t := range s.toppings {
		for _, name := range names {
			if t.Name == name {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (s *stubCatalog) CreateTopping(ctx context.Context, topping *models.Topping) (*models.Topping, error) {
	panic("not implemented")
}

func (s *stubCatalog) UpdateTopping(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	panic("not implemented")
}

type noopTx struct{}

func (noopTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T) (Service, *stubCartRepo, *stubCatalog, uuid.UUID) {
	t.Helper()
	repo := newStubCartRepo()
	cat := newStubCatalog()
	rules, err := ParseRules(testRuleSpec)
	if err != nil {
		t.Fatalf("parse rules: %v", err)
	}
	cfg := testPricingConfig()
	cfg.CartTTL = 24 * time.Hour
	svc, err := NewService(repo, cat, noopTx{}, cfg, rules)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	pizzaID := uuid.New()
	cat.pizzas[pizzaID] = &models.Pizza{
		ID:          pizzaID,
		Name:        "Margherita",
		IsAvailable: true,
		Sizes: []models.PizzaSize{
			{Size: enums.PizzaSizeMedium, Price: 1200},
			{Size: enums.PizzaSizeLarge, Price: 1600},
		},
	}
	cat.toppings = []models.Topping{
		{ID: uuid.New(), Name: "Olives", Price: 100, IsAvailable: true},
		{ID: uuid.New(), Name: "Anchovies", Price: 150, IsAvailable: false},
	}
	return svc, repo, cat, pizzaID
}

func TestAddItem_PricesLineAndTotals(t *testing.T) {
	svc, _, _, pizzaID := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	resp, err := svc.AddItem(ctx, userID, AddItemInput{
		PizzaID:     pizzaID,
		Size:        "medium",
		Quantity:    2,
		ExtraCheese: true,
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(resp.Items))
	}
	if resp.Items[0].TotalPrice != 2700 {
		t.Fatalf("expected line total 2700, got %d", resp.Items[0].TotalPrice)
	}
	if resp.Subtotal != 2700 || resp.Tax != 270 || resp.DeliveryFee != 200 || resp.Total != 3170 {
		t.Fatalf("unexpected totals %+v", resp)
	}
}

func TestAddItem_MergesIdenticalLines(t *testing.T) {
	svc, _, _, pizzaID := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	input := AddItemInput{PizzaID: pizzaID, Size: "medium", Quantity: 6}
	if _, err := svc.AddItem(ctx, userID, input); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	resp, err := svc.AddItem(ctx, userID, input)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected merged line, got %d lines", len(resp.Items))
	}
	if resp.Items[0].Quantity != 10 {
		t.Fatalf("expected quantity capped at 10, got %d", resp.Items[0].Quantity)
	}
}

func TestAddItem_DistinctCustomizationsStaySeparate(t *testing.T) {
	svc, _, _, pizzaID := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.AddItem(ctx, userID, AddItemInput{PizzaID: pizzaID, Size: "medium", Quantity: 1}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	resp, err := svc.AddItem(ctx, userID, AddItemInput{PizzaID: pizzaID, Size: "medium", Quantity: 1, ExtraCheese: true})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(resp.Items))
	}
}

func TestAddItem_RejectsUnknownSizeOrTopping(t *testing.T) {
	svc, _, _, pizzaID := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.AddItem(ctx, userID, AddItemInput{PizzaID: pizzaID, Size: "small", Quantity: 1})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unoffered size, got %v", err)
	}

	_, err = svc.AddItem(ctx, userID, AddItemInput{
		PizzaID:       pizzaID,
		Size:          "medium",
		Quantity:      1,
		ExtraToppings: []string{"Anchovies"},
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unavailable topping, got %v", err)
	}
}

func TestAddItem_NormalizesRemovedToppings(t *testing.T) {
	svc, _, _, pizzaID := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	resp, err := svc.AddItem(ctx, userID, AddItemInput{
		PizzaID:         pizzaID,
		Size:            "medium",
		Quantity:        1,
		RemovedToppings: []string{"Onions", " Onions ", "", "Olives"},
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(resp.Items))
	}
	got := resp.Items[0].RemovedToppings
	if len(got) != 2 || got[0] != "Onions" || got[1] != "Olives" {
		t.Fatalf("expected deduplicated removals, got %v", got)
	}
}

func TestAddItem_UnavailablePizza(t *testing.T) {
	svc, _, cat, pizzaID := newTestService(t)
	cat.pizzas[pizzaID].IsAvailable = false

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{PizzaID: pizzaID, Size: "medium", Quantity: 1})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateItemQuantity_Reprices(t *testing.T) {
	svc, _, _, pizzaID := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	resp, err := svc.AddItem(ctx, userID, AddItemInput{PizzaID: pizzaID, Size: "medium", Quantity: 1})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	resp, err = svc.UpdateItemQuantity(ctx, userID, resp.Items[0].ID, 3)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if resp.Items[0].Quantity != 3 || resp.Items[0].TotalPrice != 3600 {
		t.Fatalf("unexpected line after update %+v", resp.Items[0])
	}
	if resp.DeliveryFee != 0 {
		t.Fatalf("expected free delivery above threshold, got %d", resp.DeliveryFee)
	}
}

func TestRemoveItem_And_MissingItem(t *testing.T) {
	svc, _, _, pizzaID := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	resp, err := svc.AddItem(ctx, userID, AddItemInput{PizzaID: pizzaID, Size: "medium", Quantity: 1})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	resp, err = svc.RemoveItem(ctx, userID, resp.Items[0].ID)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(resp.Items) != 0 || resp.Total != 0 {
		t.Fatalf("expected empty cart, got %+v", resp)
	}

	// removing it again, or removing an id that was never there, is a no-op
	resp, err = svc.RemoveItem(ctx, userID, uuid.New())
	if err != nil {
		t.Fatalf("remove of absent item should succeed, got %v", err)
	}
	if len(resp.Items) != 0 || resp.Total != 0 {
		t.Fatalf("expected unchanged empty cart, got %+v", resp)
	}
}

func TestRemoveItem_KeepsOtherLinesOnAbsentID(t *testing.T) {
	svc, _, _, pizzaID := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	before, err := svc.AddItem(ctx, userID, AddItemInput{PizzaID: pizzaID, Size: "medium", Quantity: 2})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	after, err := svc.RemoveItem(ctx, userID, uuid.New())
	if err != nil {
		t.Fatalf("remove of absent item should succeed, got %v", err)
	}
	if len(after.Items) != 1 || after.Total != before.Total {
		t.Fatalf("expected cart unchanged, got %+v", after)
	}
}

func TestRemoveItem_NoCartYet(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	resp, err := svc.RemoveItem(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("remove without a cart should succeed, got %v", err)
	}
	if len(resp.Items) != 0 || resp.ItemCount != 0 {
		t.Fatalf("expected empty cart, got %+v", resp)
	}
}

func TestApplyDiscount_WorkedExample(t *testing.T) {
	svc, _, _, pizzaID := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.AddItem(ctx, userID, AddItemInput{PizzaID: pizzaID, Size: "medium", Quantity: 2, ExtraCheese: true}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	resp, err := svc.ApplyDiscount(ctx, userID, "WELCOME10")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if resp.DiscountAmount != 270 || resp.Total != 2900 {
		t.Fatalf("expected 270 off for total 2900, got %d off total %d", resp.DiscountAmount, resp.Total)
	}
	if resp.DiscountCode == nil || *resp.DiscountCode != "WELCOME10" {
		t.Fatalf("expected stored code, got %v", resp.DiscountCode)
	}
}

func TestApplyDiscount_EmptyCart(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	cart := &models.Cart{UserID: userID, IsActive: true, ExpiresAt: time.Now().Add(time.Hour)}
	if _, err := repo.CreateCart(ctx, cart); err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	_, err := svc.ApplyDiscount(ctx, userID, "WELCOME10")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDiscountDroppedWhenBelowMinimum(t *testing.T) {
	svc, _, _, pizzaID := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	resp, err := svc.AddItem(ctx, userID, AddItemInput{PizzaID: pizzaID, Size: "medium", Quantity: 2})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := svc.ApplyDiscount(ctx, userID, "PIZZA20"); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	// dropping to one pizza puts the subtotal below PIZZA20's minimum
	resp, err = svc.UpdateItemQuantity(ctx, userID, resp.Items[0].ID, 1)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if resp.DiscountCode != nil || resp.DiscountAmount != 0 {
		t.Fatalf("expected discount dropped, got %+v", resp)
	}
}

func TestClear_ResetsCart(t *testing.T) {
	svc, _, _, pizzaID := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.AddItem(ctx, userID, AddItemInput{PizzaID: pizzaID, Size: "large", Quantity: 2}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	resp, err := svc.Clear(ctx, userID)
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if len(resp.Items) != 0 || resp.Subtotal != 0 || resp.Total != 0 || resp.ItemCount != 0 {
		t.Fatalf("expected reset cart, got %+v", resp)
	}
}

func TestClear_NoCartYet(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	resp, err := svc.Clear(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("clearing before any cart exists should succeed, got %v", err)
	}
	if len(resp.Items) != 0 || resp.ItemCount != 0 || resp.Total != 0 {
		t.Fatalf("expected empty cart, got %+v", resp)
	}
}

func TestRemoveDiscount_NoCartYet(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	resp, err := svc.RemoveDiscount(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("removing a discount without a cart should succeed, got %v", err)
	}
	if resp.DiscountCode != nil || resp.DiscountAmount != 0 {
		t.Fatalf("expected no discount on empty cart, got %+v", resp)
	}
}

func TestGet_ExpiredCartComesBackEmpty(t *testing.T) {
	svc, repo, _, pizzaID := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.AddItem(ctx, userID, AddItemInput{PizzaID: pizzaID, Size: "medium", Quantity: 1}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	for _, c := range repo.carts {
		c.ExpiresAt = time.Now().Add(-time.Minute)
	}

	resp, err := svc.Get(ctx, userID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(resp.Items) != 0 {
		t.Fatalf("expected empty response for expired cart, got %+v", resp)
	}
}
