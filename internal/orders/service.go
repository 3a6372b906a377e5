package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sliceline/pizzeria-backend/internal/cart"
	"github.com/sliceline/pizzeria-backend/pkg/config"
	"github.com/sliceline/pizzeria-backend/pkg/db/models"
	"github.com/sliceline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/sliceline/pizzeria-backend/pkg/errors"
	"github.com/sliceline/pizzeria-backend/pkg/pagination"
	"github.com/sliceline/pizzeria-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddressReader resolves address book entries at checkout time.
type AddressReader interface {
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Address, error)
}

// Service exposes checkout, the order lifecycle, and order reads.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, method enums.PaymentMethod, input CreateInput) (*Response, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID, input CancelInput) (*Response, error)
	AttachReview(ctx context.Context, userID, orderID uuid.UUID, input ReviewInput) (*Response, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*Response, error)
	GetByNumberForUser(ctx context.Context, userID uuid.UUID, number string) (*Response, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*List, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, input UpdateStatusInput) (*Response, error)
	ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error)
}

type service struct {
	repo      Repository
	cartRepo  cart.Repository
	addresses AddressReader
	tx        txRunner
	pricing   config.PricingConfig
	now       func() time.Time
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, cartRepo cart.Repository, addresses AddressReader, tx txRunner, pricing config.PricingConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:      repo,
		cartRepo:  cartRepo,
		addresses: addresses,
		tx:        tx,
		pricing:   pricing,
		now:       time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, method enums.PaymentMethod, input CreateInput) (*Response, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !method.IsValid() {
		return nil, pkgerrors.Validation(fmt.Sprintf("invalid payment method %q", method))
	}
	deliveryType, err := enums.ParseDeliveryType(input.DeliveryType)
	if err != nil {
		return nil, pkgerrors.Validation(fmt.Sprintf("invalid delivery type %q", input.DeliveryType))
	}

	var shipping *types.Address
	if deliveryType == enums.DeliveryTypeDelivery {
		shipping, err = s.resolveShipping(ctx, userID, input)
		if err != nil {
			return nil, err
		}
	}

	var orderID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		activeCart, err := cartRepo.FindActiveCartByUser(ctx, userID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.Validation("cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(activeCart.Items) == 0 {
			return pkgerrors.Validation("cart is empty")
		}
		if activeCart.IsExpired(s.now()) {
			return pkgerrors.Validation("cart has expired")
		}

		seq, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		now := s.now()
		estimate := now.Add(s.pricing.DeliveryEstimate)
		if deliveryType == enums.DeliveryTypePickup {
			estimate = now.Add(s.pricing.PickupEstimate)
		}

		paymentStatus := enums.PaymentStatusPending
		if method == enums.PaymentMethodCard {
			paymentStatus = enums.PaymentStatusPaid
		}

		deliveryFee := activeCart.DeliveryFee
		total := activeCart.Total
		if deliveryType == enums.DeliveryTypePickup && deliveryFee > 0 {
			total -= deliveryFee
			deliveryFee = 0
			if total < 0 {
				total = 0
			}
		}

		order := &models.Order{
			OrderNumber:           fmt.Sprintf(s.pricing.OrderNumberFormat, seq),
			UserID:                userID,
			Subtotal:              activeCart.Subtotal,
			Tax:                   activeCart.Tax,
			DeliveryFee:           deliveryFee,
			DiscountAmount:        activeCart.DiscountAmount,
			DiscountCode:          activeCart.DiscountCode,
			Total:                 total,
			ShippingAddress:       shipping,
			DeliveryType:          deliveryType,
			PaymentMethod:         method,
			PaymentStatus:         paymentStatus,
			Status:                enums.OrderStatusPending,
			CustomerNotes:         input.CustomerNotes,
			EstimatedDeliveryTime: &estimate,
			Items:                 snapshotItems(activeCart.Items),
		}

		created, err := repo.CreateOrder(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		orderID = created.ID

		event := &models.OrderStatusEvent{
			OrderID: created.ID,
			Status:  enums.OrderStatusPending,
			Note:    "order placed",
		}
		if err := repo.CreateStatusEvent(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record status event")
		}

		// the snapshot lives on the order now; drop the lines so the dead
		// cart row does not keep them around
		if err := cartRepo.DeleteItemsByCart(ctx, activeCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "empty cart")
		}
		if err := cartRepo.DeactivateCart(ctx, activeCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadResponse(ctx, orderID)
}

func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID, input CancelInput) (*Response, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.Validation("order id required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.NotFound("order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		if !order.Status.IsCancellable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %q cannot be cancelled", order.Status))
		}

		updates := map[string]any{
			"status": enums.OrderStatusCancelled,
		}
		if input.Reason != "" {
			updates["cancel_reason"] = input.Reason
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			updates["payment_status"] = enums.PaymentStatusRefunded
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}

		event := &models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  enums.OrderStatusCancelled,
			Note:    input.Reason,
		}
		return repo.CreateStatusEvent(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	return s.loadResponse(ctx, orderID)
}

func (s *service) AttachReview(ctx context.Context, userID, orderID uuid.UUID, input ReviewInput) (*Response, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.Validation("rating must be between 1 and 5")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.NotFound("order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		if order.Status != enums.OrderStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered orders can be reviewed")
		}
		if order.IsReviewed() {
			return pkgerrors.New(pkgerrors.CodeConflict, "order has already been reviewed")
		}

		now := s.now()
		updates := map[string]any{
			"rating":      input.Rating,
			"reviewed_at": now,
		}
		if input.Comment != nil {
			updates["review_comment"] = *input.Comment
		}
		return repo.UpdateOrder(ctx, order.ID, updates)
	})
	if err != nil {
		return nil, err
	}

	return s.loadResponse(ctx, orderID)
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*Response, error) {
	order, err := s.findOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return toResponse(order), nil
}

func (s *service) GetByNumberForUser(ctx context.Context, userID uuid.UUID, number string) (*Response, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.NotFound("order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return toResponse(order), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*List, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateStatusFilter(filters); err != nil {
		return nil, err
	}

	orders, err := s.repo.ListByUser(ctx, userID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return buildList(orders, params), nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, input UpdateStatusInput) (*Response, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.Validation("order id required")
	}
	next, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Validation(fmt.Sprintf("invalid status %q", input.Status))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.NotFound("order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == next {
			return nil
		}
		if !order.Status.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %q to %q", order.Status, next))
		}

		updates := map[string]any{"status": next}
		if next == enums.OrderStatusDelivered {
			now := s.now()
			updates["actual_delivery_time"] = now
			if order.PaymentMethod == enums.PaymentMethodCOD {
				updates["payment_status"] = enums.PaymentStatusPaid
			}
		}
		if next == enums.OrderStatusPaymentFailed {
			updates["payment_status"] = enums.PaymentStatusFailed
		}
		if next == enums.OrderStatusRefunded {
			updates["payment_status"] = enums.PaymentStatusRefunded
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		event := &models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  next,
			Note:    input.Note,
		}
		return repo.CreateStatusEvent(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	return s.loadResponse(ctx, orderID)
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	if err := validateStatusFilter(filters); err != nil {
		return nil, err
	}
	orders, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return buildList(orders, params), nil
}

func (s *service) findOwned(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.Validation("order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.NotFound("order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) loadResponse(ctx context.Context, orderID uuid.UUID) (*Response, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return toResponse(order), nil
}

func validateStatusFilter(filters ListFilters) error {
	if filters.Status == nil {
		return nil
	}
	if _, err := enums.ParseOrderStatus(*filters.Status); err != nil {
		return pkgerrors.Validation(fmt.Sprintf("invalid status filter %q", *filters.Status))
	}
	return nil
}

func buildList(orders []models.Order, params pagination.Params) *List {
	limit := pagination.ClampLimit(params.Limit)
	var nextCursor *string
	if len(orders) > limit {
		last := orders[limit-1]
		cursor := (pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}).Token()
		nextCursor = &cursor
		orders = orders[:limit]
	}

	out := make([]Response, 0, len(orders))
	for i := range orders {
		out = append(out, *toResponse(&orders[i]))
	}
	return &List{Orders: out, NextCursor: nextCursor}
}

func (s *service) resolveShipping(ctx context.Context, userID uuid.UUID, input CreateInput) (*types.Address, error) {
	if input.AddressID != nil && *input.AddressID != uuid.Nil {
		addr, err := s.addresses.FindByIDForUser(ctx, *input.AddressID, userID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.NotFound("address not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}
		return snapshotAddress(addr), nil
	}
	if input.NewAddress != nil {
		snapshot := types.Address{
			Label:      input.NewAddress.Label,
			Line1:      input.NewAddress.Line1,
			City:       input.NewAddress.City,
			State:      input.NewAddress.State,
			PostalCode: input.NewAddress.PostalCode,
			Phone:      input.NewAddress.Phone,
		}
		if input.NewAddress.Line2 != nil {
			snapshot.Line2 = *input.NewAddress.Line2
		}
		if snapshot.IsZero() {
			return nil, pkgerrors.Validation("shipping address is incomplete")
		}
		return &snapshot, nil
	}
	return nil, pkgerrors.Validation("a shipping address is required for delivery orders")
}

func snapshotAddress(addr *models.Address) *types.Address {
	snapshot := types.Address{
		Label:      addr.Label,
		Line1:      addr.Line1,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Phone:      addr.Phone,
	}
	if addr.Line2 != nil {
		snapshot.Line2 = *addr.Line2
	}
	return &snapshot
}

func snapshotItems(items []models.CartItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for i := range items {
		item := items[i]
		out = append(out, models.OrderItem{
			PizzaID:         item.PizzaID,
			Name:            item.Name,
			Size:            item.Size,
			UnitPrice:       item.UnitPrice,
			Quantity:        item.Quantity,
			ExtraCheese:     item.ExtraCheese,
			ExtraToppings:   item.ExtraToppings,
			RemovedToppings: item.RemovedToppings,
			Instructions:    item.Instructions,
			TotalPrice:      item.TotalPrice,
		})
	}
	return out
}
