package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ondegooltd/sirahats-sub001/internal/auth"
	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/ondegooltd/sirahats-sub001/internal/notify"
	"github.com/ondegooltd/sirahats-sub001/internal/repository"
)

type OrderLineInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

// CreateOrderInput places an order for the listed items, or for the caller's cart
// when Items is empty.
type CreateOrderInput struct {
	Items           []OrderLineInput       `json:"items" validate:"omitempty,dive"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address" validate:"required"`
	PaymentMethod   domain.PaymentMethod   `json:"payment_method" validate:"required"`
	Notes           string                 `json:"notes" validate:"max=1000"`
}

// AdminOrderUpdate carries optional changes; nil fields are left alone.
type AdminOrderUpdate struct {
	Status            *domain.OrderStatus `json:"status"`
	TrackingNumber    *string             `json:"tracking_number" validate:"omitempty,max=100"`
	Notes             *string             `json:"notes" validate:"omitempty,max=1000"`
	EstimatedDelivery *time.Time          `json:"estimated_delivery"`
}

// cartSource is the slice of the cart service that checkout needs.
type cartSource interface {
	Snapshot(ctx context.Context, userID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type OrderService struct {
	orders         repository.OrderRepository
	products       repository.ProductRepository
	carts          cartSource
	notifier       Dispatcher
	pricing        domain.Pricing
	deliveryWindow time.Duration
	now            func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	carts cartSource,
	notifier Dispatcher,
	pricing domain.Pricing,
	deliveryWindow time.Duration) *OrderService {

	return &OrderService{
		orders:         orders,
		products:       products,
		carts:          carts,
		notifier:       notifier,
		pricing:        pricing,
		deliveryWindow: deliveryWindow,
		now:            time.Now,
	}
}

// CreateOrder freezes the requested lines at current catalog prices, stores the order
// as pending and then empties the caller's cart.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (*domain.Order, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	lines := in.Items
	if len(lines) == 0 {
		cart, err := s.carts.Snapshot(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, item := range cart.Items {
			lines = append(lines, OrderLineInput{ProductID: item.ProductID, Quantity: item.Quantity})
		}
	}
	lines = mergeLines(lines)
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	items, err := s.freezeItems(ctx, lines)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	totals := s.pricing.ComputeTotals(items)
	estimated := now.Add(s.deliveryWindow)
	order := &domain.Order{
		ID:                uuid.NewString(),
		OrderNumber:       newOrderNumber(now),
		UserID:            userID,
		Items:             items,
		Subtotal:          totals.Subtotal,
		Shipping:          totals.Shipping,
		Tax:               totals.Tax,
		Total:             totals.Total,
		Status:            domain.OrderStatusPending,
		ShippingAddress:   in.ShippingAddress,
		PaymentMethod:     in.PaymentMethod,
		PaymentStatus:     domain.PaymentStatusPending,
		Notes:             strings.TrimSpace(in.Notes),
		EstimatedDelivery: &estimated,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "order created",
		"order_id", order.ID, "order_number", order.OrderNumber, "user_id", userID, "total", order.Total.StringFixed(2))

	// The order and the cart are separate writes. A failure here leaves a stale cart
	// next to a valid order.
	if err := s.carts.Clear(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "cart not cleared after order creation, needs manual reconciliation",
			"order_id", order.ID, "user_id", userID, "error", err)
	}

	s.notifier.Dispatch(ctx, notify.OrderConfirmation(order))
	return order, nil
}

func (s *OrderService) freezeItems(ctx context.Context, lines []OrderLineInput) ([]domain.OrderItem, error) {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load order products: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok || !p.Active {
			return nil, invalid("product %s is not available", l.ProductID)
		}
		items = append(items, domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.PrimaryImage(),
			UnitPrice: p.Price,
			Quantity:  l.Quantity,
		})
	}
	return items, nil
}

// mergeLines folds repeated products into one line, keeping first-seen order.
func mergeLines(lines []OrderLineInput) []OrderLineInput {
	merged := make([]OrderLineInput, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if i, ok := index[l.ProductID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged
}

// newOrderNumber formats ORD-YYYYMMDD-XXXXXXXX with a random hex suffix.
func newOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", t.Format("20060102"), suffix)
}

// GetOrder returns the order to its owner or to an admin.
func (s *OrderService) GetOrder(ctx context.Context, caller auth.Identity, id string) (*domain.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: order %s belongs to another user", ErrForbidden, id)
	}
	return order, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID string, page domain.Pagination) (*Page[*domain.Order], error) {
	return s.ListOrders(ctx, domain.OrderFilter{
		UserID:     userID,
		Sort:       domain.SortSpec{Field: "created_at", Descending: true},
		Pagination: page,
	})
}

func (s *OrderService) ListOrders(ctx context.Context, filter domain.OrderFilter) (*Page[*domain.Order], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("unknown status %q", filter.Status)
	}
	filter.Pagination = filter.Pagination.Normalize()

	orders, total, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Page[*domain.Order]{Items: orders, Pagination: domain.NewPageInfo(filter.Pagination, total)}, nil
}

// UpdateOrder applies an administrative change. Status changes must follow the
// order state machine; setting the current status again is not a change.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, in AdminOrderUpdate) (*domain.Order, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	update := domain.OrderUpdate{
		TrackingNumber:    in.TrackingNumber,
		Notes:             in.Notes,
		EstimatedDelivery: in.EstimatedDelivery,
	}
	if in.Status != nil && *in.Status != current.Status {
		to := *in.Status
		if !to.Valid() {
			return nil, invalid("unknown status %q", to)
		}
		if !domain.CanTransitionTo(current.Status, to) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.Status, to)
		}
		update.Status = &to
	}
	if update.Status == nil && update.TrackingNumber == nil && update.Notes == nil && update.EstimatedDelivery == nil {
		return current, nil
	}

	updated, err := s.orders.UpdateOrder(ctx, id, current.Status, update)
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		return nil, notFound("order", id)
	case errors.Is(err, repository.ErrOrderConflict):
		return nil, fmt.Errorf("%w: order %s changed status concurrently, retry", ErrConflict, id)
	case err != nil:
		return nil, err
	}

	if update.Status != nil {
		slog.InfoContext(ctx, "order status changed",
			"order_id", id, "from", current.Status, "to", updated.Status)
		s.notifier.Dispatch(ctx, notify.OrderStatusUpdate(updated))
	}
	return updated, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	err := s.orders.DeleteOrder(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return notFound("order", id)
	}
	if err == nil {
		slog.InfoContext(ctx, "order deleted", "order_id", id)
	}
	return err
}

func (s *OrderService) load(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, notFound("order", id)
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}
