package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ondegooltd/sirahats-sub001/internal/auth"
	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/ondegooltd/sirahats-sub001/internal/notify"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	sut      *OrderService
	orders   *mockOrderRepository
	carts    *mockCartRepository
	notifier *recordingDispatcher
}

func newOrderFixture() *orderFixture {
	products := newMockProductRepository(testProduct("p1", "30.00"), testProduct("p2", "20.00"))
	carts := newMockCartRepository()
	orders := newMockOrderRepository()
	notifier := &recordingDispatcher{}
	pricing := domain.Pricing{
		ShippingFee: domain.MustAmount("20.00"),
		TaxRate:     decimal.Zero,
	}
	cartSvc := NewCartService(carts, products, &mockCache{})
	return &orderFixture{
		sut:      NewOrderService(orders, products, cartSvc, notifier, pricing, 7*24*time.Hour),
		orders:   orders,
		carts:    carts,
		notifier: notifier,
	}
}

func testAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName: "Ada Obi",
		Email:    "ada@example.com",
		Phone:    "+2348000000000",
		Line1:    "1 Marina Road",
		City:     "Lagos",
		Country:  "NG",
	}
}

func testOrderInput(items ...OrderLineInput) CreateOrderInput {
	return CreateOrderInput{
		Items:           items,
		ShippingAddress: testAddress(),
		PaymentMethod:   domain.PaymentMethod{Type: "card", Provider: "paystack"},
	}
}

func TestCreateOrder_FromCartComputesTotalsAndClearsCart(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	require.NoError(t, f.carts.AddItem(ctx, "u1", "p1", 2))
	require.NoError(t, f.carts.AddItem(ctx, "u1", "p2", 1))

	order, err := f.sut.CreateOrder(ctx, "u1", testOrderInput())
	require.NoError(t, err)

	assert.Equal(t, "80.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "20.00", order.Shipping.StringFixed(2))
	assert.Equal(t, "0.00", order.Tax.StringFixed(2))
	assert.Equal(t, "100.00", order.Total.StringFixed(2))
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{8}$`, order.OrderNumber)
	require.NotNil(t, order.EstimatedDelivery)

	_, err = f.carts.GetCart(ctx, "u1")
	assert.Error(t, err, "cart should be deleted after checkout")
	assert.Equal(t, []notify.Template{notify.TemplateOrderConfirmation}, f.notifier.templates())
}

func TestCreateOrder_ExplicitItemsAreMergedAndFrozen(t *testing.T) {
	f := newOrderFixture()

	order, err := f.sut.CreateOrder(context.Background(), "u1", testOrderInput(
		OrderLineInput{ProductID: "p1", Quantity: 1},
		OrderLineInput{ProductID: "p1", Quantity: 2},
	))
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, "30.00", order.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "Product p1", order.Items[0].Name)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	f := newOrderFixture()

	_, err := f.sut.CreateOrder(context.Background(), "u1", testOrderInput())
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, f.orders.count())
}

func TestCreateOrder_Rejections(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	_, err := f.sut.CreateOrder(ctx, "", testOrderInput(OrderLineInput{ProductID: "p1", Quantity: 1}))
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.sut.CreateOrder(ctx, "u1", testOrderInput(OrderLineInput{ProductID: "nope", Quantity: 1}))
	require.ErrorIs(t, err, ErrInvalidInput)

	in := testOrderInput(OrderLineInput{ProductID: "p1", Quantity: 1})
	in.ShippingAddress.Email = "not-an-email"
	_, err = f.sut.CreateOrder(ctx, "u1", in)
	require.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, 0, f.orders.count())
}

func TestCreateOrder_RepoErrorKeepsCart(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	require.NoError(t, f.carts.AddItem(ctx, "u1", "p1", 1))
	f.orders.err = fmt.Errorf("database error")

	_, err := f.sut.CreateOrder(ctx, "u1", testOrderInput())
	require.ErrorContains(t, err, "database error")

	cart, err := f.carts.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Quantity("p1"))
	assert.Empty(t, f.notifier.templates())
}

func TestGetOrder_OwnerOrAdminOnly(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, err := f.sut.CreateOrder(ctx, "u1", testOrderInput(OrderLineInput{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)

	_, err = f.sut.GetOrder(ctx, auth.Identity{UserID: "u1", Role: domain.RoleCustomer}, order.ID)
	require.NoError(t, err)

	_, err = f.sut.GetOrder(ctx, auth.Identity{UserID: "u2", Role: domain.RoleCustomer}, order.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.sut.GetOrder(ctx, auth.Identity{UserID: "admin", Role: domain.RoleAdmin}, order.ID)
	require.NoError(t, err)

	_, err = f.sut.GetOrder(ctx, auth.Identity{UserID: "u1"}, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListOrders_RejectsUnknownStatus(t *testing.T) {
	f := newOrderFixture()
	_, err := f.sut.ListOrders(context.Background(), domain.OrderFilter{Status: "lost"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestListUserOrders_OnlyCallersOrders(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	for _, u := range []string{"u1", "u1", "u2"} {
		_, err := f.sut.CreateOrder(ctx, u, testOrderInput(OrderLineInput{ProductID: "p2", Quantity: 1}))
		require.NoError(t, err)
	}

	page, err := f.sut.ListUserOrders(ctx, "u1", domain.Pagination{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Pagination.Total)
	assert.Equal(t, domain.DefaultPageSize, page.Pagination.Limit)
}

func statusPtr(s domain.OrderStatus) *domain.OrderStatus { return &s }

func TestUpdateOrder_TotalsNeverChangeAcrossTransitions(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, err := f.sut.CreateOrder(ctx, "u1", testOrderInput(
		OrderLineInput{ProductID: "p1", Quantity: 2},
		OrderLineInput{ProductID: "p2", Quantity: 1},
	))
	require.NoError(t, err)

	for _, to := range []domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusShipped} {
		updated, err := f.sut.UpdateOrder(ctx, order.ID, AdminOrderUpdate{Status: statusPtr(to)})
		require.NoError(t, err)
		assert.Equal(t, to, updated.Status)
		assert.Equal(t, "100.00", updated.Total.StringFixed(2))
	}

	assert.Equal(t, []notify.Template{
		notify.TemplateOrderConfirmation,
		notify.TemplateOrderStatusUpdate,
		notify.TemplateOrderStatusUpdate,
	}, f.notifier.templates())
}

func TestUpdateOrder_TerminalStatesAreFinal(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, err := f.sut.CreateOrder(ctx, "u1", testOrderInput(OrderLineInput{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)

	_, err = f.sut.UpdateOrder(ctx, order.ID, AdminOrderUpdate{Status: statusPtr(domain.OrderStatusCancelled)})
	require.NoError(t, err)

	_, err = f.sut.UpdateOrder(ctx, order.ID, AdminOrderUpdate{Status: statusPtr(domain.OrderStatusProcessing)})
	require.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, domain.OrderStatusCancelled, f.orders.get(order.ID).Status)
}

func TestUpdateOrder_BackwardsIsIllegal(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, err := f.sut.CreateOrder(ctx, "u1", testOrderInput(OrderLineInput{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)
	_, err = f.sut.UpdateOrder(ctx, order.ID, AdminOrderUpdate{Status: statusPtr(domain.OrderStatusShipped)})
	require.NoError(t, err)

	_, err = f.sut.UpdateOrder(ctx, order.ID, AdminOrderUpdate{Status: statusPtr(domain.OrderStatusPending)})
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestUpdateOrder_SameStatusIsNoChange(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, err := f.sut.CreateOrder(ctx, "u1", testOrderInput(OrderLineInput{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)

	tracking := "TRK-1"
	updated, err := f.sut.UpdateOrder(ctx, order.ID, AdminOrderUpdate{
		Status:         statusPtr(domain.OrderStatusPending),
		TrackingNumber: &tracking,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, updated.Status)
	assert.Equal(t, "TRK-1", updated.TrackingNumber)
	assert.Equal(t, []notify.Template{notify.TemplateOrderConfirmation}, f.notifier.templates())
}

func TestUpdateOrder_UnknownStatusAndMissingOrder(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, err := f.sut.CreateOrder(ctx, "u1", testOrderInput(OrderLineInput{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)

	_, err = f.sut.UpdateOrder(ctx, order.ID, AdminOrderUpdate{Status: statusPtr("lost")})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.sut.UpdateOrder(ctx, "missing", AdminOrderUpdate{Status: statusPtr(domain.OrderStatusShipped)})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteOrder(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, err := f.sut.CreateOrder(ctx, "u1", testOrderInput(OrderLineInput{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)

	require.NoError(t, f.sut.DeleteOrder(ctx, order.ID))
	require.ErrorIs(t, f.sut.DeleteOrder(ctx, order.ID), ErrNotFound)
}
