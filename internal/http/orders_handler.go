package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ondegooltd/sirahats-sub001/internal/auth"
	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/ondegooltd/sirahats-sub001/internal/service"
)

type OrderService interface {
	CreateOrder(ctx context.Context, userID string, in service.CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, caller auth.Identity, id string) (*domain.Order, error)
	ListUserOrders(ctx context.Context, userID string, page domain.Pagination) (*service.Page[*domain.Order], error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) (*service.Page[*domain.Order], error)
	UpdateOrder(ctx context.Context, id string, in service.AdminOrderUpdate) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

type OrdersHandler struct {
	orders  OrderService
	timeout time.Duration
}

func NewOrdersHandler(orders OrderService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

// POST /api/v1/orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := identity(r).UserID
	var req service.CreateOrderInput
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err, "user_id", userID)
		return
	}

	order, err := h.orders.CreateOrder(ctx, userID, req)
	if err != nil {
		handleServiceError(w, r, err, "user_id", userID)
		return
	}
	w.Header().Set("Location", "/api/v1/orders/"+order.ID)
	respondJSON(w, http.StatusCreated, order)
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := identity(r).UserID
	page, err := parsePagination(r)
	if err != nil {
		handleServiceError(w, r, err, "user_id", userID)
		return
	}

	orders, err := h.orders.ListUserOrders(ctx, userID, page)
	if err != nil {
		handleServiceError(w, r, err, "user_id", userID)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	caller := identity(r)
	orderID := chi.URLParam(r, "order_id")

	order, err := h.orders.GetOrder(ctx, caller, orderID)
	if err != nil {
		handleServiceError(w, r, err, "user_id", caller.UserID, "order_id", orderID)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// GET /api/v1/admin/orders?page=&limit=&search=&status=&sort=&order=
func (h *OrdersHandler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := parsePagination(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sort, err := parseSort(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	q := r.URL.Query()
	orders, err := h.orders.ListOrders(ctx, domain.OrderFilter{
		Search:     strings.TrimSpace(q.Get("search")),
		Status:     domain.OrderStatus(strings.ToLower(q.Get("status"))),
		UserID:     q.Get("user_id"),
		Sort:       sort,
		Pagination: page,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// PUT /api/v1/admin/orders/{order_id}
func (h *OrdersHandler) AdminUpdateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")
	var req service.AdminOrderUpdate
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err, "order_id", orderID)
		return
	}

	order, err := h.orders.UpdateOrder(ctx, orderID, req)
	if err != nil {
		handleServiceError(w, r, err, "order_id", orderID, "admin_id", identity(r).UserID)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// DELETE /api/v1/admin/orders/{order_id}
func (h *OrdersHandler) AdminDeleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")
	if err := h.orders.DeleteOrder(ctx, orderID); err != nil {
		handleServiceError(w, r, err, "order_id", orderID, "admin_id", identity(r).UserID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
