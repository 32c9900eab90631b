package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ondegooltd/sirahats-sub001/internal/auth"
	"github.com/ondegooltd/sirahats-sub001/internal/payment"
	"github.com/ondegooltd/sirahats-sub001/internal/service"
)

type PaymentService interface {
	Initialize(ctx context.Context, caller auth.Identity, in service.InitializePaymentInput) (*payment.Authorization, error)
	Verify(ctx context.Context, caller auth.Identity, reference string) (*payment.Verification, error)
}

type WebhookService interface {
	Handle(ctx context.Context, body []byte, signature string) (*service.WebhookResult, error)
}

type PaymentHandler struct {
	payments        PaymentService
	webhooks        WebhookService
	signatureHeader string
	timeout         time.Duration
}

func NewPaymentHandler(payments PaymentService, webhooks WebhookService, signatureHeader string, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		payments:        payments,
		webhooks:        webhooks,
		signatureHeader: signatureHeader,
		timeout:         timeout,
	}
}

// POST /api/v1/payments/initialize
func (h *PaymentHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	caller := identity(r)
	var req service.InitializePaymentInput
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err, "user_id", caller.UserID)
		return
	}

	authz, err := h.payments.Initialize(ctx, caller, req)
	if err != nil {
		handleServiceError(w, r, err, "user_id", caller.UserID, "order_id", req.OrderID)
		return
	}
	respondJSON(w, http.StatusOK, authz)
}

// GET /api/v1/payments/verify/{reference}
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	caller := identity(r)
	reference := chi.URLParam(r, "reference")

	v, err := h.payments.Verify(ctx, caller, reference)
	if err != nil {
		handleServiceError(w, r, err, "user_id", caller.UserID, "reference", reference)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// POST /api/v1/webhooks/payment
//
// The body is read raw: the signature covers the exact bytes sent.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "webhook body too large")
			return
		}
		slog.ErrorContext(ctx, "failed to read webhook body", "error", err)
		respondError(w, http.StatusBadRequest, "invalid_request", "could not read body")
		return
	}

	result, err := h.webhooks.Handle(ctx, body, r.Header.Get(h.signatureHeader))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
