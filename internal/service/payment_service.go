package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/ondegooltd/sirahats-sub001/internal/auth"
	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/ondegooltd/sirahats-sub001/internal/payment"
	"github.com/ondegooltd/sirahats-sub001/internal/repository"
)

// Gateway is the hosted payment provider.
type Gateway interface {
	Initialize(ctx context.Context, req payment.InitializeRequest) (*payment.Authorization, error)
	Verify(ctx context.Context, reference string) (*payment.Verification, error)
}

// orderReader is the read side of the order store the payment flow needs.
type orderReader interface {
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
}

// InitializePaymentInput either names an order, whose total is charged, or carries an
// explicit amount.
type InitializePaymentInput struct {
	OrderID     string         `json:"order_id"`
	Amount      *domain.Amount `json:"amount"`
	Email       string         `json:"email" validate:"omitempty,email"`
	Reference   string         `json:"reference" validate:"omitempty,max=100"`
	CallbackURL string         `json:"callback_url" validate:"omitempty,url"`
}

type PaymentService struct {
	gateway     Gateway
	orders      orderReader
	callbackURL string
}

func NewPaymentService(gateway Gateway, orders orderReader, callbackURL string) *PaymentService {
	return &PaymentService{gateway: gateway, orders: orders, callbackURL: callbackURL}
}

// Initialize asks the gateway for an authorization URL. It never changes the order;
// confirmation arrives through the webhook.
func (s *PaymentService) Initialize(ctx context.Context, caller auth.Identity, in InitializePaymentInput) (*payment.Authorization, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	req := payment.InitializeRequest{
		Email:       strings.TrimSpace(in.Email),
		Reference:   in.Reference,
		CallbackURL: in.CallbackURL,
		UserID:      caller.UserID,
	}

	if in.OrderID != "" {
		order, err := s.orders.GetOrderByID(ctx, in.OrderID)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return nil, notFound("order", in.OrderID)
			}
			return nil, err
		}
		if order.UserID != caller.UserID && !caller.IsAdmin() {
			return nil, fmt.Errorf("%w: order %s belongs to another user", ErrForbidden, in.OrderID)
		}
		if order.PaymentStatus == domain.PaymentStatusPaid || order.Status != domain.OrderStatusPending {
			return nil, fmt.Errorf("%w: order %s is not awaiting payment", ErrConflict, in.OrderID)
		}
		req.OrderID = order.ID
		req.UserID = order.UserID
		req.Amount = order.Total
		if req.Email == "" {
			req.Email = order.ShippingAddress.Email
		}
	} else {
		if in.Amount == nil || !in.Amount.IsPositive() {
			return nil, invalid("amount must be greater than zero when no order_id is given")
		}
		req.Amount = domain.NewAmount(in.Amount.Decimal)
	}

	if req.Email == "" {
		req.Email = caller.Email
	}
	if req.Email == "" {
		return nil, invalid("email is required")
	}
	if req.Reference == "" {
		req.Reference = "PAY-" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if req.CallbackURL == "" {
		req.CallbackURL = s.callbackURL
	}

	authz, err := s.gateway.Initialize(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "payment initialization failed",
			"reference", req.Reference, "order_id", req.OrderID, "user_id", req.UserID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	slog.InfoContext(ctx, "payment initialized",
		"reference", authz.Reference, "order_id", req.OrderID, "user_id", req.UserID, "amount", req.Amount.StringFixed(2))
	return authz, nil
}

// Verify reports the gateway's view of a transaction without touching local state.
// Customers may only verify transactions started for them.
func (s *PaymentService) Verify(ctx context.Context, caller auth.Identity, reference string) (*payment.Verification, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, invalid("reference is required")
	}

	v, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		slog.ErrorContext(ctx, "payment verification failed", "reference", reference, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if !caller.IsAdmin() && len(v.Metadata) > 0 {
		var meta domain.WebhookMetadata
		if err := json.Unmarshal(v.Metadata, &meta); err == nil && meta.UserID != "" && meta.UserID != caller.UserID {
			return nil, fmt.Errorf("%w: transaction %s belongs to another user", ErrForbidden, reference)
		}
	}
	return v, nil
}
