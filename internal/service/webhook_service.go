package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/ondegooltd/sirahats-sub001/internal/notify"
	"github.com/ondegooltd/sirahats-sub001/internal/payment"
	"github.com/ondegooltd/sirahats-sub001/internal/repository"
)

// WebhookResult describes what an accepted event did.
type WebhookResult struct {
	Event     string `json:"event"`
	Reference string `json:"reference"`
	// Duplicate is set when the (event, reference) pair was already recorded.
	Duplicate bool `json:"duplicate"`
	// Applied is set when the event changed an order.
	Applied bool `json:"applied"`
}

type WebhookService struct {
	secret   string
	webhooks repository.WebhookRepository
	orders   repository.OrderRepository
	notifier Dispatcher
	now      func() time.Time
}

func NewWebhookService(
	secret string,
	webhooks repository.WebhookRepository,
	orders repository.OrderRepository,
	notifier Dispatcher) *WebhookService {

	return &WebhookService{
		secret:   secret,
		webhooks: webhooks,
		orders:   orders,
		notifier: notifier,
		now:      time.Now,
	}
}

// Handle authenticates and applies one gateway event. body must be the raw request
// bytes; the signature covers them exactly.
//
// Redelivery is safe: the audit insert is unique per (event, reference) and the
// payment is only stamped on an unpaid order, so a replay changes nothing and sends
// no second notification.
func (s *WebhookService) Handle(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	if !payment.VerifySignature(s.secret, body, signature) {
		slog.ErrorContext(ctx, "webhook signature mismatch", "body_bytes", len(body))
		return nil, ErrInvalidSignature
	}

	var event domain.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, invalid("malformed webhook payload: %v", err)
	}
	if event.Event == "" || event.Data.Reference == "" {
		return nil, invalid("webhook event and reference are required")
	}

	result := &WebhookResult{Event: event.Event, Reference: event.Data.Reference}
	log := slog.With("event", event.Event, "reference", event.Data.Reference,
		"order_id", event.Data.Metadata.OrderID, "user_id", event.Data.Metadata.UserID)

	record := &domain.WebhookRecord{
		ID:         uuid.NewString(),
		Event:      event.Event,
		Reference:  event.Data.Reference,
		Amount:     domain.AmountFromMinor(event.Data.Amount),
		OrderID:    event.Data.Metadata.OrderID,
		UserID:     event.Data.Metadata.UserID,
		Payload:    string(body),
		ReceivedAt: s.now().UTC(),
	}
	err := s.webhooks.InsertWebhook(ctx, record)
	switch {
	case errors.Is(err, repository.ErrDuplicateWebhook):
		result.Duplicate = true
		log.InfoContext(ctx, "webhook event already recorded")
	case err != nil:
		return nil, fmt.Errorf("failed to record webhook: %w", err)
	}

	switch event.Event {
	case domain.EventChargeSuccess:
		// Runs for duplicates too: a prior delivery may have been recorded but failed
		// before the order update.
		applied, err := s.applyCharge(ctx, log, event, record)
		if err != nil {
			return nil, err
		}
		result.Applied = applied
	case domain.EventTransferSuccess, domain.EventTransferFailed:
		log.InfoContext(ctx, "transfer event received", "amount", record.Amount.StringFixed(2))
	default:
		log.InfoContext(ctx, "unhandled webhook event ignored")
	}
	return result, nil
}

func (s *WebhookService) applyCharge(
	ctx context.Context,
	log *slog.Logger,
	event domain.WebhookEvent,
	record *domain.WebhookRecord) (bool, error) {

	orderID := event.Data.Metadata.OrderID
	if orderID == "" {
		log.WarnContext(ctx, "charge without order_id in metadata, nothing to reconcile")
		return false, nil
	}

	applied, err := s.orders.MarkOrderPaid(ctx, orderID, domain.PaymentConfirmation{
		Reference: record.Reference,
		Amount:    record.Amount,
		PaidAt:    record.ReceivedAt,
	})
	if errors.Is(err, repository.ErrOrderNotFound) {
		log.WarnContext(ctx, "charge for unknown order")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to mark order %s paid: %w", orderID, err)
	}
	if !applied {
		log.InfoContext(ctx, "order already paid, charge not reapplied")
		return false, nil
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		// The transition is committed; only the email is lost.
		log.ErrorContext(ctx, "order paid but could not be reloaded for notification", "error", err)
		return true, nil
	}
	if !order.Total.EqualTo(record.Amount) {
		log.WarnContext(ctx, "paid amount differs from order total",
			"paid", record.Amount.StringFixed(2), "total", order.Total.StringFixed(2))
	}
	switch order.Status {
	case domain.OrderStatusCancelled:
		log.ErrorContext(ctx, "payment received for cancelled order, needs refund",
			"amount", record.Amount.StringFixed(2))
		return true, nil
	case domain.OrderStatusProcessing:
		log.InfoContext(ctx, "order paid", "amount", record.Amount.StringFixed(2))
	default:
		log.WarnContext(ctx, "payment recorded after fulfilment moved on",
			"status", order.Status, "amount", record.Amount.StringFixed(2))
	}

	s.notifier.Dispatch(ctx, notify.PaymentConfirmation(order))
	return true, nil
}
