// Package notify delivers transactional email. Callers hand a Notification to a
// Dispatcher and move on: delivery happens off the request path and its failures are
// only logged.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Template string

const (
	TemplateWelcome             Template = "welcome"
	TemplateOrderConfirmation   Template = "order_confirmation"
	TemplatePaymentConfirmation Template = "payment_confirmation"
	TemplateOrderStatusUpdate   Template = "order_status_update"
	TemplateContactLead         Template = "contact_lead"
	TemplateWholesaleLead       Template = "wholesale_lead"
)

type Notification struct {
	ID        string         `json:"id"`
	Template  Template       `json:"template"`
	To        string         `json:"to"`
	Subject   string         `json:"subject"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}

func newNotification(tmpl Template, to, subject string, data map[string]any) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Template:  tmpl,
		To:        to,
		Subject:   subject,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
}

// Notifier hands a notification to the next stage: the mail provider directly, or
// the message bus that feeds it.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Async runs a Notifier in the background, detached from the caller's cancellation.
type Async struct {
	next    Notifier
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(next Notifier, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Async{next: next, timeout: timeout}
}

// Dispatch never blocks on delivery and never reports its outcome.
func (a *Async) Dispatch(ctx context.Context, n Notification) {
	if n.To == "" {
		slog.WarnContext(ctx, "notification without recipient dropped",
			"template", n.Template, "notification_id", n.ID)
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		if err := a.next.Notify(ctx, n); err != nil {
			slog.ErrorContext(ctx, "notification delivery failed",
				"template", n.Template, "notification_id", n.ID, "error", err)
		}
	}()
}

// Wait blocks until every dispatched notification has finished.
func (a *Async) Wait() {
	a.wg.Wait()
}
