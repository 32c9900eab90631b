package notify

import (
	"fmt"

	"github.com/ondegooltd/sirahats-sub001/internal/domain"
)

func Welcome(user *domain.User) Notification {
	return newNotification(TemplateWelcome, user.Email, "Welcome to the store", map[string]any{
		"name": user.Name,
	})
}

func orderData(order *domain.Order) map[string]any {
	items := make([]map[string]any, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]any{
			"name":       item.Name,
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice.StringFixed(2),
			"line_total": item.LineTotal().StringFixed(2),
		})
	}
	return map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"name":         order.ShippingAddress.FullName,
		"items":        items,
		"subtotal":     order.Subtotal.StringFixed(2),
		"shipping":     order.Shipping.StringFixed(2),
		"tax":          order.Tax.StringFixed(2),
		"total":        order.Total.StringFixed(2),
		"status":       order.Status.String(),
	}
}

func OrderConfirmation(order *domain.Order) Notification {
	return newNotification(TemplateOrderConfirmation, order.ShippingAddress.Email,
		fmt.Sprintf("Order %s received", order.OrderNumber), orderData(order))
}

func PaymentConfirmation(order *domain.Order) Notification {
	data := orderData(order)
	data["payment_reference"] = order.PaymentReference
	if order.PaymentAmount != nil {
		data["amount_paid"] = order.PaymentAmount.StringFixed(2)
	}
	return newNotification(TemplatePaymentConfirmation, order.ShippingAddress.Email,
		fmt.Sprintf("Payment received for order %s", order.OrderNumber), data)
}

func OrderStatusUpdate(order *domain.Order) Notification {
	data := orderData(order)
	if order.TrackingNumber != "" {
		data["tracking_number"] = order.TrackingNumber
	}
	if order.EstimatedDelivery != nil {
		data["estimated_delivery"] = order.EstimatedDelivery.Format("2006-01-02")
	}
	return newNotification(TemplateOrderStatusUpdate, order.ShippingAddress.Email,
		fmt.Sprintf("Order %s is now %s", order.OrderNumber, order.Status), data)
}

// LeadReceived forwards a contact or wholesale enquiry to the admin inbox.
func LeadReceived(lead *domain.Lead, inbox string) Notification {
	tmpl := TemplateContactLead
	subject := "New contact message"
	if lead.Kind == domain.LeadKindWholesale {
		tmpl = TemplateWholesaleLead
		subject = "New wholesale enquiry"
	}
	if lead.Subject != "" {
		subject += ": " + lead.Subject
	}
	return newNotification(tmpl, inbox, subject, map[string]any{
		"lead_id":         lead.ID,
		"name":            lead.Name,
		"email":           lead.Email,
		"phone":           lead.Phone,
		"message":         lead.Message,
		"business_name":   lead.BusinessName,
		"country":         lead.Country,
		"expected_volume": lead.ExpectedVolume,
	})
}
