package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// position along the fulfilment path; cancelled sits outside it.
var statusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusProcessing: 1,
	OrderStatusShipped:    2,
	OrderStatusDelivered:  3,
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == OrderStatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether an order may move from one status to another.
// Movement is forward-only; cancelled is reachable from any non-terminal status.
func CanTransitionTo(from, to OrderStatus) bool {
	if from.IsTerminal() || !to.Valid() || from == to {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	return statusRank[to] > statusRank[from]
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type OrderItem struct {
	ProductID string `bson:"product_id" json:"product_id"`
	Name      string `bson:"name" json:"name"`
	Image     string `bson:"image,omitempty" json:"image,omitempty"`
	UnitPrice Amount `bson:"unit_price" json:"unit_price"`
	Quantity  int    `bson:"quantity" json:"quantity"`
}

func (i OrderItem) LineTotal() Amount {
	return i.UnitPrice.Times(i.Quantity)
}

type ShippingAddress struct {
	FullName   string `bson:"full_name" json:"full_name" validate:"required"`
	Email      string `bson:"email" json:"email" validate:"required,email"`
	Phone      string `bson:"phone" json:"phone" validate:"required"`
	Line1      string `bson:"line1" json:"line1" validate:"required"`
	Line2      string `bson:"line2,omitempty" json:"line2,omitempty"`
	City       string `bson:"city" json:"city" validate:"required"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postal_code,omitempty" json:"postal_code,omitempty"`
	Country    string `bson:"country" json:"country" validate:"required"`
}

type PaymentMethod struct {
	Type     string `bson:"type" json:"type" validate:"required,oneof=card bank_transfer ussd pay_on_delivery"`
	Provider string `bson:"provider,omitempty" json:"provider,omitempty"`
}

type Order struct {
	ID                string          `bson:"_id" json:"id"`
	OrderNumber       string          `bson:"order_number" json:"order_number"`
	UserID            string          `bson:"user_id" json:"user_id"`
	Items             []OrderItem     `bson:"items" json:"items"`
	Subtotal          Amount          `bson:"subtotal" json:"subtotal"`
	Shipping          Amount          `bson:"shipping" json:"shipping"`
	Tax               Amount          `bson:"tax" json:"tax"`
	Total             Amount          `bson:"total" json:"total"`
	Status            OrderStatus     `bson:"status" json:"status"`
	ShippingAddress   ShippingAddress `bson:"shipping_address" json:"shipping_address"`
	PaymentMethod     PaymentMethod   `bson:"payment_method" json:"payment_method"`
	PaymentStatus     PaymentStatus   `bson:"payment_status" json:"payment_status"`
	PaymentReference  string          `bson:"payment_reference,omitempty" json:"payment_reference,omitempty"`
	PaymentAmount     *Amount         `bson:"payment_amount,omitempty" json:"payment_amount,omitempty"`
	PaidAt            *time.Time      `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	TrackingNumber    string          `bson:"tracking_number,omitempty" json:"tracking_number,omitempty"`
	Notes             string          `bson:"notes,omitempty" json:"notes,omitempty"`
	EstimatedDelivery *time.Time      `bson:"estimated_delivery,omitempty" json:"estimated_delivery,omitempty"`
	CreatedAt         time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `bson:"updated_at" json:"updated_at"`
}

// Pricing holds the checkout charges applied on top of the item subtotal.
type Pricing struct {
	ShippingFee           Amount
	FreeShippingThreshold Amount // zero disables free shipping
	TaxRate               decimal.Decimal
}

type Totals struct {
	Subtotal Amount
	Shipping Amount
	Tax      Amount
	Total    Amount
}

// ComputeTotals is evaluated once at order creation; the result is stored and never
// re-derived.
func (p Pricing) ComputeTotals(items []OrderItem) Totals {
	var t Totals
	for _, item := range items {
		t.Subtotal = t.Subtotal.Plus(item.LineTotal())
	}
	t.Shipping = p.ShippingFee
	if p.FreeShippingThreshold.IsPositive() && t.Subtotal.GreaterThanOrEqual(p.FreeShippingThreshold.Decimal) {
		t.Shipping = Amount{}
	}
	t.Tax = t.Subtotal.MulRate(p.TaxRate)
	t.Total = t.Subtotal.Plus(t.Shipping).Plus(t.Tax)
	return t
}

// PaymentConfirmation is what a verified charge event stamps onto an order.
type PaymentConfirmation struct {
	Reference string
	Amount    Amount
	PaidAt    time.Time
}

// OrderUpdate carries the admin-editable fields; nil means unchanged.
type OrderUpdate struct {
	Status            *OrderStatus
	TrackingNumber    *string
	Notes             *string
	EstimatedDelivery *time.Time
}

type OrderFilter struct {
	UserID     string
	Search     string
	Status     OrderStatus
	Sort       SortSpec
	Pagination Pagination
}
