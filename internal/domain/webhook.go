package domain

import (
	"encoding/json"
	"time"
)

const (
	EventChargeSuccess   = "charge.success"
	EventTransferSuccess = "transfer.success"
	EventTransferFailed  = "transfer.failed"
)

// WebhookEvent is the gateway's envelope: {event, data{reference, amount, customer, metadata}}.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

type WebhookData struct {
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"` // minor units
	Currency  string          `json:"currency,omitempty"`
	Status    string          `json:"status,omitempty"`
	Customer  json.RawMessage `json:"customer,omitempty"`
	Metadata  WebhookMetadata `json:"metadata"`
}

type WebhookMetadata struct {
	OrderID string `json:"order_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

// UnmarshalJSON tolerates the gateway sending metadata as "" or null when no metadata
// was attached at initialization.
func (m *WebhookMetadata) UnmarshalJSON(data []byte) error {
	type plain WebhookMetadata
	if len(data) == 0 || data[0] != '{' {
		*m = WebhookMetadata{}
		return nil
	}
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = WebhookMetadata(p)
	return nil
}

// WebhookRecord is the append-only audit row for one inbound event. (Event, Reference)
// is unique.
type WebhookRecord struct {
	ID         string    `bson:"_id"`
	Event      string    `bson:"event"`
	Reference  string    `bson:"reference"`
	Amount     Amount    `bson:"amount"`
	OrderID    string    `bson:"order_id,omitempty"`
	UserID     string    `bson:"user_id,omitempty"`
	Payload    string    `bson:"payload"`
	ReceivedAt time.Time `bson:"received_at"`
}
