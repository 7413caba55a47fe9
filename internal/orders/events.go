package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated     = "OrderCreated"
	EventPaymentSucceeded = "PaymentSucceeded"
	EventPaymentFailed    = "PaymentFailed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "storefront-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order code
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID     string    `json:"order_id"`
	OrderCode   string    `json:"order_code"`
	CustomerID  string    `json:"customer_id"`
	Type        OrderType `json:"type"`
	TotalAmount float64   `json:"total_amount"`
}

type PaymentSucceededPayload struct {
	OrderID    string  `json:"order_id"`
	OrderCode  string  `json:"order_code"`
	PaymentRef string  `json:"payment_ref"`
	Amount     float64 `json:"amount"`
}

type PaymentFailedPayload struct {
	OrderID    string `json:"order_id"`
	OrderCode  string `json:"order_code"`
	PaymentRef string `json:"payment_ref"`
	Reason     string `json:"reason,omitempty"`
}
