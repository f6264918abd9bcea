package models

import "time"

type EventType string

const (
	EventOrderCreated     EventType = "order.created"
	EventGrantIssued      EventType = "grant.issued"
	EventGrantRedeemed    EventType = "grant.redeemed"
	EventGrantInterrupted EventType = "grant.interrupted"
)

// GrantEvent is published on every lifecycle change. TokenPrefix never
// carries the full token.
type GrantEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	OrderID     string    `json:"order_id,omitempty"`
	PaymentID   string    `json:"payment_id,omitempty"`
	TokenPrefix string    `json:"token_prefix,omitempty"`
	Amount      int64     `json:"amount,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
