package models

import "time"

// Pricing is fixed by policy. Clients never supply an amount.
const (
	ProductAmount   int64 = 19900
	ProductCurrency       = "INR"
	ProductName           = "20 Laws of Feminine Power Guide"
)

type Order struct {
	ID        string    `json:"order_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Receipt   string    `json:"receipt"`
	CreatedAt time.Time `json:"created_at"`
}

// GatewayOrder is what the payment gateway returns on order creation
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}
