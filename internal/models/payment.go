package models

type PaymentStatus string

const (
	PaymentCreated    PaymentStatus = "created"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentCaptured   PaymentStatus = "captured"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentOther      PaymentStatus = "other"
)

// ParsePaymentStatus maps a raw gateway status onto the known set.
func ParsePaymentStatus(raw string) PaymentStatus {
	switch s := PaymentStatus(raw); s {
	case PaymentCreated, PaymentAuthorized, PaymentCaptured, PaymentFailed, PaymentRefunded:
		return s
	default:
		return PaymentOther
	}
}

// Terminal reports whether the payment can no longer become captured.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentFailed || s == PaymentRefunded
}

// PaymentConfirmation is the gateway's authoritative verdict for a payment id.
// It is fetched fresh on every check and never cached.
type PaymentConfirmation struct {
	PaymentID string        `json:"payment_id"`
	OrderID   string        `json:"order_id"`
	Status    PaymentStatus `json:"status"`
	Amount    int64         `json:"amount"`
	Currency  string        `json:"currency"`
	Method    string        `json:"method"`
}
