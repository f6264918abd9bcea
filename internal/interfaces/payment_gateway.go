package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/guide-delivery/internal/models"
)

// PaymentGateway defines the capabilities consumed from the external payment gateway
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*models.GatewayOrder, error)
	FetchPayment(ctx context.Context, paymentID string) (*models.PaymentConfirmation, error)
	VerifySignature(orderID, paymentID, signature string) bool
}
