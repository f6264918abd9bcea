package handlers

import (
	"context"
	"io"

	"github.com/akylbek/payment-system/guide-delivery/internal/models"
	"github.com/akylbek/payment-system/guide-delivery/internal/service"
)

// Service contracts used by the handlers, satisfied by the service package.
type (
	OrderCreator interface {
		CreateOrder(ctx context.Context) (*models.Order, error)
	}

	PaymentConfirmer interface {
		Confirm(ctx context.Context, orderID, paymentID, signature string) (*service.ConfirmResult, error)
		CheckStatus(ctx context.Context, paymentID string) (*models.PaymentConfirmation, error)
	}

	Deliverer interface {
		Deliver(ctx context.Context, token string, w io.Writer, prepare func(models.Attachment)) (int64, error)
	}

	AuditReader interface {
		ListByPaymentID(ctx context.Context, paymentID string) ([]models.GrantEvent, error)
	}
)
