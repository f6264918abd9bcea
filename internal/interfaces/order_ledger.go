package interfaces

import (
	"context"
	"time"

	"github.com/akylbek/payment-system/guide-delivery/internal/models"
)

// OrderLedger records orders created by this service
type OrderLedger interface {
	Record(ctx context.Context, order models.Order) error
	// Exists reports whether orderID is recorded and unexpired. Confirmation
	// uses Get instead, since it also needs the recorded amount.
	Exists(ctx context.Context, orderID string) (bool, error)
	Get(ctx context.Context, orderID string) (*models.Order, error)
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}
