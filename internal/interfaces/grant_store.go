package interfaces

import (
	"context"
	"time"

	"github.com/akylbek/payment-system/guide-delivery/internal/models"
)

// GrantStore owns the download grant state machine. Every method is atomic
// with respect to the others for the same token and payment id.
type GrantStore interface {
	// Issue returns the live grant for paymentID, or mints one. created is
	// true only when a new token was minted.
	Issue(ctx context.Context, paymentID, orderID string) (grant models.Grant, created bool, err error)
	// Lookup returns the live grant for paymentID, or models.ErrGrantNotFound.
	Lookup(ctx context.Context, paymentID string) (models.Grant, error)
	Redeem(ctx context.Context, token string) (models.GrantHandle, error)
	Finalize(ctx context.Context, handle models.GrantHandle, outcome models.Outcome) error
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}
