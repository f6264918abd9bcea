package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/guide-delivery/internal/models"
)

type EventPublisher interface {
	Publish(ctx context.Context, event models.GrantEvent) error
}
