package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/akylbek/payment-system/guide-delivery/internal/interfaces"
	"github.com/akylbek/payment-system/guide-delivery/internal/models"
)

// New stamps an event with an id and timestamp.
func New(eventType models.EventType) models.GrantEvent {
	return models.GrantEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// Multi fans an event out to every sink and joins their errors.
type Multi []interfaces.EventPublisher

func (m Multi) Publish(ctx context.Context, event models.GrantEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(context.Context, models.GrantEvent) error { return nil }
