package events

import (
	"context"
	"fmt"

	"github.com/akylbek/payment-system/guide-delivery/internal/models"
)

type AuditAppender interface {
	Append(ctx context.Context, event models.GrantEvent) error
}

// AuditPublisher writes events to the audit trail.
type AuditPublisher struct {
	repo AuditAppender
}

func NewAuditPublisher(repo AuditAppender) *AuditPublisher {
	return &AuditPublisher{repo: repo}
}

func (p *AuditPublisher) Publish(ctx context.Context, event models.GrantEvent) error {
	if err := p.repo.Append(ctx, event); err != nil {
		return fmt.Errorf("audit append %s: %w", event.Type, err)
	}
	return nil
}
