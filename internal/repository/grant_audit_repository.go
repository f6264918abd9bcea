package repository

import (
	"context"
	"database/sql"

	"github.com/akylbek/payment-system/guide-delivery/internal/models"
)

// GrantAuditRepository keeps an append-only trail of grant lifecycle events.
// It is an audit log, not a source of truth for grant state.
type GrantAuditRepository struct {
	db *sql.DB
}

func NewGrantAuditRepository(db *sql.DB) *GrantAuditRepository {
	return &GrantAuditRepository{db: db}
}

func (r *GrantAuditRepository) InitDB(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS grant_events (
			event_id VARCHAR(64) PRIMARY KEY,
			event_type VARCHAR(50) NOT NULL,
			order_id VARCHAR(255),
			payment_id VARCHAR(255),
			token_prefix VARCHAR(16),
			amount BIGINT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_grant_events_payment_id ON grant_events(payment_id)`,
	}

	for _, query := range queries {
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			return err
		}
	}

	return nil
}

func (r *GrantAuditRepository) Append(ctx context.Context, event models.GrantEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO grant_events (event_id, event_type, order_id, payment_id, token_prefix, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id) DO NOTHING
	`, event.ID, string(event.Type), event.OrderID, event.PaymentID, event.TokenPrefix, event.Amount, event.Timestamp)
	return err
}

// ListByPaymentID returns the trail for one payment, oldest first.
func (r *GrantAuditRepository) ListByPaymentID(ctx context.Context, paymentID string) ([]models.GrantEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_id, event_type, order_id, payment_id, token_prefix, amount, created_at
		FROM grant_events WHERE payment_id = $1
		ORDER BY created_at ASC
	`, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.GrantEvent
	for rows.Next() {
		var e models.GrantEvent
		var eventType string
		if err := rows.Scan(&e.ID, &eventType, &e.OrderID, &e.PaymentID, &e.TokenPrefix, &e.Amount, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Type = models.EventType(eventType)
		events = append(events, e)
	}
	return events, rows.Err()
}
