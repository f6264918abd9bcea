package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/akylbek/payment-system/guide-delivery/internal/models"
)

// MsgPublisher is satisfied by *nats.Conn.
type MsgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// NatsPublisher publishes to "<subject>.<event type>", e.g.
// download.grant.events.grant.issued.
type NatsPublisher struct {
	conn    MsgPublisher
	subject string
}

func NewNatsPublisher(conn MsgPublisher, subject string) *NatsPublisher {
	return &NatsPublisher{conn: conn, subject: subject}
}

func (p *NatsPublisher) Publish(ctx context.Context, event models.GrantEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(p.subject + "." + string(event.Type))
	msg.Data = payload
	msg.Header.Set("Event-Id", event.ID)
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", event.Type, err)
	}
	return nil
}
