package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/guide-delivery/internal/events"
	"github.com/akylbek/payment-system/guide-delivery/internal/interfaces"
	"github.com/akylbek/payment-system/guide-delivery/internal/models"
	"github.com/akylbek/payment-system/guide-delivery/internal/telemetry"
)

type OrderService struct {
	gateway   interfaces.PaymentGateway
	ledger    interfaces.OrderLedger
	publisher interfaces.EventPublisher
	now       func() time.Time
}

func NewOrderService(gateway interfaces.PaymentGateway, ledger interfaces.OrderLedger, publisher interfaces.EventPublisher) *OrderService {
	return &OrderService{
		gateway:   gateway,
		ledger:    ledger,
		publisher: publisher,
		now:       time.Now,
	}
}

// CreateOrder opens a gateway order at the fixed product price and records it.
func (s *OrderService) CreateOrder(ctx context.Context) (*models.Order, error) {
	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	gwOrder, err := s.gateway.CreateOrder(ctx, models.ProductAmount, models.ProductCurrency, receipt, map[string]string{
		"product": models.ProductName,
	})
	if err != nil {
		telemetry.Logger.Error("Failed to create gateway order", zap.String("receipt", receipt), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	order := models.Order{
		ID:        gwOrder.ID,
		Amount:    models.ProductAmount,
		Currency:  models.ProductCurrency,
		Receipt:   receipt,
		CreatedAt: s.now(),
	}
	if err := s.ledger.Record(ctx, order); err != nil {
		return nil, fmt.Errorf("record order %s: %w", order.ID, err)
	}

	telemetry.OrdersCreated.Inc()
	telemetry.Logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.Int64("amount", order.Amount),
		zap.String("currency", order.Currency),
	)

	event := events.New(models.EventOrderCreated)
	event.OrderID = order.ID
	event.Amount = order.Amount
	publish(ctx, s.publisher, event)

	return &order, nil
}

// publish never fails the caller and survives request cancellation.
func publish(ctx context.Context, publisher interfaces.EventPublisher, event models.GrantEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := publisher.Publish(ctx, event); err != nil {
		telemetry.Logger.Warn("Failed to publish event",
			zap.String("event_type", string(event.Type)),
			zap.String("payment_id", event.PaymentID),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}
