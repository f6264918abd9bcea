package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/akylbek/payment-system/guide-delivery/internal/events"
	"github.com/akylbek/payment-system/guide-delivery/internal/gateway"
	"github.com/akylbek/payment-system/guide-delivery/internal/interfaces"
	"github.com/akylbek/payment-system/guide-delivery/internal/models"
	"github.com/akylbek/payment-system/guide-delivery/internal/telemetry"
)

// DefaultRetryAfter is the client backoff suggested for pending payments.
// Typical UPI settlement completes within one such retry.
const DefaultRetryAfter = 2 * time.Second

type ConfirmStatus string

const (
	ConfirmCaptured ConfirmStatus = "captured"
	ConfirmPending  ConfirmStatus = "pending"
)

type ConfirmResult struct {
	Status        ConfirmStatus
	Token         string
	PaymentStatus models.PaymentStatus
	RetryAfter    time.Duration
}

// ConfirmationService turns a reported payment into a download grant once the
// gateway says the funds are captured.
type ConfirmationService struct {
	gateway    interfaces.PaymentGateway
	ledger     interfaces.OrderLedger
	grants     interfaces.GrantStore
	publisher  interfaces.EventPublisher
	retryAfter time.Duration
}

func NewConfirmationService(
	gateway interfaces.PaymentGateway,
	ledger interfaces.OrderLedger,
	grants interfaces.GrantStore,
	publisher interfaces.EventPublisher,
) *ConfirmationService {
	return &ConfirmationService{
		gateway:    gateway,
		ledger:     ledger,
		grants:     grants,
		publisher:  publisher,
		retryAfter: DefaultRetryAfter,
	}
}

func (s *ConfirmationService) Confirm(ctx context.Context, orderID, paymentID, signature string) (*ConfirmResult, error) {
	result, err := s.confirm(ctx, orderID, paymentID, signature)
	switch {
	case err != nil:
		telemetry.Confirmations.WithLabelValues(resultLabel(err)).Inc()
	default:
		telemetry.Confirmations.WithLabelValues(string(result.Status)).Inc()
	}
	return result, err
}

func (s *ConfirmationService) confirm(ctx context.Context, orderID, paymentID, signature string) (*ConfirmResult, error) {
	if orderID == "" || paymentID == "" || signature == "" {
		return nil, ErrMissingFields
	}

	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		telemetry.Logger.Warn("Payment signature mismatch",
			zap.String("order_id", orderID),
			zap.String("payment_id", paymentID),
		)
		return nil, ErrInvalidSignature
	}

	order, err := s.ledger.Get(ctx, orderID)
	if errors.Is(err, models.ErrOrderNotFound) {
		// the order may have been swept while its grant is still live
		if g, lerr := s.grants.Lookup(ctx, paymentID); lerr == nil && g.OrderID == orderID {
			telemetry.Logger.Info("Order expired, returning existing grant",
				zap.String("order_id", orderID),
				zap.String("payment_id", paymentID),
				zap.String("token_prefix", models.TokenPrefix(g.Token)),
			)
			return &ConfirmResult{
				Status:        ConfirmCaptured,
				Token:         g.Token,
				PaymentStatus: models.PaymentCaptured,
			}, nil
		}
		telemetry.Logger.Warn("Verification for unknown order",
			zap.String("order_id", orderID),
			zap.String("payment_id", paymentID),
		)
		return nil, ErrUnknownOrder
	}
	if err != nil {
		return nil, fmt.Errorf("lookup order %s: %w", orderID, err)
	}

	payment, err := s.fetch(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if payment.OrderID != "" && payment.OrderID != orderID {
		telemetry.Logger.Warn("Payment belongs to a different order",
			zap.String("order_id", orderID),
			zap.String("payment_order_id", payment.OrderID),
			zap.String("payment_id", paymentID),
		)
		return nil, ErrOrderMismatch
	}

	switch {
	case payment.Status == models.PaymentCaptured:
		if payment.Amount != order.Amount {
			telemetry.Logger.Warn("Captured amount differs from order amount",
				zap.String("payment_id", paymentID),
				zap.Int64("captured", payment.Amount),
				zap.Int64("expected", order.Amount),
			)
			return nil, ErrOrderMismatch
		}
		return s.grant(ctx, order, payment)

	case payment.Status.Terminal():
		telemetry.Logger.Info("Payment not successful",
			zap.String("payment_id", paymentID),
			zap.String("status", string(payment.Status)),
		)
		return nil, ErrPaymentFailed

	default:
		// created, authorized and unrecognised states may still settle
		telemetry.Logger.Info("Payment not captured yet",
			zap.String("payment_id", paymentID),
			zap.String("status", string(payment.Status)),
		)
		return &ConfirmResult{
			Status:        ConfirmPending,
			PaymentStatus: payment.Status,
			RetryAfter:    s.retryAfter,
		}, nil
	}
}

func (s *ConfirmationService) grant(ctx context.Context, order *models.Order, payment *models.PaymentConfirmation) (*ConfirmResult, error) {
	g, created, err := s.grants.Issue(ctx, payment.PaymentID, order.ID)
	if err != nil {
		return nil, fmt.Errorf("issue grant for %s: %w", payment.PaymentID, err)
	}

	if created {
		telemetry.GrantsIssued.Inc()
		telemetry.Logger.Info("Payment verified",
			zap.String("payment_id", payment.PaymentID),
			zap.String("order_id", order.ID),
			zap.Int64("amount", payment.Amount),
			zap.String("method", payment.Method),
			zap.String("token_prefix", models.TokenPrefix(g.Token)),
		)

		event := events.New(models.EventGrantIssued)
		event.OrderID = order.ID
		event.PaymentID = payment.PaymentID
		event.TokenPrefix = models.TokenPrefix(g.Token)
		event.Amount = payment.Amount
		publish(ctx, s.publisher, event)
	}

	return &ConfirmResult{
		Status:        ConfirmCaptured,
		Token:         g.Token,
		PaymentStatus: payment.Status,
	}, nil
}

// CheckStatus returns the gateway's current verdict for a payment.
func (s *ConfirmationService) CheckStatus(ctx context.Context, paymentID string) (*models.PaymentConfirmation, error) {
	if paymentID == "" {
		return nil, ErrMissingPaymentID
	}
	return s.fetch(ctx, paymentID)
}

func (s *ConfirmationService) fetch(ctx context.Context, paymentID string) (*models.PaymentConfirmation, error) {
	payment, err := s.gateway.FetchPayment(ctx, paymentID)
	switch {
	case err == nil:
		return payment, nil
	case errors.Is(err, gateway.ErrPaymentNotFound):
		return nil, fmt.Errorf("%w: %v", ErrUnknownPayment, err)
	default:
		telemetry.Logger.Error("Error fetching payment from gateway",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
}
