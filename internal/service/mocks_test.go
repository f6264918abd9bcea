package service

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/akylbek/payment-system/guide-delivery/internal/artifact"
	"github.com/akylbek/payment-system/guide-delivery/internal/gateway"
	"github.com/akylbek/payment-system/guide-delivery/internal/models"
)

const testSecret = "test_key_secret"

// MockGateway verifies signatures for real and fakes the network calls.
type MockGateway struct {
	CreateOrderFunc  func(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*models.GatewayOrder, error)
	FetchPaymentFunc func(ctx context.Context, paymentID string) (*models.PaymentConfirmation, error)

	mu         sync.Mutex
	fetchCalls int
}

func (m *MockGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*models.GatewayOrder, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, amount, currency, receipt, notes)
	}
	return &models.GatewayOrder{ID: "order_test", Amount: amount, Currency: currency, Receipt: receipt}, nil
}

func (m *MockGateway) FetchPayment(ctx context.Context, paymentID string) (*models.PaymentConfirmation, error) {
	m.mu.Lock()
	m.fetchCalls++
	m.mu.Unlock()
	if m.FetchPaymentFunc != nil {
		return m.FetchPaymentFunc(ctx, paymentID)
	}
	return nil, gateway.ErrUnavailable
}

func (m *MockGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return gateway.VerifySignature(orderID, paymentID, signature, testSecret)
}

func (m *MockGateway) FetchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls
}

func paymentWithStatus(orderID string, status models.PaymentStatus) func(context.Context, string) (*models.PaymentConfirmation, error) {
	return func(_ context.Context, paymentID string) (*models.PaymentConfirmation, error) {
		return &models.PaymentConfirmation{
			PaymentID: paymentID,
			OrderID:   orderID,
			Status:    status,
			Amount:    models.ProductAmount,
			Currency:  models.ProductCurrency,
			Method:    "upi",
		}, nil
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.GrantEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event models.GrantEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// stringSource serves an in-memory artifact.
type stringSource struct {
	body    string
	missing bool
	size    int64
}

func (s *stringSource) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	if s.missing {
		return nil, 0, artifact.ErrMissing
	}
	size := s.size
	if size == 0 {
		size = int64(len(s.body))
	}
	return io.NopCloser(strings.NewReader(s.body)), size, nil
}
