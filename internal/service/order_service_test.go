package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/guide-delivery/internal/gateway"
	"github.com/akylbek/payment-system/guide-delivery/internal/models"
	"github.com/akylbek/payment-system/guide-delivery/internal/repository"
)

func TestCreateOrder_FixedPriceAndRecorded(t *testing.T) {
	var gotAmount int64
	var gotCurrency, gotReceipt string
	gw := &MockGateway{CreateOrderFunc: func(_ context.Context, amount int64, currency, receipt string, notes map[string]string) (*models.GatewayOrder, error) {
		gotAmount, gotCurrency, gotReceipt = amount, currency, receipt
		assert.Equal(t, models.ProductName, notes["product"])
		return &models.GatewayOrder{ID: "order_42", Amount: amount, Currency: currency}, nil
	}}
	ledger := repository.NewMemoryOrderLedger(24 * time.Hour)
	pub := &recordingPublisher{}

	order, err := NewOrderService(gw, ledger, pub).CreateOrder(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "order_42", order.ID)
	assert.Equal(t, int64(19900), order.Amount)
	assert.Equal(t, int64(19900), gotAmount)
	assert.Equal(t, "INR", gotCurrency)
	assert.True(t, strings.HasPrefix(gotReceipt, "rcpt_"))
	assert.LessOrEqual(t, len(gotReceipt), 40)

	ok, err := ledger.Exists(context.Background(), "order_42")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []models.EventType{models.EventOrderCreated}, pub.Types())
}

func TestCreateOrder_GatewayFailure(t *testing.T) {
	gw := &MockGateway{CreateOrderFunc: func(context.Context, int64, string, string, map[string]string) (*models.GatewayOrder, error) {
		return nil, gateway.ErrUnavailable
	}}
	ledger := repository.NewMemoryOrderLedger(24 * time.Hour)

	_, err := NewOrderService(gw, ledger, &recordingPublisher{}).CreateOrder(context.Background())
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

// Full purchase: order, captured confirmation, one download, then already used.
func TestPurchaseFlow(t *testing.T) {
	ctx := context.Background()
	gw := &MockGateway{FetchPaymentFunc: paymentWithStatus("order_test", models.PaymentCaptured)}
	ledger := repository.NewMemoryOrderLedger(24 * time.Hour)
	grants := repository.NewMemoryGrantStore(24 * time.Hour)
	pub := &recordingPublisher{}

	order, err := NewOrderService(gw, ledger, pub).CreateOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(19900), order.Amount)

	res, err := NewConfirmationService(gw, ledger, grants, pub).
		Confirm(ctx, order.ID, "pay_1", gateway.Sign(order.ID, "pay_1", testSecret))
	require.NoError(t, err)
	require.Equal(t, ConfirmCaptured, res.Status)

	delivery := NewDeliveryService(grants, &stringSource{body: testPDF}, pub, "")
	var sb strings.Builder
	_, err = delivery.Deliver(ctx, res.Token, &sb, func(models.Attachment) {})
	require.NoError(t, err)
	assert.Equal(t, testPDF, sb.String())

	_, err = delivery.Deliver(ctx, res.Token, &sb, func(models.Attachment) {})
	assert.ErrorIs(t, err, ErrGrantAlreadyUsed)

	assert.Equal(t, []models.EventType{
		models.EventOrderCreated,
		models.EventGrantIssued,
		models.EventGrantRedeemed,
	}, pub.Types())
}
