package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/guide-delivery/internal/models"
	"github.com/akylbek/payment-system/guide-delivery/internal/telemetry"
)

var (
	// ErrUnavailable covers transport failures and gateway 5xx responses.
	ErrUnavailable     = errors.New("payment gateway unavailable")
	ErrPaymentNotFound = errors.New("payment not found at gateway")
	ErrRejected        = errors.New("payment gateway rejected request")
)

const DefaultBaseURL = "https://api.razorpay.com/v1"

type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// Razorpay talks to the Razorpay REST API with basic auth.
type Razorpay struct {
	client *resty.Client
	secret string
}

type createOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`

	// only captured payments unlock the download
	PaymentCapture int `json:"payment_capture"`
}

type paymentResponse struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Method   string `json:"method"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func NewRazorpay(cfg Config) *Razorpay {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Razorpay{client: client, secret: cfg.KeySecret}
}

func (r *Razorpay) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (order *models.GatewayOrder, err error) {
	ctx, span := telemetry.Tracer.Start(ctx, "gateway.CreateOrder")
	defer span.End()
	start := time.Now()
	defer func() {
		telemetry.ObserveGateway("create_order", start, err)
		recordSpanError(span, err)
	}()

	var out models.GatewayOrder
	var apiErr errorResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(createOrderRequest{Amount: amount, Currency: currency, Receipt: receipt, Notes: notes, PaymentCapture: 1}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("%w: create order: %v", ErrUnavailable, err)
	}
	if err := classify(resp, apiErr, ErrRejected); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	span.SetAttributes(attribute.String("order_id", out.ID))
	return &out, nil
}

func (r *Razorpay) FetchPayment(ctx context.Context, paymentID string) (payment *models.PaymentConfirmation, err error) {
	ctx, span := telemetry.Tracer.Start(ctx, "gateway.FetchPayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment_id", paymentID))
	start := time.Now()
	defer func() {
		telemetry.ObserveGateway("fetch_payment", start, err)
		recordSpanError(span, err)
	}()

	var out paymentResponse
	var apiErr errorResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiErr).
		Get("/payments/" + url.PathEscape(paymentID))
	if err != nil {
		return nil, fmt.Errorf("%w: fetch payment: %v", ErrUnavailable, err)
	}
	if err := classify(resp, apiErr, ErrPaymentNotFound); err != nil {
		return nil, fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}

	return &models.PaymentConfirmation{
		PaymentID: out.ID,
		OrderID:   out.OrderID,
		Status:    models.ParsePaymentStatus(out.Status),
		Amount:    out.Amount,
		Currency:  out.Currency,
		Method:    out.Method,
	}, nil
}

func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(orderID, paymentID, signature, r.secret)
}

// classify maps a non-2xx response onto the gateway error set. Auth
// failures count as unavailable: the gateway cannot be used, the payment is
// not at fault.
func classify(resp *resty.Response, apiErr errorResponse, clientErr error) error {
	status := resp.StatusCode()
	switch {
	case status >= 200 && status < 300:
		return nil
	case status >= 500, status == http.StatusUnauthorized, status == http.StatusTooManyRequests:
		telemetry.Logger.Warn("Payment gateway error response",
			zap.Int("status", status),
			zap.String("code", apiErr.Error.Code),
		)
		return fmt.Errorf("%w: status %d", ErrUnavailable, status)
	default:
		return fmt.Errorf("%w: status %d %s: %s", clientErr, status, apiErr.Error.Code, apiErr.Error.Description)
	}
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
