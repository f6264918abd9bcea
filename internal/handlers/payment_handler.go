package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/akylbek/payment-system/guide-delivery/internal/apperr"
	"github.com/akylbek/payment-system/guide-delivery/internal/middleware"
	"github.com/akylbek/payment-system/guide-delivery/internal/models"
	"github.com/akylbek/payment-system/guide-delivery/internal/service"
)

type PaymentHandler struct {
	payments PaymentConfirmer
}

func NewPaymentHandler(payments PaymentConfirmer) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// verifyPaymentRequest accepts both our field names and the ones the
// Razorpay checkout handler emits.
type verifyPaymentRequest struct {
	OrderID   string `json:"orderId" form:"orderId"`
	PaymentID string `json:"paymentId" form:"paymentId"`
	Signature string `json:"signature" form:"signature"`

	RazorpayOrderID   string `json:"razorpay_order_id" form:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id" form:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature" form:"razorpay_signature"`
}

func (r verifyPaymentRequest) fields() (orderID, paymentID, signature string) {
	return firstNonEmpty(r.OrderID, r.RazorpayOrderID),
		firstNonEmpty(r.PaymentID, r.RazorpayPaymentID),
		firstNonEmpty(r.Signature, r.RazorpaySignature)
}

func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.Fail(c, apperr.BadRequestErr("invalid request body"))
		return
	}

	orderID, paymentID, signature := req.fields()
	result, err := h.payments.Confirm(c.Request.Context(), orderID, paymentID, signature)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	if result.Status == service.ConfirmPending {
		seconds := int(result.RetryAfter.Seconds())
		c.Header("Retry-After", strconv.Itoa(seconds))
		c.JSON(http.StatusAccepted, gin.H{
			"success":           false,
			"status":            service.ConfirmPending,
			"paymentStatus":     result.PaymentStatus,
			"retryAfterSeconds": seconds,
			"message":           "Payment not completed yet",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"status":        result.Status,
		"downloadToken": result.Token,
		"granted":       result.Token,
	})
}

func (h *PaymentHandler) CheckStatus(c *gin.Context) {
	paymentID := firstNonEmpty(c.Query("paymentId"), c.Query("payment_id"))

	payment, err := h.payments.CheckStatus(c.Request.Context(), paymentID)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	captured := payment.Status == models.PaymentCaptured
	c.JSON(http.StatusOK, gin.H{
		"success":   captured,
		"paymentId": payment.PaymentID,
		"orderId":   payment.OrderID,
		"status":    payment.Status,
		"captured":  captured,
		"amount":    payment.Amount,
		"currency":  payment.Currency,
		"method":    payment.Method,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
