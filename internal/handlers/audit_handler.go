package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akylbek/payment-system/guide-delivery/internal/apperr"
	"github.com/akylbek/payment-system/guide-delivery/internal/middleware"
)

type AuditHandler struct {
	repo AuditReader
}

func NewAuditHandler(repo AuditReader) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// GetPaymentEvents returns the recorded grant trail for a payment.
func (h *AuditHandler) GetPaymentEvents(c *gin.Context) {
	paymentID := c.Param("id")

	events, err := h.repo.ListByPaymentID(c.Request.Context(), paymentID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	if len(events) == 0 {
		middleware.Fail(c, apperr.New(apperr.NotFound, "No events recorded for this payment", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_id": paymentID,
		"events":     events,
	})
}
