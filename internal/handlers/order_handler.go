package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akylbek/payment-system/guide-delivery/internal/middleware"
)

type OrderHandler struct {
	orders OrderCreator
}

func NewOrderHandler(orders OrderCreator) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder ignores any request body: price and currency are fixed.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	order, err := h.orders.CreateOrder(c.Request.Context())
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orderId":  order.ID,
		"id":       order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
	})
}
