package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/guide-delivery/internal/middleware"
	"github.com/akylbek/payment-system/guide-delivery/internal/models"
	"github.com/akylbek/payment-system/guide-delivery/internal/service"
	"github.com/akylbek/payment-system/guide-delivery/internal/telemetry"
)

type DownloadHandler struct {
	delivery Deliverer
}

func NewDownloadHandler(delivery Deliverer) *DownloadHandler {
	return &DownloadHandler{delivery: delivery}
}

func (h *DownloadHandler) Download(c *gin.Context) {
	token := c.Param("token")

	_, err := h.delivery.Deliver(c.Request.Context(), token, c.Writer, func(a models.Attachment) {
		c.Header("Content-Type", a.ContentType)
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, a.Filename))
		if a.Size > 0 {
			c.Header("Content-Length", strconv.FormatInt(a.Size, 10))
		}
		c.Header("Cache-Control", "no-store")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Status(http.StatusOK)
	})
	if err == nil {
		return
	}

	// headers are out, the client is gone or mid-stream; nothing left to render
	if errors.Is(err, service.ErrTransferInterrupted) || c.Writer.Written() {
		telemetry.Logger.Warn("Download aborted",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("token_prefix", models.TokenPrefix(token)),
			zap.Error(err),
		)
		c.Abort()
		return
	}

	middleware.Fail(c, err)
}
