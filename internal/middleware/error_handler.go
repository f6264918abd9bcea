package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/guide-delivery/internal/apperr"
	"github.com/akylbek/payment-system/guide-delivery/internal/telemetry"
)

// Fail records err for ErrorHandler and stops the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler renders the last recorded error as JSON, unless the handler
// already started writing a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := apperr.HTTPStatus(err)
		rid := GetRequestID(c)

		fields := []zap.Field{
			zap.String("request_id", rid),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		}
		if status >= 500 {
			telemetry.Logger.Error("Request failed", fields...)
		} else {
			telemetry.Logger.Warn("Request rejected", fields...)
		}

		c.AbortWithStatusJSON(status, gin.H{
			"success":   false,
			"error":     apperr.PublicMessage(err),
			"code":      apperr.KindOf(err),
			"requestId": rid,
		})
	}
}
