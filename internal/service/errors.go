package service

import (
	"errors"

	"github.com/akylbek/payment-system/guide-delivery/internal/apperr"
)

// Each error maps to one user-facing message. Already-used, expired and
// not-found stay distinct because they lead to different support answers.
var (
	ErrMissingFields      = apperr.New(apperr.BadRequest, "Missing payment details", nil)
	ErrMissingPaymentID   = apperr.New(apperr.BadRequest, "paymentId is required", nil)
	ErrInvalidSignature   = apperr.New(apperr.InvalidSignature, "Invalid payment signature", nil)
	ErrUnknownOrder       = apperr.New(apperr.BadRequest, "Unknown order", nil)
	ErrOrderMismatch      = apperr.New(apperr.BadRequest, "Payment does not match this order", nil)
	ErrUnknownPayment     = apperr.New(apperr.BadRequest, "Payment not found", nil)
	ErrGatewayUnavailable = apperr.New(apperr.GatewayUnavailable, "Could not reach the payment gateway. Please check again shortly.", nil)
	ErrPaymentFailed      = apperr.New(apperr.PaymentFailed, "Payment did not go through", nil)

	ErrGrantNotFound    = apperr.New(apperr.NotFound, "Invalid download link", nil)
	ErrGrantAlreadyUsed = apperr.New(apperr.AlreadyUsed, "This download link has already been used", nil)
	ErrGrantInProgress  = apperr.New(apperr.InProgress, "This download is already in progress", nil)
	ErrGrantExpired     = apperr.New(apperr.Expired, "Download link has expired", nil)
	ErrArtifactMissing  = apperr.New(apperr.ArtifactMissing, "The guide is temporarily unavailable. Your link is still valid, please try again later.", nil)

	// ErrTransferInterrupted is reported after headers were sent, so it
	// never reaches the client.
	ErrTransferInterrupted = errors.New("transfer interrupted")
)

func resultLabel(err error) string {
	return string(apperr.KindOf(err))
}
