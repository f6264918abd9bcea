package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	BadRequest         Kind = "bad_request"
	InvalidSignature   Kind = "invalid_signature"
	GatewayUnavailable Kind = "gateway_unavailable"
	PaymentFailed      Kind = "payment_failed"
	NotFound           Kind = "not_found"
	AlreadyUsed        Kind = "already_used"
	InProgress         Kind = "in_progress"
	Expired            Kind = "expired"
	ArtifactMissing    Kind = "artifact_missing"
	TooManyRequests    Kind = "too_many_requests"
	Internal           Kind = "internal"
)

const defaultPublicMsg = "Something went wrong. Please try again."

// Error carries a taxonomy kind, a message safe to show to the buyer and the
// underlying cause for logs.
type Error struct {
	Kind      Kind
	PublicMsg string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, publicMsg string, err error) *Error {
	return &Error{Kind: kind, PublicMsg: publicMsg, Err: err}
}

func BadRequestErr(publicMsg string) *Error {
	return &Error{Kind: BadRequest, PublicMsg: publicMsg, Err: errors.New(publicMsg)}
}

// Wrap marks an unexpected error as internal.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	if ae, ok := As(err); ok {
		return ae
	}
	return &Error{Kind: Internal, PublicMsg: defaultPublicMsg, Err: err}
}

func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return Internal
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case BadRequest, InvalidSignature:
		return http.StatusBadRequest
	case PaymentFailed:
		return http.StatusPaymentRequired
	case NotFound:
		return http.StatusNotFound
	case AlreadyUsed, Expired:
		return http.StatusGone
	case InProgress:
		return http.StatusConflict
	case TooManyRequests:
		return http.StatusTooManyRequests
	case GatewayUnavailable:
		return http.StatusBadGateway
	case ArtifactMissing:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func PublicMessage(err error) string {
	if ae, ok := As(err); ok && ae.PublicMsg != "" {
		return ae.PublicMsg
	}
	return defaultPublicMsg
}
