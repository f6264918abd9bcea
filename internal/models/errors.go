package models

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrGrantNotFound    = errors.New("grant not found")
	ErrGrantAlreadyUsed = errors.New("grant already used")
	ErrGrantExpired     = errors.New("grant expired")
	ErrStaleHandle      = errors.New("grant handle is not the current redemption")

	// ErrGrantInProgress matches ErrGrantAlreadyUsed under errors.Is.
	ErrGrantInProgress = fmt.Errorf("%w: transfer in progress", ErrGrantAlreadyUsed)
)
