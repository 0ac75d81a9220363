package domain

import "errors"

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrInsufficientStock   = errors.New("Insufficient stock available")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrHoldNotFound        = errors.New("hold not found")
	ErrHoldExpired         = errors.New("Hold has expired")
	ErrHoldAlreadyUsed     = errors.New("Hold has already been used")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrIdempotencyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict = errors.New("idempotency key already used")
	ErrInvalidID           = errors.New("invalid id")
)
