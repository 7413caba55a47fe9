package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrOwnershipMismatch = errors.New("order does not belong to this customer")

	// ErrCodeTaken and ErrEmailTaken surface the store's unique constraints;
	// callers treat them as retry/race signals, never as user-facing errors.
	ErrCodeTaken  = errors.New("order code already taken")
	ErrEmailTaken = errors.New("email already registered")

	ErrCodeAllocationExhausted   = errors.New("order code allocation exhausted")
	ErrPaymentAlreadyInitialized = errors.New("payment already initialized for this order")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
