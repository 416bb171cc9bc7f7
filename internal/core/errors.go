package core

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	// ErrNotFound covers both truly absent entities and entities
	// belonging to another tenant, so existence never leaks across
	// tenant boundaries.
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrAlreadyReady      = errors.New("item is already ready")

	ErrExceedsBalance  = errors.New("amount exceeds outstanding balance")
	ErrAlreadySettled  = errors.New("order is already settled")
	ErrAlreadyRefunded = errors.New("payment is already refunded")
	ErrNotRefundable   = errors.New("payment is not refundable")

	// ErrContention is the only retryable error in the taxonomy.
	ErrContention = errors.New("contention, retry the request")

	// Store-level signals, mapped to ErrContention after retries run out.
	ErrVersionConflict = errors.New("version conflict")
	ErrNumberTaken     = errors.New("order number already taken")

	ErrDBConn = errors.New("db connection failure")
	ErrMBConn = errors.New("message broker connection failure")
)

// TransitionError names both sides of a rejected state transition.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid state transition from %q to %q", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ValidationError carries the field-level detail of a rejected input.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Detail)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
