package services

import (
	"errors"
	"fmt"
)

// Business errors shared across services. Handlers map these onto HTTP
// status codes; everything else is a 500.
var (
	ErrForbidden         = errors.New("you do not have access to this resource")
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidTransition = errors.New("the request cannot move to that state from its current one")
	ErrInsufficientStock = errors.New("issued quantity exceeds the available stock")
)

// BufferExceededError rejects a receipt that would push the cumulative
// received quantity past the ordered amount plus tolerance.
type BufferExceededError struct {
	Max float64 // highest cumulative quantity the order allows
}

func (e *BufferExceededError) Error() string {
	return fmt.Sprintf("received quantity exceeds the ordered amount; at most %.3f can be accepted in total", e.Max)
}

// ValidationError carries a user-facing message for a malformed or
// incomplete request body.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
