// Package apperr defines the caller-visible error kinds of the settlement
// domain. Services return these wrapped with context; handlers map them to
// HTTP status codes with HTTPStatus. Storage failures (I/O, lock timeouts)
// are deliberately NOT part of this taxonomy: they stay as plain wrapped
// errors so a transient failure is never mistaken for a business outcome.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound - the referenced wallet, transaction, payout request or
	// platform wallet row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds - a debit or payout request exceeds the available
	// balance. The balance is left unchanged.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflict - duplicate wallet creation or a second settlement attempt
	// for an already settled order.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState - an action was attempted on a payout request outside
	// the required state, e.g. approving an already rejected request.
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation - malformed input: non-positive amounts, missing deny
	// reason, empty identifiers.
	ErrValidation = errors.New("validation failed")

	// ErrNotConfigured - the platform wallet singleton has zero or more than
	// one row. Not retryable; the deployment is broken.
	ErrNotConfigured = errors.New("not configured")
)

func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func InsufficientFunds(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrInsufficientFunds)...)
}

func Conflict(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

func InvalidState(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidState)...)
}

func Validation(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func NotConfigured(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotConfigured)...)
}

// IsRetryable reports whether the caller may retry the operation. Business
// errors are final; anything outside the taxonomy is treated as transient
// storage trouble.
func IsRetryable(err error) bool {
	return !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, ErrInsufficientFunds) &&
		!errors.Is(err, ErrConflict) &&
		!errors.Is(err, ErrInvalidState) &&
		!errors.Is(err, ErrValidation) &&
		!errors.Is(err, ErrNotConfigured)
}

// HTTPStatus maps an error to the response status admin tooling expects.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotConfigured):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
