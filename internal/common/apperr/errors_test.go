package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructorsWrapSentinels(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
	}{
		{NotFound("wallet for user %s", "u1"), ErrNotFound},
		{InsufficientFunds("wallet holds %s", "1.00"), ErrInsufficientFunds},
		{Conflict("order %s already settled", "o1"), ErrConflict},
		{InvalidState("payout is %s", "approved"), ErrInvalidState},
		{Validation("amount is required"), ErrValidation},
		{NotConfigured("platform wallet missing"), ErrNotConfigured},
	}

	for _, tt := range tests {
		if !errors.Is(tt.err, tt.sentinel) {
			t.Errorf("%v does not wrap %v", tt.err, tt.sentinel)
		}
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{InsufficientFunds("x"), http.StatusUnprocessableEntity},
		{Conflict("x"), http.StatusConflict},
		{InvalidState("x"), http.StatusConflict},
		{Validation("x"), http.StatusBadRequest},
		{NotConfigured("x"), http.StatusInternalServerError},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHTTPStatusSeesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("settle order: %w", NotFound("transaction %d", 7))
	if got := HTTPStatus(wrapped); got != http.StatusNotFound {
		t.Errorf("HTTPStatus(wrapped) = %d, want %d", got, http.StatusNotFound)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(Validation("bad amount")) {
		t.Error("validation errors must not be retryable")
	}
	if IsRetryable(InsufficientFunds("x")) {
		t.Error("insufficient funds must not be retryable")
	}
	if !IsRetryable(errors.New("dial tcp: connection refused")) {
		t.Error("transient storage errors must be retryable")
	}
}
