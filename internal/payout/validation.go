package payout

import (
	"strings"

	"github.com/google/uuid"

	"github.com/mfadhilr/edupay/internal/common/apperr"
	"github.com/mfadhilr/edupay/internal/common/money"
)

func validateInstructorID(instructorID string) error {
	if instructorID == "" {
		return apperr.Validation("instructor_id is required")
	}
	if len(instructorID) > 64 {
		return apperr.Validation("instructor_id must be at most 64 characters")
	}
	return nil
}

func validateAmount(amount string) error {
	if amount == "" {
		return apperr.Validation("amount is required")
	}
	if _, err := money.ParsePositive(amount); err != nil {
		return apperr.Validation("invalid amount: %v", err)
	}
	return nil
}

func validatePayoutID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validation("invalid payout request id %q", id)
	}
	return nil
}

func validateDenyReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return apperr.Validation("a reason is required to deny a payout request")
	}
	return nil
}
