package wallet

import (
	"github.com/mfadhilr/edupay/internal/common/apperr"
	"github.com/mfadhilr/edupay/internal/common/money"
)

func validateUserID(userID string) error {
	if userID == "" {
		return apperr.Validation("user_id is required")
	}
	if len(userID) > 64 {
		return apperr.Validation("user_id must be at most 64 characters")
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
