package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/mfadhilr/edupay/internal/common/apperr"
	"github.com/mfadhilr/edupay/internal/common/money"
)

// validateOrderPaid rejects malformed order events before any money moves.
// Item prices must sum exactly to the paid amount; a mismatch means the order
// service and the payment provider disagree and settling would fabricate money.
func validateOrderPaid(event *OrderPaidEvent) error {
	if event.OrderID == "" {
		return apperr.Validation("order_id is required")
	}
	if event.UserID == "" {
		return apperr.Validation("user_id is required")
	}
	if len(event.Items) == 0 {
		return apperr.Validation("order %s has no items", event.OrderID)
	}

	paid, err := money.ParsePositive(event.PaidAmount)
	if err != nil {
		return apperr.Validation("invalid paid_amount: %v", err)
	}

	sum := decimal.Zero
	for i, item := range event.Items {
		if item.CourseID == "" {
			return apperr.Validation("item %d is missing course_id", i)
		}
		if item.InstructorID == "" {
			return apperr.Validation("item %d is missing instructor_id", i)
		}
		price, err := money.ParsePositive(item.Price)
		if err != nil {
			return apperr.Validation("item %d has invalid price: %v", i, err)
		}
		sum = sum.Add(price)
	}

	if !sum.Equal(paid) {
		return apperr.Validation("order %s item prices sum to %s, paid_amount is %s",
			event.OrderID, money.Format(sum), money.Format(paid))
	}

	return nil
}
