package settlement

import (
	"context"

	"github.com/mfadhilr/edupay/internal/common/apperr"
	"github.com/mfadhilr/edupay/internal/common/kafka"
)

// ProcessOrderPaid is the order.paid consumer handler. Malformed events are
// dropped after logging; there is no amount of redelivery that fixes them.
// Transient failures return an error so the consumer holds the offset and
// retries; settlement is idempotent, so a retry after a partial failure is
// safe.
func (s *Service) ProcessOrderPaid(ctx context.Context, key, value []byte) error {
	var event OrderPaidEvent
	if err := kafka.UnmarshalEvent(value, &event); err != nil {
		s.logger.Errorf("Dropping unparseable order.paid event (key=%s): %v", string(key), err)
		return nil
	}

	result, err := s.SettleOrder(ctx, &event)
	if err != nil {
		if !apperr.IsRetryable(err) {
			s.logger.Errorf("Dropping unsettleable order %s: %v", event.OrderID, err)
			return nil
		}
		return err
	}

	if result.AlreadySettled {
		s.logger.Debugf("Duplicate order.paid for %s ignored", event.OrderID)
	}
	return nil
}
