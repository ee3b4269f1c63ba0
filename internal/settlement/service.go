package settlement

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/mfadhilr/edupay/internal/common/db"
	"github.com/mfadhilr/edupay/internal/common/logger"
	"github.com/mfadhilr/edupay/internal/common/money"
	"github.com/mfadhilr/edupay/internal/common/redis"
	"github.com/mfadhilr/edupay/internal/ledger"
	"github.com/mfadhilr/edupay/internal/wallet"
	"github.com/mfadhilr/edupay/pkg/outbox"
)

// Topics this service produces to and consumes from.
const (
	TopicOrderPaid    = "order.paid"
	topicCourseAccess = "course.access_granted"
	topicNotification = "notification.purchase_email"
	topicStats        = "stats.changed"
)

const idempotencyTTL = 24 * time.Hour

// errAlreadySettled aborts the settlement transaction when the order row
// conflict fires, rolling back every staged write.
var errAlreadySettled = errors.New("order already settled")

type Service struct {
	repo    *Repository
	ledger  *ledger.Repository
	wallets *wallet.Service
	outbox  *outbox.Repository
	db      *db.DB
	redis   *redis.Client
	logger  *logger.Logger
}

func NewService(
	repo *Repository,
	ledgerRepo *ledger.Repository,
	wallets *wallet.Service,
	outboxRepo *outbox.Repository,
	database *db.DB,
	rdb *redis.Client,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:    repo,
		ledger:  ledgerRepo,
		wallets: wallets,
		outbox:  outboxRepo,
		db:      database,
		redis:   rdb,
		logger:  log,
	}
}

// SettleOrder applies the money movement for a paid order exactly once: one
// completed ledger transaction, a 30/70 split per item into the platform
// wallet and each instructor's earnings and wallet, and the follow-up events
// staged in the outbox. Everything commits atomically or nothing does.
func (s *Service) SettleOrder(ctx context.Context, event *OrderPaidEvent) (*Result, error) {
	if err := validateOrderPaid(event); err != nil {
		return nil, err
	}

	// Fast path for redelivered events. The settlements primary key is the
	// real guard; Redis only saves the transaction round trip.
	if seen, err := s.redis.CheckIdempotency(ctx, "settlement:"+event.OrderID); err == nil && seen {
		if existing, err := s.repo.GetSettlement(ctx, event.OrderID); err == nil {
			return &Result{Settlement: existing, AlreadySettled: true}, nil
		}
	}

	// Wallet row locks are taken in instructor order so concurrent settlements
	// touching the same instructors cannot deadlock.
	items := make([]OrderItem, len(event.Items))
	copy(items, event.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].InstructorID < items[j].InstructorID })

	var result *Result
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		settled, err := s.repo.IsSettledTx(ctx, tx, event.OrderID)
		if err != nil {
			return err
		}
		if settled {
			return errAlreadySettled
		}

		platformTotal := "0.00"
		for _, item := range items {
			platformShare, instructorShare, err := money.Split(item.Price)
			if err != nil {
				return err
			}

			if err := s.wallets.EnsureWalletTx(ctx, tx, item.InstructorID); err != nil {
				return err
			}

			metadata := map[string]interface{}{
				"order_id":  event.OrderID,
				"course_id": item.CourseID,
			}
			if _, err := s.wallets.CreditTx(ctx, tx, item.InstructorID, instructorShare, metadata); err != nil {
				return err
			}

			if err := s.wallets.AddEarningTx(ctx, tx, item.InstructorID, instructorShare); err != nil {
				return err
			}

			platformTotal, err = money.Add(platformTotal, platformShare)
			if err != nil {
				return err
			}

			err = s.outbox.SaveEvent(ctx, tx, &outbox.OutboxEvent{
				AggregateID: event.OrderID,
				EventType:   "course.access_granted",
				Topic:       topicCourseAccess,
				Payload: map[string]interface{}{
					"order_id":  event.OrderID,
					"user_id":   event.UserID,
					"course_id": item.CourseID,
				},
			})
			if err != nil {
				return err
			}
		}

		if err := s.wallets.CreditPlatformTx(ctx, tx, platformTotal); err != nil {
			return err
		}

		err = s.outbox.SaveEvent(ctx, tx, &outbox.OutboxEvent{
			AggregateID: event.OrderID,
			EventType:   "notification.purchase_email",
			Topic:       topicNotification,
			Payload: map[string]interface{}{
				"order_id": event.OrderID,
				"user_id":  event.UserID,
				"amount":   event.PaidAmount,
			},
		})
		if err != nil {
			return err
		}

		err = s.outbox.SaveEvent(ctx, tx, &outbox.OutboxEvent{
			AggregateID: event.OrderID,
			EventType:   "stats.changed",
			Topic:       topicStats,
			Payload: map[string]interface{}{
				"order_id": event.OrderID,
				"amount":   event.PaidAmount,
			},
		})
		if err != nil {
			return err
		}

		// The ledger insert takes the id-sequence advisory lock, which
		// serializes all id allocation until commit. It runs last, after every
		// row lock, so the serialized window is small and the lock order
		// (rows, then advisory) matches payout creation.
		txn, err := s.ledger.CreateTransactionTx(ctx, tx, &ledger.Transaction{
			UserID:        event.UserID,
			Amount:        event.PaidAmount,
			PaymentMethod: event.PaymentMethod,
			Description:   ledger.DescriptionOrder,
			Status:        ledger.StatusCompleted,
		})
		if err != nil {
			return err
		}

		settlement := &Settlement{
			OrderID:       event.OrderID,
			UserID:        event.UserID,
			Amount:        event.PaidAmount,
			TransactionID: txn.ID,
		}
		inserted, err := s.repo.CreateSettlementTx(ctx, tx, settlement)
		if err != nil {
			return err
		}
		if !inserted {
			// Lost a race with a concurrent settlement of the same order; the
			// rollback discards everything staged above.
			return errAlreadySettled
		}

		result = &Result{Settlement: settlement}
		return nil
	})

	if errors.Is(err, errAlreadySettled) {
		existing, getErr := s.repo.GetSettlement(ctx, event.OrderID)
		if getErr != nil {
			return nil, getErr
		}
		s.logger.Infof("Order %s already settled, skipping", event.OrderID)
		return &Result{Settlement: existing, AlreadySettled: true}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.redis.SetIdempotency(ctx, "settlement:"+event.OrderID, idempotencyTTL); err != nil {
		s.logger.Warnf("Failed to mark settlement %s in redis: %v", event.OrderID, err)
	}
	for _, item := range items {
		s.redis.InvalidateWalletBalance(ctx, item.InstructorID)
	}

	s.logger.Infof("Order %s settled: transaction %d, %d item(s), total %s",
		event.OrderID, result.Settlement.TransactionID, len(items), event.PaidAmount)
	return result, nil
}

func (s *Service) GetSettlement(ctx context.Context, orderID string) (*Settlement, error) {
	return s.repo.GetSettlement(ctx, orderID)
}

func (s *Service) ListSettlements(ctx context.Context, limit, offset int) ([]Settlement, error) {
	return s.repo.ListSettlements(ctx, limit, offset)
}
