package payout

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/mfadhilr/edupay/internal/common/apperr"
	"github.com/mfadhilr/edupay/internal/common/db"
	"github.com/mfadhilr/edupay/internal/common/logger"
	"github.com/mfadhilr/edupay/internal/common/money"
	"github.com/mfadhilr/edupay/internal/common/redis"
	"github.com/mfadhilr/edupay/internal/ledger"
	"github.com/mfadhilr/edupay/internal/wallet"
	"github.com/mfadhilr/edupay/pkg/outbox"
)

const (
	topicPayoutApproved = "payout.approved"
	topicPayoutDenied   = "payout.denied"

	lockTTL = 10 * time.Second
)

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

// CreatePayout opens a withdrawal request. Eligibility is checked with the
// earnings row locked: total earned minus total withdrawn minus every other
// pending request must cover the amount. Two concurrent requests therefore
// cannot both claim the same funds.
func (s *Service) CreatePayout(ctx context.Context, instructorID, amount string) (*PayoutRequest, error) {
	if err := validateInstructorID(instructorID); err != nil {
		return nil, err
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	acquired, err := s.redis.AcquireLock(ctx, "payout:"+instructorID, lockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, apperr.Conflict("another payout request for %s is in flight", instructorID)
	}
	defer s.redis.ReleaseLock(ctx, "payout:"+instructorID)

	p := &PayoutRequest{
		ID:           uuid.New().String(),
		InstructorID: instructorID,
		Amount:       amount,
		Status:       StatusPending,
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		earnings, err := s.wallets.EarningsForUpdateTx(ctx, tx, instructorID)
		if err != nil {
			return err
		}

		held, err := s.repo.PendingHoldTx(ctx, tx, instructorID)
		if err != nil {
			return err
		}

		available, err := money.Sub(earnings.TotalEarning, earnings.TotalWithdrawn)
		if err != nil {
			return err
		}
		available, err = money.Sub(available, held)
		if err != nil {
			return err
		}

		cmp, err := money.Cmp(available, amount)
		if err != nil {
			return err
		}
		if cmp < 0 {
			return apperr.InsufficientFunds("instructor %s has %s available, requested %s",
				instructorID, available, amount)
		}

		txn, err := s.ledger.CreateTransactionTx(ctx, tx, &ledger.Transaction{
			UserID:      instructorID,
			Amount:      amount,
			Description: ledger.DescriptionPayout,
			Status:      ledger.StatusPending,
		})
		if err != nil {
			return err
		}

		p.TransactionID = txn.ID
		return s.repo.CreatePayoutTx(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Payout request %s created for %s (amount %s, transaction %d)",
		p.ID, instructorID, amount, p.TransactionID)
	return p, nil
}

// AcceptPayout approves a pending request: the wallet is debited, the
// withdrawal is recorded against the earnings ledger, the backing transaction
// completes, and the notification event is staged. One atomic unit.
func (s *Service) AcceptPayout(ctx context.Context, id string) (*PayoutRequest, error) {
	if err := validatePayoutID(id); err != nil {
		return nil, err
	}

	var p *PayoutRequest
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		p, err = s.repo.GetPayoutForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.Status != StatusPending {
			return apperr.InvalidState("payout request %s is %s, only pending requests can be accepted", id, p.Status)
		}

		// Wallet row before earnings row, matching the settlement path.
		metadata := map[string]interface{}{"payout_request_id": p.ID}
		if _, err := s.wallets.DebitTx(ctx, tx, p.InstructorID, p.Amount, metadata); err != nil {
			return err
		}

		if _, err := s.wallets.EarningsForUpdateTx(ctx, tx, p.InstructorID); err != nil {
			return err
		}
		if err := s.wallets.WithdrawTx(ctx, tx, p.InstructorID, p.Amount); err != nil {
			return err
		}

		found, err := s.ledger.UpdateStatusTx(ctx, tx, p.TransactionID, ledger.StatusCompleted)
		if err != nil {
			return err
		}
		if !found {
			return apperr.NotFound("backing transaction %d for payout %s", p.TransactionID, id)
		}

		if err := s.repo.UpdateStatusTx(ctx, tx, id, StatusApproved, ""); err != nil {
			return err
		}

		return s.outbox.SaveEvent(ctx, tx, &outbox.OutboxEvent{
			AggregateID: p.ID,
			EventType:   "payout.approved",
			Topic:       topicPayoutApproved,
			Payload: map[string]interface{}{
				"payout_request_id": p.ID,
				"instructor_id":     p.InstructorID,
				"amount":            p.Amount,
				"transaction_id":    p.TransactionID,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.redis.InvalidateWalletBalance(ctx, p.InstructorID)
	s.logger.Infof("Payout request %s approved (%s paid out to %s)", p.ID, p.Amount, p.InstructorID)

	return s.repo.GetPayout(ctx, id)
}

// DenyPayout rejects a pending request with a mandatory reason. The backing
// transaction is marked failed and the held funds become available again; no
// balance changes.
func (s *Service) DenyPayout(ctx context.Context, id, reason string) (*PayoutRequest, error) {
	if err := validatePayoutID(id); err != nil {
		return nil, err
	}
	if err := validateDenyReason(reason); err != nil {
		return nil, err
	}

	var p *PayoutRequest
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		p, err = s.repo.GetPayoutForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.Status != StatusPending {
			return apperr.InvalidState("payout request %s is %s, only pending requests can be denied", id, p.Status)
		}

		found, err := s.ledger.UpdateStatusTx(ctx, tx, p.TransactionID, ledger.StatusFailed)
		if err != nil {
			return err
		}
		if !found {
			return apperr.NotFound("backing transaction %d for payout %s", p.TransactionID, id)
		}

		if err := s.repo.UpdateStatusTx(ctx, tx, id, StatusRejected, reason); err != nil {
			return err
		}

		return s.outbox.SaveEvent(ctx, tx, &outbox.OutboxEvent{
			AggregateID: p.ID,
			EventType:   "payout.denied",
			Topic:       topicPayoutDenied,
			Payload: map[string]interface{}{
				"payout_request_id": p.ID,
				"instructor_id":     p.InstructorID,
				"amount":            p.Amount,
				"reason":            reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Payout request %s denied: %s", p.ID, reason)
	return s.repo.GetPayout(ctx, id)
}

func (s *Service) PayoutByID(ctx context.Context, id string) (*PayoutRequest, error) {
	if err := validatePayoutID(id); err != nil {
		return nil, err
	}
	return s.repo.GetPayout(ctx, id)
}

func (s *Service) PendingPayouts(ctx context.Context, limit, offset int) ([]PayoutRequest, error) {
	return s.repo.ListByStatus(ctx, StatusPending, limit, offset)
}

func (s *Service) ApprovedPayouts(ctx context.Context, limit, offset int) ([]PayoutRequest, error) {
	return s.repo.ListByStatus(ctx, StatusApproved, limit, offset)
}

func (s *Service) RejectedPayouts(ctx context.Context, limit, offset int) ([]PayoutRequest, error) {
	return s.repo.ListByStatus(ctx, StatusRejected, limit, offset)
}

func (s *Service) MyPayouts(ctx context.Context, instructorID string, limit, offset int) ([]PayoutRequest, error) {
	if err := validateInstructorID(instructorID); err != nil {
		return nil, err
	}
	return s.repo.ListByInstructor(ctx, instructorID, limit, offset)
}

// PendingHold implements the wallet availability hook: earnings views subtract
// this amount before reporting what an instructor can withdraw.
func (s *Service) PendingHold(ctx context.Context, instructorID string) (string, error) {
	return s.repo.PendingHold(ctx, instructorID)
}
