package wallet

import (
	"context"
	"database/sql"
	"time"

	"github.com/mfadhilr/edupay/internal/common/apperr"
	"github.com/mfadhilr/edupay/internal/common/db"
	"github.com/mfadhilr/edupay/internal/common/logger"
	"github.com/mfadhilr/edupay/internal/common/money"
	"github.com/mfadhilr/edupay/internal/common/redis"
)

const (
	lockTTL         = 10 * time.Second
	balanceCacheTTL = 30 * time.Second
)

// UserChecker verifies a user exists before a wallet is provisioned for them.
// Nil disables the check; settlement-created wallets trust the order event.
type UserChecker interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

// HoldProvider reports the amount currently held by in-flight withdrawal
// requests for an instructor. Nil means no holds apply.
type HoldProvider interface {
	PendingHold(ctx context.Context, instructorID string) (string, error)
}

type Service struct {
	repo   *Repository
	db     *db.DB
	redis  *redis.Client
	users  UserChecker
	holds  HoldProvider
	logger *logger.Logger
}

func NewService(repo *Repository, database *db.DB, rdb *redis.Client, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		db:     database,
		redis:  rdb,
		logger: log,
	}
}

func (s *Service) SetUserChecker(users UserChecker) {
	s.users = users
}

func (s *Service) SetHoldProvider(holds HoldProvider) {
	s.holds = holds
}

func (s *Service) CreateWallet(ctx context.Context, userID string) (*Wallet, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	if s.users != nil {
		exists, err := s.users.UserExists(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperr.NotFound("user %s", userID)
		}
	}

	w, err := s.repo.CreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Wallet created for user %s", userID)
	return w, nil
}

// GetWallet serves the balance from cache when possible; the row is the source
// of truth and refills the cache on miss.
func (s *Service) GetWallet(ctx context.Context, userID string) (*Wallet, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	if cached, err := s.redis.GetCachedWalletBalance(ctx, userID); err == nil && cached != "" {
		return &Wallet{UserID: userID, Balance: cached}, nil
	}

	w, err := s.repo.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.redis.CacheWalletBalance(ctx, userID, w.Balance, balanceCacheTTL); err != nil {
		s.logger.Warnf("Failed to cache balance for %s: %v", userID, err)
	}
	return w, nil
}

// Credit adds funds to a wallet in its own transaction. The Redis lock keeps
// retried requests from interleaving; the row lock inside CreditTx is what
// actually guarantees the balance arithmetic.
func (s *Service) Credit(ctx context.Context, userID, amount string, metadata map[string]interface{}) (*Wallet, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	acquired, err := s.redis.AcquireLock(ctx, "wallet:"+userID, lockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, apperr.Conflict("wallet for user %s is locked by another operation", userID)
	}
	defer s.redis.ReleaseLock(ctx, "wallet:"+userID)

	var w *Wallet
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		w, err = s.CreditTx(ctx, tx, userID, amount, metadata)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.redis.InvalidateWalletBalance(ctx, userID)
	return w, nil
}

// CreditTx credits within the caller's transaction. Settlement composes this
// with earnings and ledger writes so the whole unit commits or none of it does.
func (s *Service) CreditTx(ctx context.Context, tx *sql.Tx, userID, amount string, metadata map[string]interface{}) (*Wallet, error) {
	w, err := s.repo.GetWalletForUpdateTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	before := w.Balance
	after, err := money.Add(before, amount)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateBalanceTx(ctx, tx, userID, after); err != nil {
		return nil, err
	}

	event := &WalletEvent{
		UserID:        userID,
		EventType:     EventTypeCredit,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Metadata:      metadata,
	}
	if err := s.repo.RecordEventTx(ctx, tx, event); err != nil {
		return nil, err
	}

	w.Balance = after
	s.logger.Infof("Credited %s to wallet %s (balance %s -> %s)", amount, userID, before, after)
	return w, nil
}

// Debit removes funds in its own transaction, failing without side effects
// when the balance does not cover the amount.
func (s *Service) Debit(ctx context.Context, userID, amount string, metadata map[string]interface{}) (*Wallet, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	acquired, err := s.redis.AcquireLock(ctx, "wallet:"+userID, lockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, apperr.Conflict("wallet for user %s is locked by another operation", userID)
	}
	defer s.redis.ReleaseLock(ctx, "wallet:"+userID)

	var w *Wallet
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		w, err = s.DebitTx(ctx, tx, userID, amount, metadata)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.redis.InvalidateWalletBalance(ctx, userID)
	return w, nil
}

// DebitTx debits within the caller's transaction. Payout approval composes
// this with the withdrawal bookkeeping.
func (s *Service) DebitTx(ctx context.Context, tx *sql.Tx, userID, amount string, metadata map[string]interface{}) (*Wallet, error) {
	w, err := s.repo.GetWalletForUpdateTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	before := w.Balance
	cmp, err := money.Cmp(before, amount)
	if err != nil {
		return nil, err
	}
	if cmp < 0 {
		return nil, apperr.InsufficientFunds("wallet %s holds %s, debit of %s", userID, before, amount)
	}

	after, err := money.Sub(before, amount)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateBalanceTx(ctx, tx, userID, after); err != nil {
		return nil, err
	}

	event := &WalletEvent{
		UserID:        userID,
		EventType:     EventTypeDebit,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Metadata:      metadata,
	}
	if err := s.repo.RecordEventTx(ctx, tx, event); err != nil {
		return nil, err
	}

	w.Balance = after
	s.logger.Infof("Debited %s from wallet %s (balance %s -> %s)", amount, userID, before, after)
	return w, nil
}

// EnsureWalletTx provisions a zero-balance wallet if the user has none yet.
func (s *Service) EnsureWalletTx(ctx context.Context, tx *sql.Tx, userID string) error {
	return s.repo.EnsureWalletTx(ctx, tx, userID)
}

// AddEarningTx locks the instructor's earnings row and grows total_earning.
func (s *Service) AddEarningTx(ctx context.Context, tx *sql.Tx, instructorID, amount string) error {
	if _, err := s.repo.GetEarningsForUpdateTx(ctx, tx, instructorID); err != nil {
		return err
	}
	return s.repo.AddEarningTx(ctx, tx, instructorID, amount)
}

// WithdrawTx records a completed withdrawal against the earnings ledger. The
// caller must hold the earnings row lock from EarningsForUpdateTx.
func (s *Service) WithdrawTx(ctx context.Context, tx *sql.Tx, instructorID, amount string) error {
	return s.repo.AddWithdrawnTx(ctx, tx, instructorID, amount)
}

// EarningsForUpdateTx exposes the locked earnings read for payout eligibility
// checks.
func (s *Service) EarningsForUpdateTx(ctx context.Context, tx *sql.Tx, instructorID string) (*Earnings, error) {
	return s.repo.GetEarningsForUpdateTx(ctx, tx, instructorID)
}

// CreditPlatformTx adds the platform share within the caller's transaction.
func (s *Service) CreditPlatformTx(ctx context.Context, tx *sql.Tx, amount string) error {
	pw, err := s.repo.GetPlatformForUpdateTx(ctx, tx)
	if err != nil {
		return err
	}

	after, err := money.Add(pw.Balance, amount)
	if err != nil {
		return err
	}

	return s.repo.UpdatePlatformBalanceTx(ctx, tx, pw.ID, after)
}

func (s *Service) PlatformWallet(ctx context.Context) (*PlatformWallet, error) {
	return s.repo.GetPlatformWallet(ctx)
}

// Earnings returns the canonical earnings row plus the amount still available
// for withdrawal after in-flight payout requests are accounted for.
func (s *Service) Earnings(ctx context.Context, instructorID string) (*Earnings, string, error) {
	if err := validateUserID(instructorID); err != nil {
		return nil, "", err
	}

	e, err := s.repo.GetEarnings(ctx, instructorID)
	if err != nil {
		return nil, "", err
	}

	available, err := money.Sub(e.TotalEarning, e.TotalWithdrawn)
	if err != nil {
		return nil, "", err
	}

	if s.holds != nil {
		held, err := s.holds.PendingHold(ctx, instructorID)
		if err != nil {
			return nil, "", err
		}
		available, err = money.Sub(available, held)
		if err != nil {
			return nil, "", err
		}
	}

	return e, available, nil
}

// RecomputeBalance re-derives the wallet balance from the earnings ledger and
// drops the cached value.
func (s *Service) RecomputeBalance(ctx context.Context, userID string) (*Wallet, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	w, err := s.repo.RecomputeBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.redis.InvalidateWalletBalance(ctx, userID)
	s.logger.Infof("Recomputed balance for wallet %s: %s", userID, w.Balance)
	return w, nil
}

func (s *Service) ListEvents(ctx context.Context, userID string, limit int) ([]WalletEvent, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListEvents(ctx, userID, limit)
}
