package ledger

import (
	"context"
	"fmt"

	"github.com/mfadhilr/edupay/internal/common/apperr"
	"github.com/mfadhilr/edupay/internal/common/logger"
	"github.com/mfadhilr/edupay/internal/common/money"
)

type Service struct {
	repo   *Repository
	logger *logger.Logger
}

func NewService(repo *Repository, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: log,
	}
}

// CreateTransaction records a financial movement. It is a pure insert; wallet
// balances are never touched here.
func (s *Service) CreateTransaction(ctx context.Context, userID, amount, method, description, status string) (*Transaction, error) {
	if userID == "" {
		return nil, apperr.Validation("user_id is required")
	}
	if _, err := money.ParsePositive(amount); err != nil {
		return nil, apperr.Validation("invalid amount: %v", err)
	}
	switch status {
	case StatusPending, StatusCompleted, StatusFailed:
	default:
		return nil, apperr.Validation("unknown transaction status %q", status)
	}

	txn := &Transaction{
		UserID:        userID,
		Amount:        amount,
		PaymentMethod: method,
		Description:   description,
		Status:        status,
	}

	return s.repo.CreateTransaction(ctx, txn)
}

// UpdateStatus reports whether a row was found and updated; a missing
// transaction is not an error.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	switch status {
	case StatusPending, StatusCompleted, StatusFailed:
	default:
		return false, apperr.Validation("unknown transaction status %q", status)
	}

	found, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return false, err
	}
	if !found {
		s.logger.Warnf("Status update for missing transaction %d ignored", id)
	}
	return found, nil
}

func (s *Service) NextTransactionID(ctx context.Context) (int64, error) {
	return s.repo.NextTransactionID(ctx)
}

func (s *Service) GetTransaction(ctx context.Context, id int64) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *Service) PendingTransactions(ctx context.Context) ([]Transaction, error) {
	txns, err := s.repo.PendingTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending transactions: %w", err)
	}
	return txns, nil
}

func (s *Service) IsOrderCompleted(ctx context.Context, id int64) (bool, error) {
	return s.repo.IsOrderCompleted(ctx, id)
}

func (s *Service) ListTransactions(ctx context.Context, limit, offset int) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, limit, offset)
}
