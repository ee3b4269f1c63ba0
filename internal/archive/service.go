package archive

import (
	"context"
	"database/sql"

	"github.com/mfadhilr/edupay/internal/common/apperr"
	"github.com/mfadhilr/edupay/internal/common/db"
	"github.com/mfadhilr/edupay/internal/common/logger"
	"github.com/mfadhilr/edupay/internal/ledger"
)

type Service struct {
	repo   *Repository
	ledger *ledger.Repository
	db     *db.DB
	logger *logger.Logger
}

func NewService(repo *Repository, ledgerRepo *ledger.Repository, database *db.DB, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		ledger: ledgerRepo,
		db:     database,
		logger: log,
	}
}

// Archive moves a settled transaction out of the hot ledger table. The copy
// and the delete commit together; the transaction is never in both tables or
// neither. Pending transactions stay live until they resolve.
func (s *Service) Archive(ctx context.Context, transactionID int64) (*ArchivedTransaction, error) {
	var archived *ArchivedTransaction
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txn, err := s.ledger.GetTransactionForUpdateTx(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if txn.Status == ledger.StatusPending {
			return apperr.InvalidState("transaction %d is pending and cannot be archived", transactionID)
		}

		archived = &ArchivedTransaction{
			OriginalTransactionID: txn.ID,
			UserID:                txn.UserID,
			Amount:                txn.Amount,
			PaymentMethod:         txn.PaymentMethod,
			Description:           txn.Description,
			Status:                txn.Status,
			CreatedAt:             txn.CreatedAt,
		}
		if err := s.repo.InsertArchivedTx(ctx, tx, archived); err != nil {
			return err
		}

		return s.ledger.DeleteTransactionTx(ctx, tx, transactionID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Transaction %d archived", transactionID)
	return archived, nil
}

// Unarchive restores an archived transaction into the live ledger under its
// original id and removes the archive row, atomically.
func (s *Service) Unarchive(ctx context.Context, originalID int64) (*ledger.Transaction, error) {
	var txn *ledger.Transaction
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		archived, err := s.repo.GetArchivedForUpdateTx(ctx, tx, originalID)
		if err != nil {
			return err
		}

		txn = &ledger.Transaction{
			ID:            archived.OriginalTransactionID,
			UserID:        archived.UserID,
			Amount:        archived.Amount,
			PaymentMethod: archived.PaymentMethod,
			Description:   archived.Description,
			Status:        archived.Status,
			CreatedAt:     archived.CreatedAt,
		}
		if err := s.ledger.RestoreTransactionTx(ctx, tx, txn); err != nil {
			return err
		}

		return s.repo.DeleteArchivedTx(ctx, tx, originalID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Transaction %d restored from archive", originalID)
	return txn, nil
}

func (s *Service) GetArchived(ctx context.Context, originalID int64) (*ArchivedTransaction, error) {
	return s.repo.GetArchived(ctx, originalID)
}

func (s *Service) ListArchived(ctx context.Context, limit, offset int) ([]ArchivedTransaction, error) {
	return s.repo.ListArchived(ctx, limit, offset)
}
