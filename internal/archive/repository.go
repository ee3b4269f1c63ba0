package archive

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/mfadhilr/edupay/internal/common/apperr"
	"github.com/mfadhilr/edupay/internal/common/db"
	"github.com/mfadhilr/edupay/internal/common/logger"
)

const uniqueViolation = "23505"

type Repository struct {
	db     *db.DB
	logger *logger.Logger
}

func NewRepository(database *db.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     database,
		logger: log,
	}
}

// InsertArchivedTx copies a live transaction into the archive within the
// caller's transaction, preserving the original created_at.
func (r *Repository) InsertArchivedTx(ctx context.Context, tx *sql.Tx, a *ArchivedTransaction) error {
	query := `
		INSERT INTO archived_transactions
			(original_transaction_id, user_id, amount, payment_method, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, archived_at
	`

	err := tx.QueryRowContext(ctx, query,
		a.OriginalTransactionID,
		a.UserID,
		a.Amount,
		a.PaymentMethod,
		a.Description,
		a.Status,
		a.CreatedAt,
	).Scan(&a.ID, &a.ArchivedAt)

	if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
		return apperr.Conflict("transaction %d is already archived", a.OriginalTransactionID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert archived transaction: %w", err)
	}
	return nil
}

func (r *Repository) GetArchived(ctx context.Context, originalID int64) (*ArchivedTransaction, error) {
	query := `
		SELECT id, original_transaction_id, user_id, amount, payment_method, description, status, created_at, archived_at
		FROM archived_transactions
		WHERE original_transaction_id = $1
	`
	return scanArchived(r.db.QueryRowContext(ctx, query, originalID), originalID)
}

// GetArchivedForUpdateTx locks the archived row so a concurrent unarchive of
// the same transaction serializes instead of double-restoring.
func (r *Repository) GetArchivedForUpdateTx(ctx context.Context, tx *sql.Tx, originalID int64) (*ArchivedTransaction, error) {
	query := `
		SELECT id, original_transaction_id, user_id, amount, payment_method, description, status, created_at, archived_at
		FROM archived_transactions
		WHERE original_transaction_id = $1
		FOR UPDATE
	`
	return scanArchived(tx.QueryRowContext(ctx, query, originalID), originalID)
}

func (r *Repository) DeleteArchivedTx(ctx context.Context, tx *sql.Tx, originalID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM archived_transactions WHERE original_transaction_id = $1`, originalID); err != nil {
		return fmt.Errorf("failed to delete archived transaction: %w", err)
	}
	return nil
}

func (r *Repository) ListArchived(ctx context.Context, limit, offset int) ([]ArchivedTransaction, error) {
	query := `
		SELECT id, original_transaction_id, user_id, amount, payment_method, description, status, created_at, archived_at
		FROM archived_transactions
		ORDER BY archived_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list archived transactions: %w", err)
	}
	defer rows.Close()

	var archived []ArchivedTransaction
	for rows.Next() {
		var a ArchivedTransaction
		err := rows.Scan(
			&a.ID,
			&a.OriginalTransactionID,
			&a.UserID,
			&a.Amount,
			&a.PaymentMethod,
			&a.Description,
			&a.Status,
			&a.CreatedAt,
			&a.ArchivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan archived transaction: %w", err)
		}
		archived = append(archived, a)
	}
	return archived, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArchived(row rowScanner, originalID int64) (*ArchivedTransaction, error) {
	a := &ArchivedTransaction{}
	err := row.Scan(
		&a.ID,
		&a.OriginalTransactionID,
		&a.UserID,
		&a.Amount,
		&a.PaymentMethod,
		&a.Description,
		&a.Status,
		&a.CreatedAt,
		&a.ArchivedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("archived transaction %d", originalID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archived transaction: %w", err)
	}

	return a, nil
}
