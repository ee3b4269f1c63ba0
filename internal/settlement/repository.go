package settlement

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mfadhilr/edupay/internal/common/apperr"
	"github.com/mfadhilr/edupay/internal/common/db"
	"github.com/mfadhilr/edupay/internal/common/logger"
)

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

// CreateSettlementTx inserts the settlement row within the caller's
// transaction. Returns inserted=false when the order is already settled; the
// caller rolls back everything else it staged.
func (r *Repository) CreateSettlementTx(ctx context.Context, tx *sql.Tx, s *Settlement) (bool, error) {
	query := `
		INSERT INTO settlements (order_id, user_id, amount, transaction_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id) DO NOTHING
		RETURNING settled_at
	`

	err := tx.QueryRowContext(ctx, query, s.OrderID, s.UserID, s.Amount, s.TransactionID).Scan(&s.SettledAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create settlement: %w", err)
	}

	return true, nil
}

// IsSettledTx checks for an existing settlement within the caller's
// transaction. An early answer avoids staging credits that the order_id
// conflict would roll back anyway.
func (r *Repository) IsSettledTx(ctx context.Context, tx *sql.Tx, orderID string) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM settlements WHERE order_id = $1)`, orderID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check settlement: %w", err)
	}
	return exists, nil
}

func (r *Repository) GetSettlement(ctx context.Context, orderID string) (*Settlement, error) {
	query := `
		SELECT order_id, user_id, amount, transaction_id, settled_at
		FROM settlements
		WHERE order_id = $1
	`

	s := &Settlement{}
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(&s.OrderID, &s.UserID, &s.Amount, &s.TransactionID, &s.SettledAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("settlement for order %s", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	return s, nil
}

func (r *Repository) IsSettled(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM settlements WHERE order_id = $1)`, orderID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check settlement: %w", err)
	}
	return exists, nil
}

func (r *Repository) ListSettlements(ctx context.Context, limit, offset int) ([]Settlement, error) {
	query := `
		SELECT order_id, user_id, amount, transaction_id, settled_at
		FROM settlements
		ORDER BY settled_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []Settlement
	for rows.Next() {
		var s Settlement
		if err := rows.Scan(&s.OrderID, &s.UserID, &s.Amount, &s.TransactionID, &s.SettledAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	return settlements, rows.Err()
}
