package payout

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

// CreatePayoutTx inserts the request within the caller's transaction, together
// with its backing ledger transaction.
func (r *Repository) CreatePayoutTx(ctx context.Context, tx *sql.Tx, p *PayoutRequest) error {
	query := `
		INSERT INTO payout_requests (id, instructor_id, transaction_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := tx.QueryRowContext(ctx, query, p.ID, p.InstructorID, p.TransactionID, p.Amount, p.Status).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payout request: %w", err)
	}
	return nil
}

func (r *Repository) GetPayout(ctx context.Context, id string) (*PayoutRequest, error) {
	query := `
		SELECT id, instructor_id, transaction_id, amount, status, COALESCE(reason, ''), created_at, processed_at
		FROM payout_requests
		WHERE id = $1
	`
	return scanPayout(r.db.QueryRowContext(ctx, query, id), id)
}

// GetPayoutForUpdateTx locks the request row so accept and deny for the same
// request serialize; the loser sees a non-pending status.
func (r *Repository) GetPayoutForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*PayoutRequest, error) {
	query := `
		SELECT id, instructor_id, transaction_id, amount, status, COALESCE(reason, ''), created_at, processed_at
		FROM payout_requests
		WHERE id = $1
		FOR UPDATE
	`
	return scanPayout(tx.QueryRowContext(ctx, query, id), id)
}

func (r *Repository) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id, status, reason string) error {
	query := `
		UPDATE payout_requests
		SET status = $1, reason = NULLIF($2, ''), processed_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`
	if _, err := tx.ExecContext(ctx, query, status, reason, id); err != nil {
		return fmt.Errorf("failed to update payout status: %w", err)
	}
	return nil
}

// PendingHoldTx sums the amounts of the instructor's in-flight requests. Call
// with the earnings row already locked so the sum cannot move before commit.
func (r *Repository) PendingHoldTx(ctx context.Context, tx *sql.Tx, instructorID string) (string, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0.00)::TEXT
		FROM payout_requests
		WHERE instructor_id = $1 AND status = $2
	`

	var held string
	if err := tx.QueryRowContext(ctx, query, instructorID, StatusPending).Scan(&held); err != nil {
		return "", fmt.Errorf("failed to sum pending payouts: %w", err)
	}
	return held, nil
}

// PendingHold is the read-only variant used by earnings availability views.
func (r *Repository) PendingHold(ctx context.Context, instructorID string) (string, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0.00)::TEXT
		FROM payout_requests
		WHERE instructor_id = $1 AND status = $2
	`

	var held string
	if err := r.db.QueryRowContext(ctx, query, instructorID, StatusPending).Scan(&held); err != nil {
		return "", fmt.Errorf("failed to sum pending payouts: %w", err)
	}
	return held, nil
}

func (r *Repository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]PayoutRequest, error) {
	query := `
		SELECT id, instructor_id, transaction_id, amount, status, COALESCE(reason, ''), created_at, processed_at
		FROM payout_requests
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list payout requests: %w", err)
	}
	defer rows.Close()

	return scanPayouts(rows)
}

func (r *Repository) ListByInstructor(ctx context.Context, instructorID string, limit, offset int) ([]PayoutRequest, error) {
	query := `
		SELECT id, instructor_id, transaction_id, amount, status, COALESCE(reason, ''), created_at, processed_at
		FROM payout_requests
		WHERE instructor_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, instructorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list payout requests: %w", err)
	}
	defer rows.Close()

	return scanPayouts(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayout(row rowScanner, id string) (*PayoutRequest, error) {
	p := &PayoutRequest{}
	err := row.Scan(
		&p.ID,
		&p.InstructorID,
		&p.TransactionID,
		&p.Amount,
		&p.Status,
		&p.Reason,
		&p.CreatedAt,
		&p.ProcessedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("payout request %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout request: %w", err)
	}

	return p, nil
}

func scanPayouts(rows *sql.Rows) ([]PayoutRequest, error) {
	var payouts []PayoutRequest
	for rows.Next() {
		var p PayoutRequest
		err := rows.Scan(
			&p.ID,
			&p.InstructorID,
			&p.TransactionID,
			&p.Amount,
			&p.Status,
			&p.Reason,
			&p.CreatedAt,
			&p.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout request: %w", err)
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}
