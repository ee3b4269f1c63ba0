package wallet

import (
	"context"
	"database/sql"
	"encoding/json"
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

// CreateWallet inserts a zero-balance wallet. A second insert for the same
// user surfaces as a conflict, not a storage error.
func (r *Repository) CreateWallet(ctx context.Context, userID string) (*Wallet, error) {
	query := `
		INSERT INTO wallets (user_id, balance)
		VALUES ($1, 0.00)
		RETURNING user_id, balance, created_at, updated_at
	`

	w := &Wallet{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
		return nil, apperr.Conflict("wallet for user %s already exists", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	return w, nil
}

// EnsureWalletTx creates the wallet if it is missing, within the caller's
// transaction. Settlement uses this so an instructor's first sale does not
// require pre-provisioning.
func (r *Repository) EnsureWalletTx(ctx context.Context, tx *sql.Tx, userID string) error {
	query := `INSERT INTO wallets (user_id, balance) VALUES ($1, 0.00) ON CONFLICT (user_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to ensure wallet: %w", err)
	}
	return nil
}

func (r *Repository) GetWallet(ctx context.Context, userID string) (*Wallet, error) {
	query := `SELECT user_id, balance, created_at, updated_at FROM wallets WHERE user_id = $1`

	w := &Wallet{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("wallet for user %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return w, nil
}

// GetWalletForUpdateTx locks the wallet row for the rest of the transaction.
// Every balance mutation goes through this lock so concurrent credits and
// debits serialize at the row.
func (r *Repository) GetWalletForUpdateTx(ctx context.Context, tx *sql.Tx, userID string) (*Wallet, error) {
	query := `SELECT user_id, balance, created_at, updated_at FROM wallets WHERE user_id = $1 FOR UPDATE`

	w := &Wallet{}
	err := tx.QueryRowContext(ctx, query, userID).Scan(&w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("wallet for user %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}

	return w, nil
}

func (r *Repository) UpdateBalanceTx(ctx context.Context, tx *sql.Tx, userID, balance string) error {
	query := `UPDATE wallets SET balance = $1, updated_at = CURRENT_TIMESTAMP WHERE user_id = $2`
	if _, err := tx.ExecContext(ctx, query, balance, userID); err != nil {
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}
	return nil
}

// RecordEventTx writes the audit row for a balance mutation in the same
// transaction as the mutation itself.
func (r *Repository) RecordEventTx(ctx context.Context, tx *sql.Tx, event *WalletEvent) error {
	var metadata []byte
	if event.Metadata != nil {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal event metadata: %w", err)
		}
	}

	query := `
		INSERT INTO wallet_events (user_id, event_type, amount, balance_before, balance_after, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		event.UserID,
		event.EventType,
		event.Amount,
		event.BalanceBefore,
		event.BalanceAfter,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to record wallet event: %w", err)
	}
	return nil
}

func (r *Repository) ListEvents(ctx context.Context, userID string, limit int) ([]WalletEvent, error) {
	query := `
		SELECT id, user_id, event_type, amount, balance_before, balance_after, metadata, created_at
		FROM wallet_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet events: %w", err)
	}
	defer rows.Close()

	var events []WalletEvent
	for rows.Next() {
		var ev WalletEvent
		var metadata []byte
		err := rows.Scan(&ev.ID, &ev.UserID, &ev.EventType, &ev.Amount, &ev.BalanceBefore, &ev.BalanceAfter, &metadata, &ev.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet event: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &ev.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event metadata: %w", err)
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// RecomputeBalance re-derives a wallet balance from the earnings ledger. The
// wallet is a view over instructor_earnings; this is the reconciliation path
// when the two are suspected to disagree.
func (r *Repository) RecomputeBalance(ctx context.Context, userID string) (*Wallet, error) {
	query := `
		UPDATE wallets
		SET balance = COALESCE(
			(SELECT total_earning - total_withdrawn FROM instructor_earnings WHERE instructor_id = $1),
			0.00
		), updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1
		RETURNING user_id, balance, created_at, updated_at
	`

	w := &Wallet{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("wallet for user %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to recompute wallet balance: %w", err)
	}

	return w, nil
}

// Platform wallet

// GetPlatformWallet reads the singleton. Zero rows or more than one row means
// the deployment is misconfigured and every settlement must stop.
func (r *Repository) GetPlatformWallet(ctx context.Context) (*PlatformWallet, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM platform_wallet`).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count platform wallet rows: %w", err)
	}
	if count != 1 {
		return nil, apperr.NotConfigured("platform wallet has %d rows, want exactly 1", count)
	}

	query := `SELECT id, balance, updated_at FROM platform_wallet`

	pw := &PlatformWallet{}
	if err := r.db.QueryRowContext(ctx, query).Scan(&pw.ID, &pw.Balance, &pw.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to get platform wallet: %w", err)
	}

	return pw, nil
}

// GetPlatformForUpdateTx locks the platform wallet row. With a single row this
// serializes all platform credits, which is intentional: the alternative is
// lost updates.
func (r *Repository) GetPlatformForUpdateTx(ctx context.Context, tx *sql.Tx) (*PlatformWallet, error) {
	query := `SELECT id, balance, updated_at FROM platform_wallet FOR UPDATE`

	pw := &PlatformWallet{}
	err := tx.QueryRowContext(ctx, query).Scan(&pw.ID, &pw.Balance, &pw.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotConfigured("platform wallet row is missing")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock platform wallet: %w", err)
	}

	return pw, nil
}

func (r *Repository) UpdatePlatformBalanceTx(ctx context.Context, tx *sql.Tx, id int, balance string) error {
	query := `UPDATE platform_wallet SET balance = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	if _, err := tx.ExecContext(ctx, query, balance, id); err != nil {
		return fmt.Errorf("failed to update platform balance: %w", err)
	}
	return nil
}

// Instructor earnings

// GetEarnings returns the canonical earnings row, or zeroes when the
// instructor has never earned.
func (r *Repository) GetEarnings(ctx context.Context, instructorID string) (*Earnings, error) {
	query := `
		SELECT instructor_id, total_earning, total_withdrawn, updated_at
		FROM instructor_earnings
		WHERE instructor_id = $1
	`

	e := &Earnings{}
	err := r.db.QueryRowContext(ctx, query, instructorID).Scan(&e.InstructorID, &e.TotalEarning, &e.TotalWithdrawn, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return &Earnings{InstructorID: instructorID, TotalEarning: "0.00", TotalWithdrawn: "0.00"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get earnings: %w", err)
	}

	return e, nil
}

// GetEarningsForUpdateTx upserts a zero row if needed and locks it. Payout
// eligibility checks hold this lock until their transaction commits, so two
// concurrent payout requests cannot both pass the available-funds check.
func (r *Repository) GetEarningsForUpdateTx(ctx context.Context, tx *sql.Tx, instructorID string) (*Earnings, error) {
	upsert := `INSERT INTO instructor_earnings (instructor_id) VALUES ($1) ON CONFLICT (instructor_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, upsert, instructorID); err != nil {
		return nil, fmt.Errorf("failed to ensure earnings row: %w", err)
	}

	query := `
		SELECT instructor_id, total_earning, total_withdrawn, updated_at
		FROM instructor_earnings
		WHERE instructor_id = $1
		FOR UPDATE
	`

	e := &Earnings{}
	err := tx.QueryRowContext(ctx, query, instructorID).Scan(&e.InstructorID, &e.TotalEarning, &e.TotalWithdrawn, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to lock earnings row: %w", err)
	}

	return e, nil
}

// AddEarningTx grows total_earning. The caller must already hold the earnings
// row lock via GetEarningsForUpdateTx.
func (r *Repository) AddEarningTx(ctx context.Context, tx *sql.Tx, instructorID, amount string) error {
	query := `
		UPDATE instructor_earnings
		SET total_earning = total_earning + $1, updated_at = CURRENT_TIMESTAMP
		WHERE instructor_id = $2
	`
	if _, err := tx.ExecContext(ctx, query, amount, instructorID); err != nil {
		return fmt.Errorf("failed to add earning: %w", err)
	}
	return nil
}

// AddWithdrawnTx grows total_withdrawn. The earnings_withdrawn_bound check
// constraint backstops the service-level available-funds check.
func (r *Repository) AddWithdrawnTx(ctx context.Context, tx *sql.Tx, instructorID, amount string) error {
	query := `
		UPDATE instructor_earnings
		SET total_withdrawn = total_withdrawn + $1, updated_at = CURRENT_TIMESTAMP
		WHERE instructor_id = $2
	`
	if _, err := tx.ExecContext(ctx, query, amount, instructorID); err != nil {
		return fmt.Errorf("failed to add withdrawal: %w", err)
	}
	return nil
}
