package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mfadhilr/edupay/internal/common/apperr"
	"github.com/mfadhilr/edupay/internal/common/db"
	"github.com/mfadhilr/edupay/internal/common/logger"
)

// transactionIDLock is the advisory lock key serializing transaction id
// allocation. pg_advisory_xact_lock is transaction-scoped, so the lock is
// held from allocation until the inserting transaction commits: two
// concurrent allocators can never observe the same max and insert the same id.
// Because it is held until commit, callers must allocate AFTER taking their
// row locks, never before; taking a row lock while holding the advisory lock
// would reintroduce a deadlock cycle against other allocators.
const transactionIDLock = int64(824001)

// nextIDQuery computes max over the live set and the archived set, plus one.
// The archived side keys on original_transaction_id so that unarchiving can
// restore the original id without collision.
const nextIDQuery = `
	SELECT GREATEST(
		COALESCE((SELECT MAX(id) FROM transactions), 0),
		COALESCE((SELECT MAX(original_transaction_id) FROM archived_transactions), 0)
	) + 1
`

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

// NextTransactionID is a read-only peek at the id the next created
// transaction will get. Audit views and tests use this; inserts allocate
// under the advisory lock via nextTransactionIDTx instead.
func (r *Repository) NextTransactionID(ctx context.Context) (int64, error) {
	var next int64
	if err := r.db.QueryRowContext(ctx, nextIDQuery).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to compute next transaction id: %w", err)
	}
	return next, nil
}

func (r *Repository) nextTransactionIDTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, transactionIDLock); err != nil {
		return 0, fmt.Errorf("failed to lock transaction id sequence: %w", err)
	}

	var next int64
	if err := tx.QueryRowContext(ctx, nextIDQuery).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to compute next transaction id: %w", err)
	}
	return next, nil
}

// CreateTransactionTx allocates a fresh id and inserts the row within the
// caller's transaction. Pure insert, no wallet side effects.
func (r *Repository) CreateTransactionTx(ctx context.Context, tx *sql.Tx, txn *Transaction) (*Transaction, error) {
	id, err := r.nextTransactionIDTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO transactions (id, user_id, amount, payment_method, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err = tx.QueryRowContext(
		ctx,
		query,
		id,
		txn.UserID,
		txn.Amount,
		txn.PaymentMethod,
		txn.Description,
		txn.Status,
	).Scan(&txn.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	txn.ID = id
	return txn, nil
}

// CreateTransaction runs CreateTransactionTx in its own transaction.
func (r *Repository) CreateTransaction(ctx context.Context, txn *Transaction) (*Transaction, error) {
	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := r.CreateTransactionTx(ctx, tx, txn)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.Infof("Transaction %d created (%s, amount %s)", txn.ID, txn.Description, txn.Amount)
	return txn, nil
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (*Transaction, error) {
	query := `
		SELECT id, user_id, amount, payment_method, description, status, created_at
		FROM transactions
		WHERE id = $1
	`
	return scanTransaction(r.db.QueryRowContext(ctx, query, id), id)
}

// GetTransactionForUpdateTx locks the transaction row within tx.
func (r *Repository) GetTransactionForUpdateTx(ctx context.Context, tx *sql.Tx, id int64) (*Transaction, error) {
	query := `
		SELECT id, user_id, amount, payment_method, description, status, created_at
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`
	return scanTransaction(tx.QueryRowContext(ctx, query, id), id)
}

// UpdateStatus sets the status of a transaction. Returns found=false with no
// error when the transaction does not exist: the tolerant no-op is explicit
// and assertable, callers that need existence check it before relying on the
// update.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE transactions SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return false, fmt.Errorf("failed to update transaction status: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// UpdateStatusTx is UpdateStatus within the caller's transaction.
func (r *Repository) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id int64, status string) (bool, error) {
	result, err := tx.ExecContext(ctx, `UPDATE transactions SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return false, fmt.Errorf("failed to update transaction status: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// DeleteTransactionTx removes a row from the live table. Only the archival
// flow calls this, after copying the row to the archive in the same
// transaction.
func (r *Repository) DeleteTransactionTx(ctx context.Context, tx *sql.Tx, id int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperr.NotFound("transaction %d", id)
	}
	return nil
}

// RestoreTransactionTx reinserts an archived row under its original id. The
// id allocator never reuses archived ids, so the only possible conflict is a
// concurrent restore of the same transaction.
func (r *Repository) RestoreTransactionTx(ctx context.Context, tx *sql.Tx, txn *Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, amount, payment_method, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := tx.ExecContext(ctx, query,
		txn.ID,
		txn.UserID,
		txn.Amount,
		txn.PaymentMethod,
		txn.Description,
		txn.Status,
		txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to restore transaction: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperr.Conflict("transaction %d already exists in the live ledger", txn.ID)
	}
	return nil
}

// PendingTransactions returns every transaction awaiting an outcome, oldest
// first.
func (r *Repository) PendingTransactions(ctx context.Context) ([]Transaction, error) {
	query := `
		SELECT id, user_id, amount, payment_method, description, status, created_at
		FROM transactions
		WHERE status = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// IsOrderCompleted reports whether the transaction exists and its status is
// completed.
func (r *Repository) IsOrderCompleted(ctx context.Context, id int64) (bool, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM transactions WHERE id = $1`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check transaction status: %w", err)
	}
	return status == StatusCompleted, nil
}

func (r *Repository) ListTransactions(ctx context.Context, limit, offset int) ([]Transaction, error) {
	query := `
		SELECT id, user_id, amount, payment_method, description, status, created_at
		FROM transactions
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner, id int64) (*Transaction, error) {
	txn := &Transaction{}
	err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.Amount,
		&txn.PaymentMethod,
		&txn.Description,
		&txn.Status,
		&txn.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("transaction %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

func scanTransactions(rows *sql.Rows) ([]Transaction, error) {
	var txns []Transaction
	for rows.Next() {
		var txn Transaction
		err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.Amount,
			&txn.PaymentMethod,
			&txn.Description,
			&txn.Status,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
