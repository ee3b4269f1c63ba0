package archive

import (
	"time"
)

// ArchivedTransaction is a ledger row moved out of the hot table. All original
// fields are preserved, keyed by the original transaction id so unarchiving
// restores the row exactly as it was.
type ArchivedTransaction struct {
	ID                    int64     `json:"id"`
	OriginalTransactionID int64     `json:"original_transaction_id"`
	UserID                string    `json:"user_id"`
	Amount                string    `json:"amount"`
	PaymentMethod         string    `json:"payment_method"`
	Description           string    `json:"description"`
	Status                string    `json:"status"`
	CreatedAt             time.Time `json:"created_at"`
	ArchivedAt            time.Time `json:"archived_at"`
}

type ArchivedResponse struct {
	ArchivedTransaction *ArchivedTransaction `json:"archived_transaction"`
}

type ArchivedListResponse struct {
	ArchivedTransactions []ArchivedTransaction `json:"archived_transactions"`
	Total                int                   `json:"total"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
