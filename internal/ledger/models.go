package ledger

import (
	"time"
)

// Transaction is a single financial movement: an order settlement or a payout
// withdrawal. Identifiers are gap-free and monotonically increasing across
// the live and archived sets; a completed transaction is immutable.
type Transaction struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"user_id"`
	Amount        string    `json:"amount"` // NUMERIC(20,2)
	PaymentMethod string    `json:"payment_method"`
	Description   string    `json:"description"` // distinguishes order vs payout rows
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Transaction statuses
const (
	StatusPending   = "pending"   // created, outcome not decided
	StatusCompleted = "completed" // money moved, immutable
	StatusFailed    = "failed"    // voided, never a completed movement
)

// Description tags
const (
	DescriptionOrder  = "order"
	DescriptionPayout = "payout"
)

// API response types

type TransactionResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type TransactionListResponse struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
}

type NextIDResponse struct {
	NextID int64 `json:"next_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
