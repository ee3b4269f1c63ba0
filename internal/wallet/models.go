package wallet

import (
	"time"
)

// Wallet is an instructor's spendable cash position. It is a derived view:
// the canonical earnings ledger lives in instructor_earnings, and the wallet
// balance is kept in step with it inside the same storage transaction (see
// Repository.RecomputeBalance for re-derivation).
type Wallet struct {
	UserID    string    `json:"user_id"`
	Balance   string    `json:"balance"` // NUMERIC(20,2), never negative
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlatformWallet is the singleton holding the platform's revenue cut.
// Exactly one row must exist; anything else is a deployment error.
type PlatformWallet struct {
	ID        int       `json:"id"`
	Balance   string    `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Earnings is the canonical per-instructor ledger for payout eligibility.
// Invariant: TotalWithdrawn <= TotalEarning at every observable point.
type Earnings struct {
	InstructorID   string    `json:"instructor_id"`
	TotalEarning   string    `json:"total_earning"`
	TotalWithdrawn string    `json:"total_withdrawn"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// WalletEvent is an audit row written with every balance mutation.
type WalletEvent struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"user_id"`
	EventType     string                 `json:"event_type"`
	Amount        string                 `json:"amount"`
	BalanceBefore string                 `json:"balance_before"`
	BalanceAfter  string                 `json:"balance_after"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// Wallet event types
const (
	EventTypeCreated = "wallet.created"
	EventTypeCredit  = "wallet.credit"
	EventTypeDebit   = "wallet.debit"
)

// API request/response types

type CreateWalletRequest struct {
	UserID string `json:"user_id"`
}

type WalletResponse struct {
	Wallet *Wallet `json:"wallet"`
}

type PlatformWalletResponse struct {
	PlatformWallet *PlatformWallet `json:"platform_wallet"`
}

type EarningsResponse struct {
	Earnings  *Earnings `json:"earnings"`
	Available string    `json:"available"`
}

type WalletEventsResponse struct {
	Events []WalletEvent `json:"events"`
	Total  int           `json:"total"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
