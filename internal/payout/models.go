package payout

import (
	"time"
)

// PayoutRequest is an instructor's withdrawal request. Each request is backed
// by a pending ledger transaction created with it; approval completes the
// transaction and moves the money, denial fails it and releases the hold.
type PayoutRequest struct {
	ID            string     `json:"id"`
	InstructorID  string     `json:"instructor_id"`
	TransactionID int64      `json:"transaction_id"`
	Amount        string     `json:"amount"`
	Status        string     `json:"status"`
	Reason        string     `json:"reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

// Payout request statuses. Requests move pending -> approved or
// pending -> rejected, never back.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type CreatePayoutRequest struct {
	Amount string `json:"amount"`
}

type DenyPayoutRequest struct {
	Reason string `json:"reason"`
}

type PayoutResponse struct {
	PayoutRequest *PayoutRequest `json:"payout_request"`
}

type PayoutListResponse struct {
	PayoutRequests []PayoutRequest `json:"payout_requests"`
	Total          int             `json:"total"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
