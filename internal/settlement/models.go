package settlement

import (
	"time"
)

// OrderPaidEvent is the payload consumed from the order.paid topic once a
// buyer's payment clears.
type OrderPaidEvent struct {
	OrderID       string      `json:"order_id"`
	UserID        string      `json:"user_id"`
	PaidAmount    string      `json:"paid_amount"`
	PaymentMethod string      `json:"payment_method,omitempty"`
	Items         []OrderItem `json:"items"`
}

// OrderItem is one purchased course within an order. Revenue is split per
// item so multi-instructor orders attribute earnings correctly.
type OrderItem struct {
	CourseID     string `json:"course_id"`
	InstructorID string `json:"instructor_id"`
	Price        string `json:"price"`
}

// Settlement records that an order's money movement has been applied. The
// order_id primary key is the exactly-once guard: a second settlement attempt
// hits the conflict and applies nothing.
type Settlement struct {
	OrderID       string    `json:"order_id"`
	UserID        string    `json:"user_id"`
	Amount        string    `json:"amount"`
	TransactionID int64     `json:"transaction_id"`
	SettledAt     time.Time `json:"settled_at"`
}

// Result reports a settlement outcome. AlreadySettled means the order was
// settled before this call and nothing was changed.
type Result struct {
	Settlement     *Settlement `json:"settlement"`
	AlreadySettled bool        `json:"already_settled"`
}

type SettlementListResponse struct {
	Settlements []Settlement `json:"settlements"`
	Total       int          `json:"total"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
