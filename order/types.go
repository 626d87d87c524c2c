/*
Package order implements the purchase-order workflow on top of the plan
engine: compute the order total, generate its installment plan under the
supplier's payment condition, and persist both atomically. It also owns the
installment status lifecycle (pending -> overdue -> paid).
*/
package order

import (
	"time"

	"github.com/procura/payments-engine/plan"
)

// =============================================================================
// STATUS - Installment lifecycle
// =============================================================================

type Status string

const (
	StatusPending Status = "pending"
	StatusOverdue Status = "overdue"
	StatusPaid    Status = "paid"
)

// CanTransitionTo reports whether a status change is legal. Paid is
// terminal; overdue is only reached from pending.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusOverdue || next == StatusPaid
	case StatusOverdue:
		return next == StatusPaid
	default:
		return false
	}
}

// =============================================================================
// RECORDS
// =============================================================================

// ConditionRecord is a stored payment condition: the engine configuration
// plus the naming metadata the engine itself never reads.
type ConditionRecord struct {
	ID        string
	Name      string
	Condition plan.Condition
	CreatedAt time.Time
}

// Order is a purchase order with its generated installment plan.
type Order struct {
	ID           string
	SupplierID   string
	ConditionID  string
	Items        []plan.LineItem
	Freight      plan.Amount
	Discount     plan.Amount
	Total        plan.Amount
	IssuedAt     plan.Date
	Notes        string
	Installments []Installment
	CreatedAt    time.Time
}

// Installment is a stored installment belonging to an order.
type Installment struct {
	ID            string
	OrderID       string
	Sequence      int
	Value         plan.Amount
	DueDate       plan.Date
	IsDownPayment bool
	Status        Status
	PaidAt        *plan.Date
}
