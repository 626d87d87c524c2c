/*
workflow.go - Order creation and installment status transitions

PURPOSE:
  Glues the pure plan engine to persistence. CreateOrder is the one write
  path for orders: total and plan are computed here, then handed to the
  store in a single atomic save so an order can never exist without its
  installments.

ERROR HANDLING:
  Misconfigured payment conditions fail loudly (GenerateStrict) instead of
  silently producing an empty plan. A zero or negative total is allowed and
  simply yields an order without installments; the surrounding application
  decides whether that is worth flagging to the user.
*/
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/procura/payments-engine/plan"
)

// =============================================================================
// STORE - Persistence contract
// =============================================================================

// Store is what the workflow needs from persistence.
type Store interface {
	// GetCondition returns a payment condition, or plan.ErrNotFound.
	GetCondition(ctx context.Context, id string) (*ConditionRecord, error)

	// SaveOrder persists an order and its installments atomically.
	SaveOrder(ctx context.Context, o *Order) error

	// GetOrder loads an order with its installments, or plan.ErrNotFound.
	GetOrder(ctx context.Context, id string) (*Order, error)

	// UpdateInstallmentStatus applies a status change to one installment.
	// The store does not re-validate transitions; the workflow does.
	UpdateInstallmentStatus(ctx context.Context, installmentID string, status Status, paidAt *plan.Date) error

	// GetInstallment loads one installment, or plan.ErrNotFound.
	GetInstallment(ctx context.Context, installmentID string) (*Installment, error)

	// MarkOverdue flips pending installments with dueDate < today to
	// overdue and returns how many changed. Safe to re-run.
	MarkOverdue(ctx context.Context, today plan.Date) (int, error)
}

// =============================================================================
// WORKFLOW
// =============================================================================

type Workflow struct {
	Store Store
}

func NewWorkflow(store Store) *Workflow {
	return &Workflow{Store: store}
}

// CreateOrderInput carries everything CreateOrder needs. IssuedAt is the
// plan's base date and is injected by the caller; the workflow never reads
// the clock for business dates.
type CreateOrderInput struct {
	SupplierID  string
	ConditionID string
	Items       []plan.LineItem
	Freight     plan.Amount
	Discount    plan.Amount
	IssuedAt    plan.Date
	Notes       string
}

// CreateOrder computes the total, generates the installment plan under the
// referenced payment condition, and persists everything atomically.
func (w *Workflow) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	if in.SupplierID == "" {
		return nil, &plan.InvalidInputError{Field: "supplier_id", Reason: "is required"}
	}
	if in.IssuedAt.IsZero() {
		return nil, &plan.InvalidInputError{Field: "issued_at", Reason: "is required"}
	}

	cond, err := w.Store.GetCondition(ctx, in.ConditionID)
	if err != nil {
		return nil, fmt.Errorf("payment condition %q: %w", in.ConditionID, err)
	}

	total, err := plan.ComputeTotal(in.Items, in.Freight, in.Discount)
	if err != nil {
		return nil, err
	}

	var installments []plan.Installment
	if total.IsPositive() {
		installments, err = plan.GenerateStrict(total, cond.Condition, in.IssuedAt)
		if err != nil {
			return nil, err
		}
	}

	o := &Order{
		ID:          newID("ord"),
		SupplierID:  in.SupplierID,
		ConditionID: cond.ID,
		Items:       in.Items,
		Freight:     in.Freight,
		Discount:    in.Discount,
		Total:       total,
		IssuedAt:    in.IssuedAt,
		Notes:       in.Notes,
		CreatedAt:   time.Now().UTC(),
	}
	for i, ins := range installments {
		o.Installments = append(o.Installments, Installment{
			ID:            fmt.Sprintf("%s-i%d", o.ID, i),
			OrderID:       o.ID,
			Sequence:      ins.Sequence,
			Value:         ins.Value,
			DueDate:       ins.DueDate,
			IsDownPayment: ins.IsDownPayment,
			Status:        StatusPending,
		})
	}

	if err := w.Store.SaveOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	return o, nil
}

// MarkPaid transitions an installment to paid with the given payment date.
func (w *Workflow) MarkPaid(ctx context.Context, installmentID string, paidAt plan.Date) error {
	ins, err := w.Store.GetInstallment(ctx, installmentID)
	if err != nil {
		return err
	}
	if !ins.Status.CanTransitionTo(StatusPaid) {
		return &plan.InvalidInputError{
			Field:  "status",
			Reason: fmt.Sprintf("cannot mark %s installment as paid", ins.Status),
		}
	}
	return w.Store.UpdateInstallmentStatus(ctx, installmentID, StatusPaid, &paidAt)
}

// MarkOverdue flips every pending installment past due as of today.
// Re-running with the same today is a no-op for already-flipped rows.
func (w *Workflow) MarkOverdue(ctx context.Context, today plan.Date) (int, error) {
	return w.Store.MarkOverdue(ctx, today)
}

func newID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
