/*
Package plan provides the payment-plan engine.

PURPOSE:
  This package contains the deterministic business logic that turns money
  plus configuration into concrete payment obligations. Three computations
  live here:
  - ComputeTotal: line items + freight - discount -> order total
  - Generate: total + payment condition -> installment plan
  - Expand: recurring expense + lookahead window -> due installments

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: An exact monetary value (decimal, rounded at the cent)
  - LineItem: One order line (quantity x unit price)
  - Condition: Reusable payment-condition configuration
  - Installment: One scheduled payment within a plan

DESIGN PRINCIPLES:
  1. Purity: No clock reads, no I/O. Dates are injected by the caller.
  2. Precision: Uses decimal.Decimal to avoid floating-point drift.
  3. Exactness: Installment values always sum back to the original total;
     rounding remainders are absorbed by the last installment, never lost.

USAGE:
  total, err := plan.ComputeTotal(items, freight, discount)
  installments := plan.Generate(total, condition, baseDate)

SEE ALSO:
  - generator.go: Plan generation algorithm
  - recurrence.go: Recurring-expense expansion
  - date.go: Calendar date type and month arithmetic
*/
package plan

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Exact monetary value
// =============================================================================

// Amount is a monetary value. All arithmetic that can produce fractional
// cents must go through Round2 before the value leaves this package.
type Amount struct {
	Value decimal.Decimal
}

func NewAmount(value float64) Amount {
	return Amount{Value: decimal.NewFromFloat(value)}
}

func NewAmountFromInt(value int) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value))}
}

// ParseAmount parses a decimal string ("10.50"). Invalid input yields zero.
func ParseAmount(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{Value: decimal.Zero}
	}
	return Amount{Value: d}
}

func Zero() Amount { return Amount{Value: decimal.Zero} }

func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s)} }
func (a Amount) DivInt(n int) Amount          { return Amount{Value: a.Value.Div(decimal.NewFromInt(int64(n)))} }
func (a Amount) MulInt(n int) Amount          { return Amount{Value: a.Value.Mul(decimal.NewFromInt(int64(n)))} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg()} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) String() string               { return a.Value.StringFixed(2) }

// Round2 rounds to two decimal places, half away from zero. This is the
// single rounding rule for the whole engine; for the non-negative amounts
// the engine deals in it is round-half-up at the cent.
func (a Amount) Round2() Amount { return Amount{Value: a.Value.Round(2)} }

// Percent returns round2(a * pct / 100).
func (a Amount) Percent(pct decimal.Decimal) Amount {
	return Amount{Value: a.Value.Mul(pct).Div(decimal.NewFromInt(100))}.Round2()
}

// =============================================================================
// LINE ITEM - One order line
// =============================================================================

// LineItem is a single purchase-order line. Quantity may be fractional
// (2.5 kg) but must be strictly positive.
type LineItem struct {
	Quantity  decimal.Decimal
	UnitPrice Amount
}

// =============================================================================
// CONDITION - Payment-condition configuration
// =============================================================================

// Condition is the reusable payment-condition configuration applied to an
// order total to produce its installment plan. Read-only to this package;
// creation and editing belong to the surrounding application.
//
// When ExplicitDueDays is non-empty it overrides the InstallmentsCount /
// IntervalDays schedule entirely: its length is the installment count and
// each entry is a day offset from the base date.
type Condition struct {
	InstallmentsCount  int
	IntervalDays       int
	DownPaymentPercent decimal.Decimal
	ExplicitDueDays    []int
}

// =============================================================================
// INSTALLMENT - One scheduled payment
// =============================================================================

// Installment is one scheduled partial payment within a plan.
// Sequence 0 is the down payment; 1..N are the regular installments.
//
// INVARIANT: the Values of a generated plan sum to the rounded original
// total exactly. No cent is lost or gained to rounding.
type Installment struct {
	Sequence      int
	Value         Amount
	DueDate       Date
	IsDownPayment bool
}

// PlanTotal sums the values of a plan. Mostly useful in tests and for
// asserting the sum invariant at call sites.
func PlanTotal(installments []Installment) Amount {
	total := Zero()
	for _, ins := range installments {
		total = total.Add(ins.Value)
	}
	return total
}
