/*
generator.go - Installment plan generation

PURPOSE:
  Turns a total amount plus a payment condition into an ordered, date-stamped
  sequence of installments. This is the engine's central contract; order
  creation, the plan preview endpoint, and the recurring-expense job all
  build on the same algorithm.

ALGORITHM:
  1. Non-positive totals produce no plan.
  2. Down payment = round2(total x percent/100), due on the base date.
  3. The remainder is split across the due-day schedule: explicit due days
     when configured, otherwise i x intervalDays for i = 1..count.
  4. Each installment gets round2(remaining/N); the LAST installment absorbs
     the rounding remainder so the plan always sums back to the total.

REMAINDER RULE:
  Remainder-to-last, uniformly. Never remainder-to-first, never spread
  across installments. 100.00 over 3 gives [33.33, 33.33, 33.34].

VALIDATION:
  Generate is permissive: a degenerate condition (zero installments, no
  explicit days) yields the down payment only, possibly an empty plan.
  GenerateStrict rejects such conditions with InvalidInputError for callers
  that want configuration mistakes surfaced instead of swallowed.
*/
package plan

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Generate produces the installment plan for a total under a payment
// condition. The base date anchors the schedule: the down payment (if any)
// is due on it, and every offset counts from it.
//
// The returned plan is ordered down payment first, then installments by
// ascending due date. The values always sum to round2(total).
func Generate(total Amount, cond Condition, baseDate Date) []Installment {
	if !total.IsPositive() {
		return nil
	}
	total = total.Round2()

	pct := clampPercent(cond.DownPaymentPercent)
	downPayment := total.Percent(pct)

	remaining := total.Sub(downPayment).Round2()
	if remaining.IsNegative() {
		remaining = Zero()
	}

	var out []Installment
	if downPayment.IsPositive() {
		out = append(out, Installment{
			Sequence:      0,
			Value:         downPayment,
			DueDate:       baseDate,
			IsDownPayment: true,
		})
	}

	offsets := cond.schedule()
	if len(offsets) == 0 || !remaining.IsPositive() {
		return out
	}

	values := splitRemainder(remaining, len(offsets))
	for i, offset := range offsets {
		out = append(out, Installment{
			Sequence: i + 1,
			Value:    values[i],
			DueDate:  baseDate.AddDays(offset),
		})
	}
	return out
}

// GenerateStrict is Generate with loud validation: a condition that cannot
// produce any installment for a positive total is rejected instead of
// silently yielding a down-payment-only plan.
func GenerateStrict(total Amount, cond Condition, baseDate Date) ([]Installment, error) {
	if total.IsNegative() {
		return nil, &InvalidInputError{Field: "total", Reason: "must not be negative"}
	}
	if len(cond.ExplicitDueDays) == 0 && cond.InstallmentsCount <= 0 {
		return nil, &InvalidInputError{Field: "installments_count", Reason: "must be positive when no explicit due days are set"}
	}
	for _, day := range cond.ExplicitDueDays {
		if day < 0 {
			return nil, &InvalidInputError{Field: "explicit_due_days", Reason: "offsets must not be negative"}
		}
	}
	if cond.IntervalDays < 0 {
		return nil, &InvalidInputError{Field: "interval_days", Reason: "must not be negative"}
	}
	return Generate(total, cond, baseDate), nil
}

// schedule returns the ordered day offsets for the installment portion.
// Explicit due days win over the synthesized count x interval schedule.
func (c Condition) schedule() []int {
	if len(c.ExplicitDueDays) > 0 {
		offsets := make([]int, len(c.ExplicitDueDays))
		copy(offsets, c.ExplicitDueDays)
		sort.Ints(offsets)
		return offsets
	}
	if c.InstallmentsCount <= 0 {
		return nil
	}
	offsets := make([]int, c.InstallmentsCount)
	for i := range offsets {
		offsets[i] = (i + 1) * c.IntervalDays
	}
	return offsets
}

// splitRemainder divides remaining into n cent-exact parts. The first n-1
// parts get round2(remaining/n); the last gets whatever is left, so the
// parts always sum to remaining.
func splitRemainder(remaining Amount, n int) []Amount {
	values := make([]Amount, n)
	base := remaining.DivInt(n).Round2()
	for i := 0; i < n-1; i++ {
		values[i] = base
	}
	values[n-1] = remaining.Sub(base.MulInt(n - 1)).Round2()
	return values
}

func clampPercent(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}
