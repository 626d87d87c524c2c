/*
recurrence.go - Recurring-expense expansion

PURPOSE:
  A recurring expense (rent, hosting, payroll service) generates one
  installment-like record per billing period. Expand computes which periods
  inside a lookahead window still need a record, honoring the expense's
  start/end bounds and the caller-supplied set of already-generated periods.

IDEMPOTENCE CONTRACT:
  The de-duplication key is (expense, reference period), where the reference
  period is the first-of-month marker for the billed month. Expand never
  emits a period present in the existing set, and the sqlite store backs
  this up with a unique index, so re-running generation with the same inputs
  can never duplicate a record.

DATE CLAMPING:
  The configured due day (1-31) is clamped to the last day of each target
  month. Due day 31 in February yields Feb 28/29, never March overflow.
*/
package plan

// =============================================================================
// RECURRENCE TYPE - Billing cadence
// =============================================================================

type RecurrenceType string

const (
	RecurrenceMonthly    RecurrenceType = "monthly"
	RecurrenceBimonthly  RecurrenceType = "bimonthly"
	RecurrenceQuarterly  RecurrenceType = "quarterly"
	RecurrenceSemiannual RecurrenceType = "semiannual"
	RecurrenceAnnual     RecurrenceType = "annual"
)

// MonthStep maps the cadence to its month count. Unknown values fall back
// to monthly; callers that care (the scheduler does) should log the
// configuration slip rather than fail the whole run.
func (r RecurrenceType) MonthStep() int {
	switch r {
	case RecurrenceMonthly:
		return 1
	case RecurrenceBimonthly:
		return 2
	case RecurrenceQuarterly:
		return 3
	case RecurrenceSemiannual:
		return 6
	case RecurrenceAnnual:
		return 12
	default:
		return 1
	}
}

// Valid reports whether r is a known cadence.
func (r RecurrenceType) Valid() bool {
	switch r {
	case RecurrenceMonthly, RecurrenceBimonthly, RecurrenceQuarterly, RecurrenceSemiannual, RecurrenceAnnual:
		return true
	}
	return false
}

// =============================================================================
// EXPENSE - Recurring-expense configuration
// =============================================================================

// Expense is the recurring-expense configuration the expander reads.
// Amount may be an estimate for variable-value expenses; the stored record
// is corrected when the real invoice arrives, outside this engine.
type Expense struct {
	ID         string
	SupplierID string
	Amount     Amount
	Recurrence RecurrenceType
	DueDay     int // 1-31, clamped to the target month's last day
	StartDate  Date
	EndDate    *Date
}

// GeneratedInstallment is one materialized billing period for a recurring
// expense. At most one exists per (ExpenseID, ReferencePeriod).
type GeneratedInstallment struct {
	ExpenseID       string
	SupplierID      string
	ReferencePeriod Date // first of the billed month
	Value           Amount
	DueDate         Date
	Status          string // always "pending" at generation time
}

const StatusPending = "pending"

// =============================================================================
// PERIOD SET - De-duplication guard
// =============================================================================

// PeriodSet tracks reference periods that already have a generated record,
// keyed by month ("2026-03").
type PeriodSet map[string]struct{}

func NewPeriodSet(periods ...Date) PeriodSet {
	set := make(PeriodSet, len(periods))
	for _, p := range periods {
		set.Add(p)
	}
	return set
}

func (s PeriodSet) Add(period Date)           { s[period.PeriodKey()] = struct{}{} }
func (s PeriodSet) Contains(period Date) bool { _, ok := s[period.PeriodKey()]; return ok }

// =============================================================================
// EXPANSION
// =============================================================================

// Expand computes the installment records to materialize for an expense
// inside the lookahead window, skipping periods already generated and
// periods outside the expense's start/end bounds.
//
// The caller injects today; the function never reads the clock. Re-invoking
// with an up-to-date existing set produces zero new records.
func Expand(exp Expense, lookaheadMonths int, today Date, existing PeriodSet) []GeneratedInstallment {
	step := exp.Recurrence.MonthStep()

	if lookaheadMonths < 1 {
		lookaheadMonths = 1
	}
	periods := (lookaheadMonths + step - 1) / step
	if periods < 1 {
		periods = 1
	}

	anchor := today.FirstOfMonth()

	var out []GeneratedInstallment
	for i := 0; i < periods; i++ {
		reference := anchor.AddMonths(i * step)
		if existing.Contains(reference) {
			continue
		}

		dueDate := reference.WithDayClamped(exp.DueDay)
		if dueDate.Before(exp.StartDate) {
			continue
		}
		if exp.EndDate != nil && dueDate.After(*exp.EndDate) {
			continue
		}

		out = append(out, GeneratedInstallment{
			ExpenseID:       exp.ID,
			SupplierID:      exp.SupplierID,
			ReferencePeriod: reference,
			Value:           exp.Amount.Round2(),
			DueDate:         dueDate,
			Status:          StatusPending,
		})
	}
	return out
}
