package plan_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procura/payments-engine/plan"
)

func rent(recurrence plan.RecurrenceType, dueDay int, start plan.Date) plan.Expense {
	return plan.Expense{
		ID:         "exp-rent",
		SupplierID: "sup-1",
		Amount:     amt("1200"),
		Recurrence: recurrence,
		DueDay:     dueDay,
		StartDate:  start,
	}
}

// =============================================================================
// END-OF-MONTH CLAMPING
// =============================================================================

func TestExpand_DueDay31_ClampedToFebruary(t *testing.T) {
	// GIVEN: Monthly expense due on the 31st, window covering February 2026
	// WHEN: Expanding from mid-January
	// THEN: February's due date is Feb 28 (2026 is not a leap year),
	//       never Feb 31 or March overflow

	exp := rent(plan.RecurrenceMonthly, 31, plan.NewDate(2025, time.January, 1))
	today := plan.NewDate(2026, time.January, 15)

	out := plan.Expand(exp, 2, today, plan.NewPeriodSet())

	require.Len(t, out, 2)
	assert.Equal(t, "2026-01-31", out[0].DueDate.String())
	assert.Equal(t, "2026-02-28", out[1].DueDate.String())
}

func TestExpand_DueDay31_LeapYearFebruary(t *testing.T) {
	exp := rent(plan.RecurrenceMonthly, 31, plan.NewDate(2025, time.January, 1))
	today := plan.NewDate(2028, time.February, 1)

	out := plan.Expand(exp, 1, today, plan.NewPeriodSet())

	require.Len(t, out, 1)
	assert.Equal(t, "2028-02-29", out[0].DueDate.String())
}

// =============================================================================
// WINDOW AND CADENCE
// =============================================================================

func TestExpand_QuarterlyCadence(t *testing.T) {
	// 12-month window at quarterly cadence = 4 periods, 3 months apart.
	exp := rent(plan.RecurrenceQuarterly, 5, plan.NewDate(2025, time.January, 1))
	today := plan.NewDate(2026, time.January, 20)

	out := plan.Expand(exp, 12, today, plan.NewPeriodSet())

	require.Len(t, out, 4)
	assert.Equal(t, "2026-01-01", out[0].ReferencePeriod.String())
	assert.Equal(t, "2026-04-01", out[1].ReferencePeriod.String())
	assert.Equal(t, "2026-07-01", out[2].ReferencePeriod.String())
	assert.Equal(t, "2026-10-01", out[3].ReferencePeriod.String())
	assert.Equal(t, "2026-04-05", out[1].DueDate.String())
}

func TestExpand_WindowSmallerThanStep_StillOnePeriod(t *testing.T) {
	// Lookahead 2 months at annual cadence still yields the current period.
	exp := rent(plan.RecurrenceAnnual, 10, plan.NewDate(2025, time.January, 1))
	today := plan.NewDate(2026, time.March, 2)

	out := plan.Expand(exp, 2, today, plan.NewPeriodSet())

	require.Len(t, out, 1)
	assert.Equal(t, "2026-03-01", out[0].ReferencePeriod.String())
}

func TestExpand_UnknownRecurrence_FallsBackToMonthly(t *testing.T) {
	exp := rent(plan.RecurrenceType("weekly"), 1, plan.NewDate(2025, time.January, 1))
	today := plan.NewDate(2026, time.June, 1)

	out := plan.Expand(exp, 3, today, plan.NewPeriodSet())

	assert.Len(t, out, 3, "unknown cadence behaves as monthly")
}

// =============================================================================
// IDEMPOTENCE
// =============================================================================

func TestExpand_SecondRunWithUpdatedPeriods_ProducesNothing(t *testing.T) {
	// GIVEN: A first expansion whose periods were all recorded
	// WHEN: Expanding again with the same inputs
	// THEN: Zero new records

	exp := rent(plan.RecurrenceMonthly, 10, plan.NewDate(2025, time.January, 1))
	today := plan.NewDate(2026, time.May, 3)
	existing := plan.NewPeriodSet()

	first := plan.Expand(exp, 4, today, existing)
	require.Len(t, first, 4)

	for _, rec := range first {
		existing.Add(rec.ReferencePeriod)
	}

	second := plan.Expand(exp, 4, today, existing)
	assert.Empty(t, second)
}

func TestExpand_PartiallyGenerated_FillsOnlyGaps(t *testing.T) {
	exp := rent(plan.RecurrenceMonthly, 10, plan.NewDate(2025, time.January, 1))
	today := plan.NewDate(2026, time.May, 3)

	existing := plan.NewPeriodSet(plan.NewDate(2026, time.June, 1))
	out := plan.Expand(exp, 3, today, existing)

	require.Len(t, out, 2)
	assert.Equal(t, "2026-05-01", out[0].ReferencePeriod.String())
	assert.Equal(t, "2026-07-01", out[1].ReferencePeriod.String())
}

// =============================================================================
// START/END BOUNDS
// =============================================================================

func TestExpand_BeforeStartDate_Skipped(t *testing.T) {
	// Due dates before the expense's start date do not materialize.
	exp := rent(plan.RecurrenceMonthly, 5, plan.NewDate(2026, time.March, 10))
	today := plan.NewDate(2026, time.January, 2)

	out := plan.Expand(exp, 4, today, plan.NewPeriodSet())

	// Jan 5, Feb 5, Mar 5 all precede the Mar 10 start; only Apr 5 emits.
	require.Len(t, out, 1)
	assert.Equal(t, "2026-04-05", out[0].DueDate.String())
}

func TestExpand_AfterEndDate_Skipped(t *testing.T) {
	end := plan.NewDate(2026, time.February, 15)
	exp := rent(plan.RecurrenceMonthly, 5, plan.NewDate(2025, time.January, 1))
	exp.EndDate = &end

	today := plan.NewDate(2026, time.January, 2)
	out := plan.Expand(exp, 6, today, plan.NewPeriodSet())

	require.Len(t, out, 2)
	assert.Equal(t, "2026-01-05", out[0].DueDate.String())
	assert.Equal(t, "2026-02-05", out[1].DueDate.String())
}

// =============================================================================
// RECORD SHAPE
// =============================================================================

func TestExpand_EmittedRecordFields(t *testing.T) {
	exp := rent(plan.RecurrenceMonthly, 10, plan.NewDate(2025, time.January, 1))
	today := plan.NewDate(2026, time.May, 3)

	out := plan.Expand(exp, 1, today, plan.NewPeriodSet())

	require.Len(t, out, 1)
	rec := out[0]
	assert.Equal(t, "exp-rent", rec.ExpenseID)
	assert.Equal(t, "sup-1", rec.SupplierID)
	assert.Equal(t, "2026-05-01", rec.ReferencePeriod.String())
	assert.Equal(t, "1200.00", rec.Value.String())
	assert.Equal(t, plan.StatusPending, rec.Status)
}

func TestRecurrenceType_MonthSteps(t *testing.T) {
	steps := map[plan.RecurrenceType]int{
		plan.RecurrenceMonthly:     1,
		plan.RecurrenceBimonthly:   2,
		plan.RecurrenceQuarterly:   3,
		plan.RecurrenceSemiannual:  6,
		plan.RecurrenceAnnual:      12,
		plan.RecurrenceType("???"): 1,
	}
	for r, want := range steps {
		assert.Equal(t, want, r.MonthStep(), string(r))
	}
}
