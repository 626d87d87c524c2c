/*
scheduler_test.go - Unit tests for the generation scheduler

Tests for:
- RunGeneration over multiple expenses
- Idempotence across repeated passes
- Window advancement as today moves forward
*/
package api

import (
	"context"
	"testing"
	"time"

	"github.com/procura/payments-engine/plan"
	memstore "github.com/procura/payments-engine/plan/store"
)

func monthlyExpense(id string, amount string, dueDay int) plan.Expense {
	return plan.Expense{
		ID:         id,
		Amount:     plan.ParseAmount(amount),
		Recurrence: plan.RecurrenceMonthly,
		DueDay:     dueDay,
		StartDate:  plan.NewDate(2026, time.January, 1),
	}
}

func TestRunGeneration_MultipleExpenses(t *testing.T) {
	// GIVEN: A monthly and a quarterly expense
	mem := memstore.NewMemory()
	mem.AddExpense(monthlyExpense("exp-rent", "2500.00", 5))
	mem.AddExpense(plan.Expense{
		ID:         "exp-insurance",
		Amount:     plan.ParseAmount("900.00"),
		Recurrence: plan.RecurrenceQuarterly,
		DueDay:     1,
		StartDate:  plan.NewDate(2026, time.January, 1),
	})

	// WHEN: Running one pass with a 3-month lookahead from mid-March
	today := plan.NewDate(2026, time.March, 20)
	n, err := RunGeneration(context.Background(), mem, 3, today)
	if err != nil {
		t.Fatalf("RunGeneration failed: %v", err)
	}

	// THEN: The monthly expense fills 3 periods, the quarterly 1
	if n != 4 {
		t.Errorf("Expected 4 generated, got %d", n)
	}
	if got := len(mem.Generated("exp-rent")); got != 3 {
		t.Errorf("Expected 3 rent records, got %d", got)
	}
	if got := len(mem.Generated("exp-insurance")); got != 1 {
		t.Errorf("Expected 1 insurance record, got %d", got)
	}
}

func TestRunGeneration_SecondPassIsNoop(t *testing.T) {
	mem := memstore.NewMemory()
	mem.AddExpense(monthlyExpense("exp-rent", "2500.00", 5))
	today := plan.NewDate(2026, time.March, 20)

	n, err := RunGeneration(context.Background(), mem, 3, today)
	if err != nil {
		t.Fatalf("First pass failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("Expected 3 generated on first pass, got %d", n)
	}

	n, err = RunGeneration(context.Background(), mem, 3, today)
	if err != nil {
		t.Fatalf("Second pass failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 generated on second pass, got %d", n)
	}
}

func TestRunGeneration_WindowAdvances(t *testing.T) {
	// GIVEN: A pass already ran in March (covering Mar, Apr, May)
	mem := memstore.NewMemory()
	mem.AddExpense(monthlyExpense("exp-rent", "2500.00", 5))

	if _, err := RunGeneration(context.Background(), mem, 3, plan.NewDate(2026, time.March, 20)); err != nil {
		t.Fatalf("March pass failed: %v", err)
	}

	// WHEN: The next pass runs in April
	n, err := RunGeneration(context.Background(), mem, 3, plan.NewDate(2026, time.April, 20))
	if err != nil {
		t.Fatalf("April pass failed: %v", err)
	}

	// THEN: Only June is new; Apr and May were already generated
	if n != 1 {
		t.Errorf("Expected 1 generated in April pass, got %d", n)
	}
	recs := mem.Generated("exp-rent")
	last := recs[len(recs)-1]
	if last.ReferencePeriod.PeriodKey() != "2026-06" {
		t.Errorf("Expected new period 2026-06, got %s", last.ReferencePeriod.PeriodKey())
	}
	if last.DueDate.String() != "2026-06-05" {
		t.Errorf("Expected due 2026-06-05, got %s", last.DueDate)
	}
}

func TestRunGeneration_ExpiredExpenseSkipped(t *testing.T) {
	mem := memstore.NewMemory()
	end := plan.NewDate(2026, time.February, 28)
	exp := monthlyExpense("exp-old", "100.00", 5)
	exp.EndDate = &end
	mem.AddExpense(exp)

	n, err := RunGeneration(context.Background(), mem, 3, plan.NewDate(2026, time.March, 20))
	if err != nil {
		t.Fatalf("RunGeneration failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 generated for expired expense, got %d", n)
	}
}
