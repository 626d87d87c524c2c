/*
sqlite_test.go - Unit tests for the SQLite store

Tests for:
- Payment condition round-trips (explicit due days encoding)
- Generated-installment idempotence (unique index, batch atomicity)
- Generated-installment payment transitions
*/
package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/procura/payments-engine/order"
	"github.com/procura/payments-engine/plan"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestConditionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := order.ConditionRecord{
		ID:   "custom",
		Name: "Entry, 15, 45",
		Condition: plan.Condition{
			ExplicitDueDays: []int{0, 15, 45},
		},
	}
	if err := store.SaveCondition(ctx, rec); err != nil {
		t.Fatalf("Failed to save condition: %v", err)
	}

	got, err := store.GetCondition(ctx, "custom")
	if err != nil {
		t.Fatalf("Failed to get condition: %v", err)
	}
	if len(got.Condition.ExplicitDueDays) != 3 {
		t.Fatalf("Expected 3 due days, got %v", got.Condition.ExplicitDueDays)
	}
	for i, want := range []int{0, 15, 45} {
		if got.Condition.ExplicitDueDays[i] != want {
			t.Errorf("Due day %d: expected %d, got %d", i, want, got.Condition.ExplicitDueDays[i])
		}
	}
}

func TestGetCondition_Missing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetCondition(context.Background(), "nope")
	if !plan.IsNotFound(err) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}

func TestInsertGenerated_DuplicatePeriodRejected(t *testing.T) {
	// GIVEN: A generated record for March
	store := newTestStore(t)
	ctx := context.Background()

	march := plan.NewDate(2026, time.March, 1)
	rec := plan.GeneratedInstallment{
		ExpenseID:       "exp-rent",
		ReferencePeriod: march,
		Value:           plan.ParseAmount("2500.00"),
		DueDate:         plan.NewDate(2026, time.March, 5),
		Status:          plan.StatusPending,
	}
	if err := store.InsertGenerated(ctx, []plan.GeneratedInstallment{rec}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	// WHEN: Inserting a batch that repeats March alongside a new April
	april := rec
	april.ReferencePeriod = plan.NewDate(2026, time.April, 1)
	april.DueDate = plan.NewDate(2026, time.April, 5)
	err := store.InsertGenerated(ctx, []plan.GeneratedInstallment{april, rec})

	// THEN: The whole batch is rejected, April included
	if !errors.Is(err, plan.ErrDuplicatePeriod) {
		t.Fatalf("Expected ErrDuplicatePeriod, got %v", err)
	}
	periods, err := store.ExistingPeriods(ctx, "exp-rent")
	if err != nil {
		t.Fatalf("Failed to load periods: %v", err)
	}
	if periods.Contains(april.ReferencePeriod) {
		t.Error("April should have been rolled back with the failed batch")
	}
	if !periods.Contains(march) {
		t.Error("March from the first insert should still exist")
	}
}

func TestMarkGeneratedPaid_Transitions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := plan.GeneratedInstallment{
		ExpenseID:       "exp-rent",
		ReferencePeriod: plan.NewDate(2026, time.March, 1),
		Value:           plan.ParseAmount("2500.00"),
		DueDate:         plan.NewDate(2026, time.March, 5),
		Status:          plan.StatusPending,
	}
	if err := store.InsertGenerated(ctx, []plan.GeneratedInstallment{rec}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// IDs are deterministic: gen-{expense}-{period}
	id := "gen-exp-rent-2026-03"
	paidAt := plan.NewDate(2026, time.March, 4)
	if err := store.MarkGeneratedPaid(ctx, id, paidAt); err != nil {
		t.Fatalf("Failed to mark paid: %v", err)
	}

	records, err := store.ListGenerated(ctx, "paid")
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 paid record, got %d", len(records))
	}
	if records[0].PaidAt == nil || !records[0].PaidAt.Equal(paidAt) {
		t.Errorf("Expected paid_at %s, got %v", paidAt, records[0].PaidAt)
	}

	// Paying a paid record again is a not-found: nothing transitioned.
	if err := store.MarkGeneratedPaid(ctx, id, paidAt); !plan.IsNotFound(err) {
		t.Errorf("Expected not-found on double payment, got %v", err)
	}
}

func TestListActiveExpenses_FiltersEndedAndInactive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	start := plan.NewDate(2026, time.January, 1)
	ended := plan.NewDate(2026, time.February, 28)

	for _, rec := range []ExpenseRecord{
		{Expense: plan.Expense{ID: "live", Amount: plan.ParseAmount("100"), Recurrence: plan.RecurrenceMonthly, DueDay: 5, StartDate: start}, Name: "live", Active: true},
		{Expense: plan.Expense{ID: "ended", Amount: plan.ParseAmount("100"), Recurrence: plan.RecurrenceMonthly, DueDay: 5, StartDate: start, EndDate: &ended}, Name: "ended", Active: true},
		{Expense: plan.Expense{ID: "disabled", Amount: plan.ParseAmount("100"), Recurrence: plan.RecurrenceMonthly, DueDay: 5, StartDate: start}, Name: "disabled", Active: false},
	} {
		if err := store.SaveExpense(ctx, rec); err != nil {
			t.Fatalf("Failed to save expense %s: %v", rec.ID, err)
		}
	}

	active, err := store.ListActiveExpenses(ctx, plan.NewDate(2026, time.March, 20))
	if err != nil {
		t.Fatalf("Failed to list active expenses: %v", err)
	}
	if len(active) != 1 || active[0].ID != "live" {
		t.Errorf("Expected only the live expense, got %+v", active)
	}
}
