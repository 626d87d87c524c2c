/*
store.go - Persistence contract for recurring generation

PURPOSE:
  Defines the narrow interface between the expansion engine and storage.
  The engine itself never touches a database; the scheduler reads active
  expenses and already-generated periods through this interface, runs
  Expand, and hands the results back for insertion.

IDEMPOTENCY:
  InsertGenerated must reject a record whose (expense, reference period)
  pair already exists with ErrDuplicatePeriod. Together with the
  ExistingPeriods pre-check this makes generation safe to re-run: the
  pre-check avoids the work, the unique constraint catches races.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: production SQLite
  - plan/store/memory.go:   in-memory for tests
*/
package plan

import "context"

// GenerationStore is what the recurring-generation job needs from storage.
type GenerationStore interface {
	// ListActiveExpenses returns recurring expenses whose start date is on
	// or before asOf and whose end date (if any) has not passed.
	ListActiveExpenses(ctx context.Context, asOf Date) ([]Expense, error)

	// ExistingPeriods returns the reference periods already generated for
	// an expense. Feeds Expand's de-duplication guard.
	ExistingPeriods(ctx context.Context, expenseID string) (PeriodSet, error)

	// InsertGenerated persists generated records atomically. A record whose
	// (expense, period) pair exists fails the batch with ErrDuplicatePeriod.
	InsertGenerated(ctx context.Context, recs []GeneratedInstallment) error
}
