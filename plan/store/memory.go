// Package store provides in-memory GenerationStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/procura/payments-engine/plan"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	expenses  []plan.Expense
	generated map[string][]plan.GeneratedInstallment
	periods   map[genKey]struct{}
}

type genKey struct {
	ExpenseID string
	Period    string
}

func NewMemory() *Memory {
	return &Memory{
		generated: make(map[string][]plan.GeneratedInstallment),
		periods:   make(map[genKey]struct{}),
	}
}

// AddExpense seeds a recurring expense.
func (m *Memory) AddExpense(exp plan.Expense) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses = append(m.expenses, exp)
}

func (m *Memory) ListActiveExpenses(_ context.Context, asOf plan.Date) ([]plan.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Future start dates are NOT filtered here: Expand's bounds check
	// handles them, and the lookahead may reach into the expense's start.
	var out []plan.Expense
	for _, exp := range m.expenses {
		if exp.EndDate != nil && exp.EndDate.Before(asOf) {
			continue
		}
		out = append(out, exp)
	}
	return out, nil
}

func (m *Memory) ExistingPeriods(_ context.Context, expenseID string) (plan.PeriodSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := plan.NewPeriodSet()
	for _, rec := range m.generated[expenseID] {
		set.Add(rec.ReferencePeriod)
	}
	return set, nil
}

func (m *Memory) InsertGenerated(_ context.Context, recs []plan.GeneratedInstallment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check the whole batch before writing anything (atomicity).
	for _, rec := range recs {
		k := genKey{ExpenseID: rec.ExpenseID, Period: rec.ReferencePeriod.PeriodKey()}
		if _, ok := m.periods[k]; ok {
			return plan.ErrDuplicatePeriod
		}
	}

	for _, rec := range recs {
		k := genKey{ExpenseID: rec.ExpenseID, Period: rec.ReferencePeriod.PeriodKey()}
		m.periods[k] = struct{}{}
		m.generated[rec.ExpenseID] = append(m.generated[rec.ExpenseID], rec)
	}
	return nil
}

// Generated returns all records for an expense (test helper).
func (m *Memory) Generated(expenseID string) []plan.GeneratedInstallment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]plan.GeneratedInstallment, len(m.generated[expenseID]))
	copy(out, m.generated[expenseID])
	return out
}
