/*
scheduler.go - Automated recurring-installment generation

PURPOSE:
  Periodically materializes upcoming installments for active recurring
  expenses and flips past-due pending installments to overdue.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Each tick: load active expenses, compute the periods still missing
    inside the lookahead window, insert them, then mark overdue
  - Safe to re-run: the expander skips periods already generated, and the
    unique index on (expense_id, reference_period) catches anything that
    slips past the pre-check

CONFIGURATION:
  - CheckInterval:   How often to run (default: 6 hours)
  - LookaheadMonths: Generation window (default: 3)
  - Enabled:         Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewGenerationScheduler(store, handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - plan/recurrence.go: The expansion algorithm
  - handlers.go: TriggerGeneration endpoint (manual run)
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/procura/payments-engine/order"
	"github.com/procura/payments-engine/plan"
)

// timeNow is swapped out in tests.
var timeNow = time.Now

// GenerationScheduler materializes recurring installments on a timer.
type GenerationScheduler struct {
	Store           plan.GenerationStore
	Orders          *order.Workflow
	CheckInterval   time.Duration
	LookaheadMonths int
	Enabled         bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewGenerationScheduler creates a scheduler with default settings.
func NewGenerationScheduler(store plan.GenerationStore, orders *order.Workflow) *GenerationScheduler {
	return &GenerationScheduler{
		Store:           store,
		Orders:          orders,
		CheckInterval:   6 * time.Hour,
		LookaheadMonths: 3,
		Enabled:         true,
		stop:            make(chan struct{}),
	}
}

// Start begins the scheduler.
func (gs *GenerationScheduler) Start() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if !gs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	gs.ticker = time.NewTicker(gs.CheckInterval)
	gs.wg.Add(1)

	go gs.run()

	log.Printf("[Scheduler] Started with check interval %v, lookahead %d months",
		gs.CheckInterval, gs.LookaheadMonths)
}

// Stop stops the scheduler.
func (gs *GenerationScheduler) Stop() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.ticker != nil {
		gs.ticker.Stop()
		close(gs.stop)
		gs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (gs *GenerationScheduler) run() {
	defer gs.wg.Done()

	// Run immediately on start
	gs.tick()

	for {
		select {
		case <-gs.ticker.C:
			gs.tick()
		case <-gs.stop:
			return
		}
	}
}

func (gs *GenerationScheduler) tick() {
	ctx := context.Background()
	today := plan.DateOf(timeNow())

	generated, err := RunGeneration(ctx, gs.Store, gs.LookaheadMonths, today)
	if err != nil {
		log.Printf("[Scheduler] Generation error: %v", err)
	}

	overdue := 0
	if gs.Orders != nil {
		if overdue, err = gs.Orders.MarkOverdue(ctx, today); err != nil {
			log.Printf("[Scheduler] Overdue marking error: %v", err)
		}
	}

	if generated > 0 || overdue > 0 {
		log.Printf("[Scheduler] Completed: %d generated, %d marked overdue", generated, overdue)
	}
}

// RunNow triggers an immediate pass (for testing/admin).
func (gs *GenerationScheduler) RunNow() {
	gs.tick()
}

// RunGeneration performs one generation pass over all active expenses and
// returns how many records were inserted. Also used by the manual-trigger
// endpoint; the scheduler is just this on a timer.
func RunGeneration(ctx context.Context, store plan.GenerationStore, lookaheadMonths int, today plan.Date) (int, error) {
	expenses, err := store.ListActiveExpenses(ctx, today)
	if err != nil {
		return 0, err
	}

	generated := 0
	for _, exp := range expenses {
		if !exp.Recurrence.Valid() {
			// Expand falls back to monthly; surface the slip instead of
			// hiding it behind the fallback.
			log.Printf("[Scheduler] Expense %s has unknown recurrence %q, treating as monthly",
				exp.ID, exp.Recurrence)
		}

		existing, err := store.ExistingPeriods(ctx, exp.ID)
		if err != nil {
			log.Printf("[Scheduler] Error loading periods for %s: %v", exp.ID, err)
			continue
		}

		recs := plan.Expand(exp, lookaheadMonths, today, existing)
		if len(recs) == 0 {
			continue
		}

		if err := store.InsertGenerated(ctx, recs); err != nil {
			if err == plan.ErrDuplicatePeriod {
				// Raced with another run; the other run won.
				continue
			}
			log.Printf("[Scheduler] Error inserting records for %s: %v", exp.ID, err)
			continue
		}
		generated += len(recs)
	}

	return generated, nil
}
