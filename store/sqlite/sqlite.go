/*
Package sqlite provides the SQLite-backed persistence layer.

PURPOSE:
  Implements the storage contracts consumed by the engine's callers:
  order.Store (orders, installments, payment conditions) and
  plan.GenerationStore (recurring expenses, generated installments).
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  suppliers:              Supplier records
  payment_conditions:     Reusable payment-condition configurations
  purchase_orders:        Order headers (totals, dates, references)
  order_items:            Order lines (quantity x unit price)
  installments:           Generated plans for purchase orders
  recurring_expenses:     Recurring-expense configurations
  generated_installments: Materialized billing periods

IDEMPOTENCY:
  idx_generated_unique on (expense_id, reference_period) is the database
  half of the generation idempotence contract: even if two scheduler runs
  race past the ExistingPeriods pre-check, only one insert wins.

MONEY AND DATES:
  Monetary values are stored as TEXT in decimal string form (never REAL -
  floats drift). Business dates are "2006-01-02" TEXT; record timestamps
  are RFC3339 TEXT.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened in WAL mode so
  readers do not block each other.

USAGE:
  store, err := sqlite.New("./data/payments.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - order/workflow.go: Order-side consumer
  - plan/store.go:     Generation-side contract
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/procura/payments-engine/order"
	"github.com/procura/payments-engine/plan"
)

// Store implements the storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS suppliers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payment_conditions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		installments_count INTEGER NOT NULL DEFAULT 1,
		interval_days INTEGER NOT NULL DEFAULT 0,
		down_payment_percent TEXT NOT NULL DEFAULT '0',
		explicit_due_days TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS purchase_orders (
		id TEXT PRIMARY KEY,
		supplier_id TEXT NOT NULL,
		condition_id TEXT NOT NULL,
		freight TEXT NOT NULL,
		discount TEXT NOT NULL,
		total TEXT NOT NULL,
		issued_at TEXT NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_supplier
		ON purchase_orders(supplier_id);
	CREATE INDEX IF NOT EXISTS idx_orders_issued_at
		ON purchase_orders(issued_at);

	CREATE TABLE IF NOT EXISTS order_items (
		order_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		quantity TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		PRIMARY KEY (order_id, position)
	);

	CREATE TABLE IF NOT EXISTS installments (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		value TEXT NOT NULL,
		due_date TEXT NOT NULL,
		is_down_payment BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'pending',
		paid_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_installments_order
		ON installments(order_id);
	CREATE INDEX IF NOT EXISTS idx_installments_status_due
		ON installments(status, due_date);

	CREATE TABLE IF NOT EXISTS recurring_expenses (
		id TEXT PRIMARY KEY,
		supplier_id TEXT,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		recurrence TEXT NOT NULL,
		due_day INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_active
		ON recurring_expenses(active);

	CREATE TABLE IF NOT EXISTS generated_installments (
		id TEXT PRIMARY KEY,
		expense_id TEXT NOT NULL,
		supplier_id TEXT,
		reference_period TEXT NOT NULL,
		value TEXT NOT NULL,
		due_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		paid_at TEXT,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: one generated record per (expense, reference period).
	-- The database half of the generation idempotence contract.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_generated_unique
		ON generated_installments(expense_id, reference_period);

	CREATE INDEX IF NOT EXISTS idx_generated_status_due
		ON generated_installments(status, due_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SUPPLIERS
// =============================================================================

type Supplier struct {
	ID        string
	Name      string
	Email     string
	Notes     string
	CreatedAt time.Time
}

func (s *Store) SaveSupplier(ctx context.Context, sup Supplier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO suppliers (id, name, email, notes, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			notes = excluded.notes
	`
	_, err := s.db.ExecContext(ctx, query,
		sup.ID, sup.Name, nullString(sup.Email), nullString(sup.Notes),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save supplier: %w", err)
	}
	return nil
}

func (s *Store) GetSupplier(ctx context.Context, id string) (*Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		sup          Supplier
		email, notes sql.NullString
		createdAt    string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, notes, created_at FROM suppliers WHERE id = ?", id,
	).Scan(&sup.ID, &sup.Name, &email, &notes, &createdAt)
	if err == sql.ErrNoRows {
		return nil, plan.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	sup.Email = email.String
	sup.Notes = notes.String
	sup.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &sup, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, notes, created_at FROM suppliers ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var (
			sup          Supplier
			email, notes sql.NullString
			createdAt    string
		)
		if err := rows.Scan(&sup.ID, &sup.Name, &email, &notes, &createdAt); err != nil {
			return nil, err
		}
		sup.Email = email.String
		sup.Notes = notes.String
		sup.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		suppliers = append(suppliers, sup)
	}
	return suppliers, rows.Err()
}

func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM suppliers WHERE id = ?", id)
	return err
}

// =============================================================================
// PAYMENT CONDITIONS (order.Store)
// =============================================================================

func (s *Store) SaveCondition(ctx context.Context, rec order.ConditionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO payment_conditions
			(id, name, installments_count, interval_days, down_payment_percent, explicit_due_days, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			installments_count = excluded.installments_count,
			interval_days = excluded.interval_days,
			down_payment_percent = excluded.down_payment_percent,
			explicit_due_days = excluded.explicit_due_days
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Name,
		rec.Condition.InstallmentsCount,
		rec.Condition.IntervalDays,
		rec.Condition.DownPaymentPercent.String(),
		nullString(encodeDueDays(rec.Condition.ExplicitDueDays)),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save condition: %w", err)
	}
	return nil
}

func (s *Store) GetCondition(ctx context.Context, id string) (*order.ConditionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, installments_count, interval_days, down_payment_percent, explicit_due_days, created_at
		FROM payment_conditions WHERE id = ?`, id)

	rec, err := scanCondition(row)
	if err == sql.ErrNoRows {
		return nil, plan.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get condition: %w", err)
	}
	return rec, nil
}

func (s *Store) ListConditions(ctx context.Context) ([]order.ConditionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, installments_count, interval_days, down_payment_percent, explicit_due_days, created_at
		FROM payment_conditions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conditions: %w", err)
	}
	defer rows.Close()

	var conditions []order.ConditionRecord
	for rows.Next() {
		rec, err := scanCondition(rows)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, *rec)
	}
	return conditions, rows.Err()
}

func (s *Store) DeleteCondition(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM payment_conditions WHERE id = ?", id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCondition(row rowScanner) (*order.ConditionRecord, error) {
	var (
		rec       order.ConditionRecord
		pct       string
		dueDays   sql.NullString
		createdAt string
	)
	err := row.Scan(&rec.ID, &rec.Name,
		&rec.Condition.InstallmentsCount,
		&rec.Condition.IntervalDays,
		&pct, &dueDays, &createdAt)
	if err != nil {
		return nil, err
	}
	rec.Condition.DownPaymentPercent = plan.ParseAmount(pct).Value
	if dueDays.Valid {
		rec.Condition.ExplicitDueDays = decodeDueDays(dueDays.String)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rec, nil
}

// Due-day offsets are stored as a comma-separated list ("0,15,45").
func encodeDueDays(days []int) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func decodeDueDays(s string) []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	return days
}

// =============================================================================
// PURCHASE ORDERS (order.Store)
// =============================================================================

// SaveOrder persists the order header, items and installments in one
// database transaction. An order never exists without its plan.
func (s *Store) SaveOrder(ctx context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO purchase_orders
			(id, supplier_id, condition_id, freight, discount, total, issued_at, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.SupplierID, o.ConditionID,
		o.Freight.Value.String(), o.Discount.Value.String(), o.Total.Value.String(),
		o.IssuedAt.String(), nullString(o.Notes),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i, item := range o.Items {
		_, err = sqlTx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, quantity, unit_price)
			VALUES (?, ?, ?, ?)`,
			o.ID, i, item.Quantity.String(), item.UnitPrice.Value.String())
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	for _, ins := range o.Installments {
		_, err = sqlTx.ExecContext(ctx, `
			INSERT INTO installments (id, order_id, seq, value, due_date, is_down_payment, status, paid_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, NULL)`,
			ins.ID, ins.OrderID, ins.Sequence,
			ins.Value.Value.String(), ins.DueDate.String(),
			ins.IsDownPayment, string(ins.Status))
		if err != nil {
			return fmt.Errorf("failed to insert installment: %w", err)
		}
	}

	return sqlTx.Commit()
}

func (s *Store) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, supplier_id, condition_id, freight, discount, total, issued_at, notes, created_at
		FROM purchase_orders WHERE id = ?`, id)

	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, plan.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if o.Items, err = s.loadItems(ctx, o.ID); err != nil {
		return nil, err
	}
	if o.Installments, err = s.loadInstallments(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrders returns order headers (no items or installments), newest first.
func (s *Store) ListOrders(ctx context.Context) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, supplier_id, condition_id, freight, discount, total, issued_at, notes, created_at
		FROM purchase_orders ORDER BY issued_at DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var (
		o                        order.Order
		freight, discount, total string
		issuedAt, createdAt      string
		notes                    sql.NullString
	)
	err := row.Scan(&o.ID, &o.SupplierID, &o.ConditionID,
		&freight, &discount, &total, &issuedAt, &notes, &createdAt)
	if err != nil {
		return nil, err
	}
	o.Freight = plan.ParseAmount(freight)
	o.Discount = plan.ParseAmount(discount)
	o.Total = plan.ParseAmount(total)
	o.IssuedAt, _ = plan.ParseDate(issuedAt)
	o.Notes = notes.String
	o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &o, nil
}

func (s *Store) loadItems(ctx context.Context, orderID string) ([]plan.LineItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT quantity, unit_price FROM order_items
		WHERE order_id = ? ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var items []plan.LineItem
	for rows.Next() {
		var qty, price string
		if err := rows.Scan(&qty, &price); err != nil {
			return nil, err
		}
		items = append(items, plan.LineItem{
			Quantity:  plan.ParseAmount(qty).Value,
			UnitPrice: plan.ParseAmount(price),
		})
	}
	return items, rows.Err()
}

func (s *Store) loadInstallments(ctx context.Context, orderID string) ([]order.Installment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, seq, value, due_date, is_down_payment, status, paid_at
		FROM installments WHERE order_id = ? ORDER BY seq`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load installments: %w", err)
	}
	defer rows.Close()

	var installments []order.Installment
	for rows.Next() {
		ins, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		installments = append(installments, *ins)
	}
	return installments, rows.Err()
}

func scanInstallment(row rowScanner) (*order.Installment, error) {
	var (
		ins            order.Installment
		value, dueDate string
		status         string
		paidAt         sql.NullString
	)
	err := row.Scan(&ins.ID, &ins.OrderID, &ins.Sequence, &value, &dueDate,
		&ins.IsDownPayment, &status, &paidAt)
	if err != nil {
		return nil, err
	}
	ins.Value = plan.ParseAmount(value)
	ins.DueDate, _ = plan.ParseDate(dueDate)
	ins.Status = order.Status(status)
	if paidAt.Valid {
		if d, err := plan.ParseDate(paidAt.String); err == nil {
			ins.PaidAt = &d
		}
	}
	return &ins, nil
}

// =============================================================================
// INSTALLMENT STATUS (order.Store)
// =============================================================================

func (s *Store) GetInstallment(ctx context.Context, installmentID string) (*order.Installment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, order_id, seq, value, due_date, is_down_payment, status, paid_at
		FROM installments WHERE id = ?`, installmentID)

	ins, err := scanInstallment(row)
	if err == sql.ErrNoRows {
		return nil, plan.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get installment: %w", err)
	}
	return ins, nil
}

func (s *Store) UpdateInstallmentStatus(ctx context.Context, installmentID string, status order.Status, paidAt *plan.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var paidAtStr sql.NullString
	if paidAt != nil {
		paidAtStr = sql.NullString{String: paidAt.String(), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE installments SET status = ?, paid_at = ? WHERE id = ?",
		string(status), paidAtStr, installmentID)
	if err != nil {
		return fmt.Errorf("failed to update installment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return plan.ErrNotFound
	}
	return nil
}

// MarkOverdue flips pending installments (order plans AND generated
// recurring records) whose due date is strictly before today.
func (s *Store) MarkOverdue(ctx context.Context, today plan.Date) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, table := range []string{"installments", "generated_installments"} {
		res, err := s.db.ExecContext(ctx,
			"UPDATE "+table+" SET status = 'overdue' WHERE status = 'pending' AND due_date < ?",
			today.String())
		if err != nil {
			return total, fmt.Errorf("failed to mark overdue in %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += int(n)
	}
	return total, nil
}

// =============================================================================
// RECURRING EXPENSES (plan.GenerationStore)
// =============================================================================

// ExpenseRecord wraps the engine's expense configuration with the naming
// and activation metadata the engine never reads.
type ExpenseRecord struct {
	plan.Expense
	Name      string
	Active    bool
	CreatedAt time.Time
}

func (s *Store) SaveExpense(ctx context.Context, rec ExpenseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var endDate sql.NullString
	if rec.EndDate != nil {
		endDate = sql.NullString{String: rec.EndDate.String(), Valid: true}
	}

	query := `
		INSERT INTO recurring_expenses
			(id, supplier_id, name, amount, recurrence, due_day, start_date, end_date, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			supplier_id = excluded.supplier_id,
			name = excluded.name,
			amount = excluded.amount,
			recurrence = excluded.recurrence,
			due_day = excluded.due_day,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			active = excluded.active
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, nullString(rec.SupplierID), rec.Name,
		rec.Amount.Value.String(), string(rec.Recurrence), rec.DueDay,
		rec.StartDate.String(), endDate, rec.Active,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (*ExpenseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, supplier_id, name, amount, recurrence, due_day, start_date, end_date, active, created_at
		FROM recurring_expenses WHERE id = ?`, id)

	rec, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, plan.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return rec, nil
}

func (s *Store) ListExpenses(ctx context.Context) ([]ExpenseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryExpenses(ctx, `
		SELECT id, supplier_id, name, amount, recurrence, due_day, start_date, end_date, active, created_at
		FROM recurring_expenses ORDER BY name`)
}

// ListActiveExpenses implements plan.GenerationStore. End-of-life expenses
// are excluded; future start dates are not (the lookahead may reach them,
// and Expand applies the start bound itself).
func (s *Store) ListActiveExpenses(ctx context.Context, asOf plan.Date) ([]plan.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.queryExpenses(ctx, `
		SELECT id, supplier_id, name, amount, recurrence, due_day, start_date, end_date, active, created_at
		FROM recurring_expenses
		WHERE active = TRUE AND (end_date IS NULL OR end_date >= ?)
		ORDER BY id`, asOf.String())
	if err != nil {
		return nil, err
	}

	expenses := make([]plan.Expense, len(records))
	for i, rec := range records {
		expenses[i] = rec.Expense
	}
	return expenses, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM recurring_expenses WHERE id = ?", id)
	return err
}

func (s *Store) queryExpenses(ctx context.Context, query string, args ...any) ([]ExpenseRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var records []ExpenseRecord
	for rows.Next() {
		rec, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanExpense(row rowScanner) (*ExpenseRecord, error) {
	var (
		rec                 ExpenseRecord
		supplierID, endDate sql.NullString
		amount, recurrence  string
		startDate           string
		createdAt           string
	)
	err := row.Scan(&rec.ID, &supplierID, &rec.Name, &amount, &recurrence,
		&rec.DueDay, &startDate, &endDate, &rec.Active, &createdAt)
	if err != nil {
		return nil, err
	}
	rec.SupplierID = supplierID.String
	rec.Amount = plan.ParseAmount(amount)
	rec.Recurrence = plan.RecurrenceType(recurrence)
	rec.StartDate, _ = plan.ParseDate(startDate)
	if endDate.Valid {
		if d, err := plan.ParseDate(endDate.String); err == nil {
			rec.EndDate = &d
		}
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rec, nil
}

// =============================================================================
// GENERATED INSTALLMENTS (plan.GenerationStore)
// =============================================================================

// ExistingPeriods implements plan.GenerationStore.
func (s *Store) ExistingPeriods(ctx context.Context, expenseID string) (plan.PeriodSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT reference_period FROM generated_installments WHERE expense_id = ?",
		expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing periods: %w", err)
	}
	defer rows.Close()

	set := plan.NewPeriodSet()
	for rows.Next() {
		var period string
		if err := rows.Scan(&period); err != nil {
			return nil, err
		}
		d, err := plan.ParseDate(period)
		if err != nil {
			continue
		}
		set.Add(d)
	}
	return set, rows.Err()
}

// InsertGenerated implements plan.GenerationStore. The batch is atomic;
// a unique-index hit on (expense_id, reference_period) rolls the whole
// batch back with plan.ErrDuplicatePeriod.
func (s *Store) InsertGenerated(ctx context.Context, recs []plan.GeneratedInstallment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range recs {
		// Deterministic ID doubles as a second idempotence guard.
		id := fmt.Sprintf("gen-%s-%s", rec.ExpenseID, rec.ReferencePeriod.PeriodKey())
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO generated_installments
				(id, expense_id, supplier_id, reference_period, value, due_date, status, paid_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
			id, rec.ExpenseID, nullString(rec.SupplierID),
			rec.ReferencePeriod.String(), rec.Value.Value.String(),
			rec.DueDate.String(), rec.Status, now)
		if err != nil {
			if isUniqueConstraintError(err) {
				return plan.ErrDuplicatePeriod
			}
			return fmt.Errorf("failed to insert generated installment: %w", err)
		}
	}

	return sqlTx.Commit()
}

// GeneratedRecord is a stored generated installment with its status.
type GeneratedRecord struct {
	ID              string
	ExpenseID       string
	SupplierID      string
	ReferencePeriod plan.Date
	Value           plan.Amount
	DueDate         plan.Date
	Status          string
	PaidAt          *plan.Date
}

// ListGenerated returns generated installments, optionally filtered by
// status (empty = all), ordered by due date.
func (s *Store) ListGenerated(ctx context.Context, status string) ([]GeneratedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, expense_id, supplier_id, reference_period, value, due_date, status, paid_at
		FROM generated_installments`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY due_date"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list generated installments: %w", err)
	}
	defer rows.Close()

	var records []GeneratedRecord
	for rows.Next() {
		var (
			rec                GeneratedRecord
			supplierID, paidAt sql.NullString
			period, value, due string
		)
		if err := rows.Scan(&rec.ID, &rec.ExpenseID, &supplierID, &period, &value, &due, &rec.Status, &paidAt); err != nil {
			return nil, err
		}
		rec.SupplierID = supplierID.String
		rec.ReferencePeriod, _ = plan.ParseDate(period)
		rec.Value = plan.ParseAmount(value)
		rec.DueDate, _ = plan.ParseDate(due)
		if paidAt.Valid {
			if d, err := plan.ParseDate(paidAt.String); err == nil {
				rec.PaidAt = &d
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// MarkGeneratedPaid transitions a generated installment to paid.
func (s *Store) MarkGeneratedPaid(ctx context.Context, id string, paidAt plan.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE generated_installments SET status = 'paid', paid_at = ?
		WHERE id = ? AND status IN ('pending', 'overdue')`,
		paidAt.String(), id)
	if err != nil {
		return fmt.Errorf("failed to mark generated installment paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return plan.ErrNotFound
	}
	return nil
}

// =============================================================================
// DASHBOARD SUMMARY
// =============================================================================

// SummaryRow aggregates installment values for one calendar month.
type SummaryRow struct {
	Month   string // "2026-03"
	Pending plan.Amount
	Overdue plan.Amount
	Paid    plan.Amount
}

// MonthlySummary buckets every installment (order plans and generated
// recurring records) by due month and sums values per status.
//
// Sums are computed in Go, not SQL: values are stored as decimal TEXT and
// SQLite SUM() would coerce them to floats.
func (s *Store) MonthlySummary(ctx context.Context, from, to plan.Date) ([]SummaryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT substr(due_date, 1, 7), value, status FROM installments
		WHERE due_date >= ? AND due_date <= ?
		UNION ALL
		SELECT substr(due_date, 1, 7), value, status FROM generated_installments
		WHERE due_date >= ? AND due_date <= ?
	`
	rows, err := s.db.QueryContext(ctx, query,
		from.String(), to.String(), from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}
	defer rows.Close()

	byMonth := make(map[string]*SummaryRow)
	var months []string
	for rows.Next() {
		var month, value, status string
		if err := rows.Scan(&month, &value, &status); err != nil {
			return nil, err
		}
		row, ok := byMonth[month]
		if !ok {
			row = &SummaryRow{Month: month, Pending: plan.Zero(), Overdue: plan.Zero(), Paid: plan.Zero()}
			byMonth[month] = row
			months = append(months, month)
		}
		v := plan.ParseAmount(value)
		switch status {
		case "paid":
			row.Paid = row.Paid.Add(v)
		case "overdue":
			row.Overdue = row.Overdue.Add(v)
		default:
			row.Pending = row.Pending.Add(v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Strings(months)
	out := make([]SummaryRow, len(months))
	for i, m := range months {
		out[i] = *byMonth[m]
	}
	return out, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
