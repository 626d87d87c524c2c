/*
handlers.go - HTTP API handlers for the payments engine

PURPOSE:
  Exposes the payments engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Suppliers:
    GET    /api/suppliers                List suppliers
    POST   /api/suppliers                Create/update supplier
    GET    /api/suppliers/{id}           Get supplier
    DELETE /api/suppliers/{id}           Delete supplier

  Payment conditions:
    GET    /api/conditions               List conditions
    POST   /api/conditions               Create/update condition
    GET    /api/conditions/{id}          Get condition
    DELETE /api/conditions/{id}          Delete condition

  Orders:
    GET    /api/orders                   List orders
    POST   /api/orders                   Create order (generates plan)
    GET    /api/orders/{id}              Order with items and installments
    POST   /api/installments/{id}/pay    Mark an order installment paid

  Plans:
    POST   /api/plans/preview            Preview a plan without persisting

  Recurring expenses:
    GET    /api/expenses                 List recurring expenses
    POST   /api/expenses                 Create/update expense
    GET    /api/expenses/{id}            Get expense
    DELETE /api/expenses/{id}            Delete expense
    GET    /api/generated                List generated installments
    POST   /api/generated/{id}/pay       Mark a generated installment paid

  Admin:
    POST   /api/admin/generate           Run recurring generation now
    GET    /api/dashboard/summary        Month-bucketed totals

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Duplicate generation period
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Background generation loop
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/procura/payments-engine/order"
	"github.com/procura/payments-engine/plan"
	"github.com/procura/payments-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store           *sqlite.Store
	Orders          *order.Workflow
	LookaheadMonths int
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, lookaheadMonths int) *Handler {
	return &Handler{
		Store:           store,
		Orders:          order.NewWorkflow(store),
		LookaheadMonths: lookaheadMonths,
	}
}

// =============================================================================
// SUPPLIER HANDLERS
// =============================================================================

func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.Store.ListSuppliers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list suppliers", err)
		return
	}

	dtos := make([]SupplierDTO, len(suppliers))
	for i, s := range suppliers {
		dtos[i] = SupplierDTO{
			ID: s.ID, Name: s.Name, Email: s.Email, Notes: s.Notes,
			CreatedAt: s.CreatedAt.Format("2006-01-02"),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req CreateSupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	sup := sqlite.Supplier{ID: req.ID, Name: req.Name, Email: req.Email, Notes: req.Notes}
	if err := h.Store.SaveSupplier(r.Context(), sup); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save supplier", err)
		return
	}
	writeJSON(w, http.StatusCreated, SupplierDTO{ID: sup.ID, Name: sup.Name, Email: sup.Email, Notes: sup.Notes})
}

func (h *Handler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	sup, err := h.Store.GetSupplier(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get supplier", err)
		return
	}
	writeJSON(w, http.StatusOK, SupplierDTO{
		ID: sup.ID, Name: sup.Name, Email: sup.Email, Notes: sup.Notes,
		CreatedAt: sup.CreatedAt.Format("2006-01-02"),
	})
}

func (h *Handler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteSupplier(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete supplier", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYMENT CONDITION HANDLERS
// =============================================================================

func (h *Handler) ListConditions(w http.ResponseWriter, r *http.Request) {
	conditions, err := h.Store.ListConditions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list conditions", err)
		return
	}

	dtos := make([]ConditionDTO, len(conditions))
	for i, c := range conditions {
		dtos[i] = toConditionDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateCondition(w http.ResponseWriter, r *http.Request) {
	var req CreateConditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	pct, err := parsePercent(req.DownPaymentPercent)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid down_payment_percent", err)
		return
	}

	rec := order.ConditionRecord{
		ID:   req.ID,
		Name: req.Name,
		Condition: plan.Condition{
			InstallmentsCount:  req.InstallmentsCount,
			IntervalDays:       req.IntervalDays,
			DownPaymentPercent: pct,
			ExplicitDueDays:    req.ExplicitDueDays,
		},
	}
	if err := h.Store.SaveCondition(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save condition", err)
		return
	}
	writeJSON(w, http.StatusCreated, toConditionDTO(rec))
}

func (h *Handler) GetCondition(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetCondition(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get condition", err)
		return
	}
	writeJSON(w, http.StatusOK, toConditionDTO(*rec))
}

func (h *Handler) DeleteCondition(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteCondition(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete condition", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	issuedAt, err := plan.ParseDate(req.IssuedAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid issued_at format (use YYYY-MM-DD)", err)
		return
	}

	items := make([]plan.LineItem, len(req.Items))
	for i, it := range req.Items {
		qty, err := decimal.NewFromString(it.Quantity)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid quantity", err)
			return
		}
		items[i] = plan.LineItem{Quantity: qty, UnitPrice: plan.ParseAmount(it.UnitPrice)}
	}

	o, err := h.Orders.CreateOrder(r.Context(), order.CreateOrderInput{
		SupplierID:  req.SupplierID,
		ConditionID: req.ConditionID,
		Items:       items,
		Freight:     parseOptionalAmount(req.Freight),
		Discount:    parseOptionalAmount(req.Discount),
		IssuedAt:    issuedAt,
		Notes:       req.Notes,
	})
	if err != nil {
		writeDomainError(w, "Failed to create order", err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(*o))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Store.ListOrders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list orders", err)
		return
	}

	dtos := make([]OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toOrderDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Store.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(*o))
}

func (h *Handler) PayInstallment(w http.ResponseWriter, r *http.Request) {
	var req MarkPaidRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // empty body means "paid today"

	paidAt, err := paidAtOrToday(req.PaidAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid paid_at format (use YYYY-MM-DD)", err)
		return
	}

	if err := h.Orders.MarkPaid(r.Context(), chi.URLParam(r, "id"), paidAt); err != nil {
		writeDomainError(w, "Failed to mark installment paid", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PLAN PREVIEW
// =============================================================================

// PreviewPlan generates a plan without persisting anything. The permissive
// Generate is used here: previews of degenerate conditions show the user an
// empty plan instead of an error page.
func (h *Handler) PreviewPlan(w http.ResponseWriter, r *http.Request) {
	var req PreviewPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	baseDate, err := plan.ParseDate(req.BaseDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid base_date format (use YYYY-MM-DD)", err)
		return
	}

	var cond plan.Condition
	if req.ConditionID != "" {
		rec, err := h.Store.GetCondition(r.Context(), req.ConditionID)
		if err != nil {
			writeDomainError(w, "Failed to get condition", err)
			return
		}
		cond = rec.Condition
	} else {
		pct, err := parsePercent(req.DownPaymentPercent)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid down_payment_percent", err)
			return
		}
		cond = plan.Condition{
			InstallmentsCount:  req.InstallmentsCount,
			IntervalDays:       req.IntervalDays,
			DownPaymentPercent: pct,
			ExplicitDueDays:    req.ExplicitDueDays,
		}
	}

	total := plan.ParseAmount(req.Total)
	installments := plan.Generate(total, cond, baseDate)

	resp := PreviewPlanResponse{Total: total.Round2().String()}
	for _, ins := range installments {
		resp.Installments = append(resp.Installments, toInstallmentDTO(ins))
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// RECURRING EXPENSE HANDLERS
// =============================================================================

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListExpenses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list expenses", err)
		return
	}

	dtos := make([]ExpenseDTO, len(records))
	for i, rec := range records {
		dtos[i] = toExpenseDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	if req.DueDay < 1 || req.DueDay > 31 {
		writeError(w, http.StatusBadRequest, "due_day must be between 1 and 31", nil)
		return
	}
	recurrence := plan.RecurrenceType(req.Recurrence)
	if !recurrence.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid recurrence (monthly, bimonthly, quarterly, semiannual, annual)", nil)
		return
	}

	startDate, err := plan.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}

	rec := sqlite.ExpenseRecord{
		Expense: plan.Expense{
			ID:         req.ID,
			SupplierID: req.SupplierID,
			Amount:     plan.ParseAmount(req.Amount),
			Recurrence: recurrence,
			DueDay:     req.DueDay,
			StartDate:  startDate,
		},
		Name:   req.Name,
		Active: true,
	}
	if req.EndDate != "" {
		endDate, err := plan.ParseDate(req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
			return
		}
		rec.EndDate = &endDate
	}
	if req.Active != nil {
		rec.Active = *req.Active
	}

	if err := h.Store.SaveExpense(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(rec))
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get expense", err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(*rec))
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteExpense(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListGenerated(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListGenerated(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list generated installments", err)
		return
	}

	dtos := make([]GeneratedDTO, len(records))
	for i, rec := range records {
		dtos[i] = toGeneratedDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) PayGenerated(w http.ResponseWriter, r *http.Request) {
	var req MarkPaidRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	paidAt, err := paidAtOrToday(req.PaidAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid paid_at format (use YYYY-MM-DD)", err)
		return
	}

	if err := h.Store.MarkGeneratedPaid(r.Context(), chi.URLParam(r, "id"), paidAt); err != nil {
		writeDomainError(w, "Failed to mark generated installment paid", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// TriggerGeneration runs one recurring-generation pass immediately.
func (h *Handler) TriggerGeneration(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	today := plan.DateOf(timeNow())
	if req.Today != "" {
		var err error
		if today, err = plan.ParseDate(req.Today); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid today format (use YYYY-MM-DD)", err)
			return
		}
	}
	lookahead := req.LookaheadMonths
	if lookahead <= 0 {
		lookahead = h.LookaheadMonths
	}

	generated, err := RunGeneration(r.Context(), h.Store, lookahead, today)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Generation failed", err)
		return
	}

	overdue, err := h.Orders.MarkOverdue(r.Context(), today)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Overdue marking failed", err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{Generated: generated, MarkedOverdue: overdue})
}

// DashboardSummary returns month-bucketed pending/overdue/paid totals.
func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from", plan.DateOf(timeNow()).FirstOfMonth().AddMonths(-5))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from format (use YYYY-MM-DD)", err)
		return
	}
	to, err := queryDate(r, "to", plan.DateOf(timeNow()).FirstOfMonth().AddMonths(7).AddDays(-1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to format (use YYYY-MM-DD)", err)
		return
	}

	rowsData, err := h.Store.MonthlySummary(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute summary", err)
		return
	}

	dtos := make([]SummaryRowDTO, len(rowsData))
	for i, row := range rowsData {
		dtos[i] = SummaryRowDTO{
			Month:   row.Month,
			Pending: row.Pending.String(),
			Overdue: row.Overdue.String(),
			Paid:    row.Paid.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case plan.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, plan.ErrDuplicatePeriod):
		writeError(w, http.StatusConflict, message, err)
	case plan.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func parsePercent(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func parseOptionalAmount(s string) plan.Amount {
	if s == "" {
		return plan.Zero()
	}
	return plan.ParseAmount(s)
}

func paidAtOrToday(s string) (plan.Date, error) {
	if s == "" {
		return plan.DateOf(timeNow()), nil
	}
	return plan.ParseDate(s)
}

func queryDate(r *http.Request, key string, fallback plan.Date) (plan.Date, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return fallback, nil
	}
	return plan.ParseDate(s)
}
