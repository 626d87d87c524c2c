/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY OVER THE WIRE:
  Monetary values travel as decimal strings ("1234.56"), never floats.
  Dates travel as "2006-01-02".

VALIDATION:
  Validation is done in handlers and the domain layer, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/procura/payments-engine/order"
	"github.com/procura/payments-engine/plan"
	"github.com/procura/payments-engine/store/sqlite"
)

// =============================================================================
// SUPPLIERS
// =============================================================================

type SupplierDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreateSupplierRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Notes string `json:"notes"`
}

// =============================================================================
// PAYMENT CONDITIONS
// =============================================================================

type ConditionDTO struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	InstallmentsCount  int    `json:"installments_count"`
	IntervalDays       int    `json:"interval_days"`
	DownPaymentPercent string `json:"down_payment_percent"`
	ExplicitDueDays    []int  `json:"explicit_due_days,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
}

type CreateConditionRequest struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	InstallmentsCount  int    `json:"installments_count"`
	IntervalDays       int    `json:"interval_days"`
	DownPaymentPercent string `json:"down_payment_percent"`
	ExplicitDueDays    []int  `json:"explicit_due_days,omitempty"`
}

// =============================================================================
// ORDERS AND PLANS
// =============================================================================

type LineItemDTO struct {
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type CreateOrderRequest struct {
	SupplierID  string        `json:"supplier_id"`
	ConditionID string        `json:"condition_id"`
	Items       []LineItemDTO `json:"items"`
	Freight     string        `json:"freight,omitempty"`
	Discount    string        `json:"discount,omitempty"`
	IssuedAt    string        `json:"issued_at"` // YYYY-MM-DD
	Notes       string        `json:"notes,omitempty"`
}

type OrderDTO struct {
	ID           string           `json:"id"`
	SupplierID   string           `json:"supplier_id"`
	ConditionID  string           `json:"condition_id"`
	Freight      string           `json:"freight"`
	Discount     string           `json:"discount"`
	Total        string           `json:"total"`
	IssuedAt     string           `json:"issued_at"`
	Notes        string           `json:"notes,omitempty"`
	Installments []InstallmentDTO `json:"installments,omitempty"`
}

type InstallmentDTO struct {
	ID            string `json:"id,omitempty"`
	Sequence      int    `json:"sequence"`
	Value         string `json:"value"`
	DueDate       string `json:"due_date"`
	IsDownPayment bool   `json:"is_down_payment"`
	Status        string `json:"status,omitempty"`
	PaidAt        string `json:"paid_at,omitempty"`
}

// PreviewPlanRequest asks for a plan without creating an order. Either a
// stored condition_id or an inline condition may be supplied.
type PreviewPlanRequest struct {
	Total              string `json:"total"`
	BaseDate           string `json:"base_date"` // YYYY-MM-DD
	ConditionID        string `json:"condition_id,omitempty"`
	InstallmentsCount  int    `json:"installments_count,omitempty"`
	IntervalDays       int    `json:"interval_days,omitempty"`
	DownPaymentPercent string `json:"down_payment_percent,omitempty"`
	ExplicitDueDays    []int  `json:"explicit_due_days,omitempty"`
}

type PreviewPlanResponse struct {
	Total        string           `json:"total"`
	Installments []InstallmentDTO `json:"installments"`
}

type MarkPaidRequest struct {
	PaidAt string `json:"paid_at"` // YYYY-MM-DD, defaults to today
}

// =============================================================================
// RECURRING EXPENSES
// =============================================================================

type ExpenseDTO struct {
	ID         string `json:"id"`
	SupplierID string `json:"supplier_id,omitempty"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Recurrence string `json:"recurrence"`
	DueDay     int    `json:"due_day"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date,omitempty"`
	Active     bool   `json:"active"`
}

type CreateExpenseRequest struct {
	ID         string `json:"id"`
	SupplierID string `json:"supplier_id,omitempty"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Recurrence string `json:"recurrence"`
	DueDay     int    `json:"due_day"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date,omitempty"`
	Active     *bool  `json:"active,omitempty"`
}

type GeneratedDTO struct {
	ID              string `json:"id"`
	ExpenseID       string `json:"expense_id"`
	SupplierID      string `json:"supplier_id,omitempty"`
	ReferencePeriod string `json:"reference_period"`
	Value           string `json:"value"`
	DueDate         string `json:"due_date"`
	Status          string `json:"status"`
	PaidAt          string `json:"paid_at,omitempty"`
}

type GenerateRequest struct {
	LookaheadMonths int    `json:"lookahead_months,omitempty"` // default from server config
	Today           string `json:"today,omitempty"`            // YYYY-MM-DD, defaults to the real date
}

type GenerateResponse struct {
	Generated     int `json:"generated"`
	MarkedOverdue int `json:"marked_overdue"`
}

// =============================================================================
// DASHBOARD
// =============================================================================

type SummaryRowDTO struct {
	Month   string `json:"month"`
	Pending string `json:"pending"`
	Overdue string `json:"overdue"`
	Paid    string `json:"paid"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toInstallmentDTO(ins plan.Installment) InstallmentDTO {
	return InstallmentDTO{
		Sequence:      ins.Sequence,
		Value:         ins.Value.String(),
		DueDate:       ins.DueDate.String(),
		IsDownPayment: ins.IsDownPayment,
	}
}

func toStoredInstallmentDTO(ins order.Installment) InstallmentDTO {
	dto := InstallmentDTO{
		ID:            ins.ID,
		Sequence:      ins.Sequence,
		Value:         ins.Value.String(),
		DueDate:       ins.DueDate.String(),
		IsDownPayment: ins.IsDownPayment,
		Status:        string(ins.Status),
	}
	if ins.PaidAt != nil {
		dto.PaidAt = ins.PaidAt.String()
	}
	return dto
}

func toOrderDTO(o order.Order) OrderDTO {
	dto := OrderDTO{
		ID:          o.ID,
		SupplierID:  o.SupplierID,
		ConditionID: o.ConditionID,
		Freight:     o.Freight.String(),
		Discount:    o.Discount.String(),
		Total:       o.Total.String(),
		IssuedAt:    o.IssuedAt.String(),
		Notes:       o.Notes,
	}
	for _, ins := range o.Installments {
		dto.Installments = append(dto.Installments, toStoredInstallmentDTO(ins))
	}
	return dto
}

func toConditionDTO(rec order.ConditionRecord) ConditionDTO {
	return ConditionDTO{
		ID:                 rec.ID,
		Name:               rec.Name,
		InstallmentsCount:  rec.Condition.InstallmentsCount,
		IntervalDays:       rec.Condition.IntervalDays,
		DownPaymentPercent: rec.Condition.DownPaymentPercent.String(),
		ExplicitDueDays:    rec.Condition.ExplicitDueDays,
		CreatedAt:          rec.CreatedAt.Format(time.RFC3339),
	}
}

func toExpenseDTO(rec sqlite.ExpenseRecord) ExpenseDTO {
	dto := ExpenseDTO{
		ID:         rec.ID,
		SupplierID: rec.SupplierID,
		Name:       rec.Name,
		Amount:     rec.Amount.String(),
		Recurrence: string(rec.Recurrence),
		DueDay:     rec.DueDay,
		StartDate:  rec.StartDate.String(),
		Active:     rec.Active,
	}
	if rec.EndDate != nil {
		dto.EndDate = rec.EndDate.String()
	}
	return dto
}

func toGeneratedDTO(rec sqlite.GeneratedRecord) GeneratedDTO {
	dto := GeneratedDTO{
		ID:              rec.ID,
		ExpenseID:       rec.ExpenseID,
		SupplierID:      rec.SupplierID,
		ReferencePeriod: rec.ReferencePeriod.String(),
		Value:           rec.Value.String(),
		DueDate:         rec.DueDate.String(),
		Status:          rec.Status,
	}
	if rec.PaidAt != nil {
		dto.PaidAt = rec.PaidAt.String()
	}
	return dto
}
