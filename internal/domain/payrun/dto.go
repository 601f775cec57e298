package payrun

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== PAY RUN DTOs ==========

type CreatePayRunRequest struct {
	Reference   *string `json:"reference,omitempty"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	PaymentDate string  `json:"payment_date"`
	Notes       *string `json:"notes,omitempty"`
}

// Validate checks formats; a reversed period is reported as ErrInvalidRange by the service.
// MaxPeriodDays bounds a pay run period.
const MaxPeriodDays = 93

func (r *CreatePayRunRequest) Validate() error {
	var errs validator.ValidationErrors

	start, startOK := validator.IsValidDate(r.PeriodStart)
	if !startOK {
		errs.Add("period_start", "period_start must be YYYY-MM-DD")
	}
	end, endOK := validator.IsValidDate(r.PeriodEnd)
	if !endOK {
		errs.Add("period_end", "period_end must be YYYY-MM-DD")
	}
	if startOK && endOK && end.After(start.AddDate(0, 0, MaxPeriodDays-1)) {
		errs.Add("period_end", fmt.Sprintf("pay period must not span more than %d days", MaxPeriodDays))
	}
	if _, ok := validator.IsValidDate(r.PaymentDate); !ok {
		errs.Add("payment_date", "payment_date must be YYYY-MM-DD")
	}
	if r.Reference != nil && (validator.IsEmpty(*r.Reference) || len(*r.Reference) > 64) {
		errs.Add("reference", "reference must be 1-64 characters")
	}
	if r.Notes != nil && len(*r.Notes) > 1000 {
		errs.Add("notes", "notes must not exceed 1000 characters")
	}

	return errs.Err()
}

func (r CreatePayRunRequest) Dates() (start, end, payment time.Time) {
	start, _ = validator.IsValidDate(r.PeriodStart)
	end, _ = validator.IsValidDate(r.PeriodEnd)
	payment, _ = validator.IsValidDate(r.PaymentDate)
	return start, end, payment
}

type DecidePayRunRequest struct {
	Status string `json:"status"`
}

func (r *DecidePayRunRequest) Validate() error {
	var errs validator.ValidationErrors
	if _, err := ParseDecision(r.Status); err != nil {
		errs.Add("status", "status must be APPROVED, REJECTED or CANCELLED")
	}
	return errs.Err()
}

type ProcessPaymentsRequest struct {
	BulletinIDs   []string `json:"bulletin_ids"`
	PaymentMethod string   `json:"payment_method"`
	Notes         *string  `json:"notes,omitempty"`
}

func (r *ProcessPaymentsRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.BulletinIDs) == 0 {
		errs.Add("bulletin_ids", "at least one bulletin id is required")
	}
	for _, id := range r.BulletinIDs {
		if validator.IsEmpty(id) {
			errs.Add("bulletin_ids", "bulletin ids must not be empty")
			break
		}
	}
	if _, err := ParsePaymentMethod(r.PaymentMethod); err != nil {
		errs.Add("payment_method", "payment_method must be BANK_TRANSFER, CASH, CHECK or MOBILE_MONEY")
	}
	if r.Notes != nil && len(*r.Notes) > 1000 {
		errs.Add("notes", "notes must not exceed 1000 characters")
	}

	return errs.Err()
}

type PayRunResponse struct {
	ID              string          `json:"id"`
	Reference       string          `json:"reference"`
	PeriodStart     string          `json:"period_start"`
	PeriodEnd       string          `json:"period_end"`
	PaymentDate     string          `json:"payment_date"`
	Status          Status          `json:"status"`
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalNet        decimal.Decimal `json:"total_net"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	EmployeeCount   int             `json:"employee_count"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedBy       string          `json:"created_by"`
	GeneratedAt     *string         `json:"generated_at,omitempty"`
	DecidedBy       *string         `json:"decided_by,omitempty"`
	DecidedAt       *string         `json:"decided_at,omitempty"`
	CompletedAt     *string         `json:"completed_at,omitempty"`
}

func NewPayRunResponse(pr PayRun) PayRunResponse {
	return PayRunResponse{
		ID:              pr.ID,
		Reference:       pr.Reference,
		PeriodStart:     pr.PeriodStart.Format("2006-01-02"),
		PeriodEnd:       pr.PeriodEnd.Format("2006-01-02"),
		PaymentDate:     pr.PaymentDate.Format("2006-01-02"),
		Status:          pr.Status,
		TotalGross:      pr.Totals.Gross,
		TotalNet:        pr.Totals.Net,
		TotalDeductions: pr.Totals.Deductions,
		EmployeeCount:   pr.Totals.EmployeeCount,
		Notes:           pr.Notes,
		CreatedBy:       pr.CreatedBy,
		GeneratedAt:     formatTime(pr.GeneratedAt),
		DecidedBy:       pr.DecidedBy,
		DecidedAt:       formatTime(pr.DecidedAt),
		CompletedAt:     formatTime(pr.CompletedAt),
	}
}

type BulletinResponse struct {
	ID                  string          `json:"id"`
	PayRunID            string          `json:"pay_run_id"`
	EmployeeID          string          `json:"employee_id"`
	ContractType        string          `json:"contract_type"`
	PayRate             decimal.Decimal `json:"pay_rate"`
	ScheduledDays       int             `json:"scheduled_days"`
	UnpaidAbsenceDays   int             `json:"unpaid_absence_days"`
	WorkedHours         decimal.Decimal `json:"worked_hours"`
	LateMinutes         int             `json:"late_minutes"`
	EarlyLeaveMinutes   int             `json:"early_leave_minutes"`
	OvertimeMinutes     int             `json:"overtime_minutes"`
	BasePay             decimal.Decimal `json:"base_pay"`
	OvertimePay         decimal.Decimal `json:"overtime_pay"`
	AbsenceDeduction    decimal.Decimal `json:"absence_deduction"`
	LateDeduction       decimal.Decimal `json:"late_deduction"`
	EarlyLeaveDeduction decimal.Decimal `json:"early_leave_deduction"`
	GrossPay            decimal.Decimal `json:"gross_pay"`
	TotalDeductions     decimal.Decimal `json:"total_deductions"`
	NetPay              decimal.Decimal `json:"net_pay"`
	PaymentStatus       PaymentStatus   `json:"payment_status"`
	PaymentMethod       *PaymentMethod  `json:"payment_method,omitempty"`
	PaymentNotes        *string         `json:"payment_notes,omitempty"`
	PaidAt              *string         `json:"paid_at,omitempty"`
	PaidBy              *string         `json:"paid_by,omitempty"`
	GeneratedAt         string          `json:"generated_at"`
}

func NewBulletinResponse(b Bulletin) BulletinResponse {
	return BulletinResponse{
		ID:                  b.ID,
		PayRunID:            b.PayRunID,
		EmployeeID:          b.EmployeeID,
		ContractType:        string(b.ContractType),
		PayRate:             b.PayRate,
		ScheduledDays:       b.ScheduledDays,
		UnpaidAbsenceDays:   b.UnpaidAbsenceDays,
		WorkedHours:         b.WorkedHours,
		LateMinutes:         b.LateMinutes,
		EarlyLeaveMinutes:   b.EarlyLeaveMinutes,
		OvertimeMinutes:     b.OvertimeMinutes,
		BasePay:             b.BasePay,
		OvertimePay:         b.OvertimePay,
		AbsenceDeduction:    b.AbsenceDeduction,
		LateDeduction:       b.LateDeduction,
		EarlyLeaveDeduction: b.EarlyLeaveDeduction,
		GrossPay:            b.GrossPay,
		TotalDeductions:     b.TotalDeductions,
		NetPay:              b.NetPay,
		PaymentStatus:       b.PaymentStatus,
		PaymentMethod:       b.PaymentMethod,
		PaymentNotes:        b.PaymentNotes,
		PaidAt:              formatTime(b.PaidAt),
		PaidBy:              b.PaidBy,
		GeneratedAt:         b.GeneratedAt.Format(time.RFC3339),
	}
}

// ========== POLICY DTOs ==========

type PolicyResponse struct {
	CompanyID                    string          `json:"company_id"`
	AbsenceDeductionEnabled      bool            `json:"absence_deduction_enabled"`
	LateDeductionEnabled         bool            `json:"late_deduction_enabled"`
	LateDeductionPerMinute       decimal.Decimal `json:"late_deduction_per_minute"`
	EarlyLeaveDeductionEnabled   bool            `json:"early_leave_deduction_enabled"`
	EarlyLeaveDeductionPerMinute decimal.Decimal `json:"early_leave_deduction_per_minute"`
	OvertimeEnabled              bool            `json:"overtime_enabled"`
	OvertimePayPerMinute         decimal.Decimal `json:"overtime_pay_per_minute"`
}

func NewPolicyResponse(p Policy) PolicyResponse {
	return PolicyResponse{
		CompanyID:                    p.CompanyID,
		AbsenceDeductionEnabled:      p.AbsenceDeductionEnabled,
		LateDeductionEnabled:         p.LateDeductionEnabled,
		LateDeductionPerMinute:       p.LateDeductionPerMinute,
		EarlyLeaveDeductionEnabled:   p.EarlyLeaveDeductionEnabled,
		EarlyLeaveDeductionPerMinute: p.EarlyLeaveDeductionPerMinute,
		OvertimeEnabled:              p.OvertimeEnabled,
		OvertimePayPerMinute:         p.OvertimePayPerMinute,
	}
}

type UpdatePolicyRequest struct {
	AbsenceDeductionEnabled      *bool            `json:"absence_deduction_enabled,omitempty"`
	LateDeductionEnabled         *bool            `json:"late_deduction_enabled,omitempty"`
	LateDeductionPerMinute       *decimal.Decimal `json:"late_deduction_per_minute,omitempty"`
	EarlyLeaveDeductionEnabled   *bool            `json:"early_leave_deduction_enabled,omitempty"`
	EarlyLeaveDeductionPerMinute *decimal.Decimal `json:"early_leave_deduction_per_minute,omitempty"`
	OvertimeEnabled              *bool            `json:"overtime_enabled,omitempty"`
	OvertimePayPerMinute         *decimal.Decimal `json:"overtime_pay_per_minute,omitempty"`
}

func (r *UpdatePolicyRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.LateDeductionPerMinute != nil && r.LateDeductionPerMinute.IsNegative() {
		errs.Add("late_deduction_per_minute", "must be non-negative")
	}
	if r.OvertimePayPerMinute != nil && r.OvertimePayPerMinute.IsNegative() {
		errs.Add("overtime_pay_per_minute", "must be non-negative")
	}
	if r.EarlyLeaveDeductionPerMinute != nil && r.EarlyLeaveDeductionPerMinute.IsNegative() {
		errs.Add("early_leave_deduction_per_minute", "must be non-negative")
	}

	return errs.Err()
}

// Apply merges the non-nil fields into p.
func (r UpdatePolicyRequest) Apply(p Policy) Policy {
	if r.AbsenceDeductionEnabled != nil {
		p.AbsenceDeductionEnabled = *r.AbsenceDeductionEnabled
	}
	if r.LateDeductionEnabled != nil {
		p.LateDeductionEnabled = *r.LateDeductionEnabled
	}
	if r.LateDeductionPerMinute != nil {
		p.LateDeductionPerMinute = *r.LateDeductionPerMinute
	}
	if r.EarlyLeaveDeductionEnabled != nil {
		p.EarlyLeaveDeductionEnabled = *r.EarlyLeaveDeductionEnabled
	}
	if r.EarlyLeaveDeductionPerMinute != nil {
		p.EarlyLeaveDeductionPerMinute = *r.EarlyLeaveDeductionPerMinute
	}
	if r.OvertimeEnabled != nil {
		p.OvertimeEnabled = *r.OvertimeEnabled
	}
	if r.OvertimePayPerMinute != nil {
		p.OvertimePayPerMinute = *r.OvertimePayPerMinute
	}
	return p
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
