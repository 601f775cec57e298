package payrun

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/shopspring/decimal"
)

// Policy is the company's payroll configuration. All adjustments are opt-in except the
// fixed-salary unpaid absence deduction.
type Policy struct {
	CompanyID                    string
	AbsenceDeductionEnabled      bool
	LateDeductionEnabled         bool
	LateDeductionPerMinute       decimal.Decimal
	EarlyLeaveDeductionEnabled   bool
	EarlyLeaveDeductionPerMinute decimal.Decimal
	OvertimeEnabled              bool
	OvertimePayPerMinute         decimal.Decimal
	UpdatedAt                    time.Time
}

func DefaultPolicy(companyID string) Policy {
	return Policy{
		CompanyID:               companyID,
		AbsenceDeductionEnabled: true,
	}
}

// Status enum
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusGenerated       Status = "GENERATED"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusCompleted       Status = "COMPLETED"
	StatusCancelled       Status = "CANCELLED"
)

func ParseDecision(s string) (Status, error) {
	switch Status(s) {
	case StatusApproved, StatusRejected, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown pay run decision %q", s)
	}
}

// transitions lists, per target status, the states it may be entered from.
var transitions = map[Status][]Status{
	StatusGenerated:       {StatusDraft},
	StatusPendingApproval: {StatusGenerated},
	StatusApproved:        {StatusPendingApproval},
	StatusCompleted:       {StatusApproved},
	StatusRejected:        {StatusGenerated, StatusPendingApproval, StatusApproved},
	StatusCancelled:       {StatusGenerated, StatusPendingApproval, StatusApproved},
}

// AllowedFrom returns the states the given status can be entered from.
func AllowedFrom(to Status) []Status {
	return transitions[to]
}

func (s Status) CanTransition(to Status) bool {
	for _, from := range transitions[to] {
		if from == s {
			return true
		}
	}
	return false
}

func (s Status) AcceptsPayments() bool {
	return s == StatusApproved || s == StatusCompleted
}

type Totals struct {
	Gross         decimal.Decimal
	Net           decimal.Decimal
	Deductions    decimal.Decimal
	EmployeeCount int
}

// SumTotals is the only way totals are computed: an exact decimal sum over bulletins.
func SumTotals(bulletins []Bulletin) Totals {
	t := Totals{Gross: decimal.Zero, Net: decimal.Zero, Deductions: decimal.Zero}
	for _, b := range bulletins {
		t.Gross = t.Gross.Add(b.GrossPay)
		t.Net = t.Net.Add(b.NetPay)
		t.Deductions = t.Deductions.Add(b.TotalDeductions)
	}
	t.EmployeeCount = len(bulletins)
	return t
}

type PayRun struct {
	ID          string
	CompanyID   string
	Reference   string
	PeriodStart time.Time
	PeriodEnd   time.Time
	PaymentDate time.Time
	Status      Status
	Totals      Totals
	Notes       *string

	CreatedBy   string
	GeneratedAt *time.Time
	SubmittedAt *time.Time
	DecidedBy   *string
	DecidedAt   *time.Time
	CompletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentMethodBankTransfer, PaymentMethodCash, PaymentMethodCheck, PaymentMethodMobileMoney:
		return PaymentMethod(s), nil
	default:
		return "", fmt.Errorf("unknown payment method %q", s)
	}
}

// Bulletin is one employee's computed pay line within a pay run.
type Bulletin struct {
	ID           string
	PayRunID     string
	CompanyID    string
	EmployeeID   string
	ContractType employee.ContractType
	PayRate      decimal.Decimal

	ScheduledDays     int
	UnpaidAbsenceDays int
	WorkedHours       decimal.Decimal
	LateMinutes       int
	EarlyLeaveMinutes int
	OvertimeMinutes   int

	BasePay             decimal.Decimal
	OvertimePay         decimal.Decimal
	AbsenceDeduction    decimal.Decimal
	LateDeduction       decimal.Decimal
	EarlyLeaveDeduction decimal.Decimal

	GrossPay        decimal.Decimal
	TotalDeductions decimal.Decimal
	NetPay          decimal.Decimal

	PaymentStatus PaymentStatus
	PaymentMethod *PaymentMethod
	PaymentNotes  *string
	PaidAt        *time.Time
	PaidBy        *string

	GeneratedAt time.Time
}

type Payment struct {
	Method PaymentMethod
	Notes  *string
	PaidBy string
	PaidAt time.Time
}

// PaymentResult is one item of a ProcessPayments call.
type PaymentResult struct {
	BulletinID string  `json:"bulletin_id"`
	Success    bool    `json:"success"`
	Error      *string `json:"error,omitempty"`
}
