package payrun

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/absence"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/payrun"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

var sixty = decimal.NewFromInt(60)

// BulletinInput is everything one employee's bulletin depends on.
type BulletinInput struct {
	PayRun   payrun.PayRun
	Employee employee.Employee
	Rule     attendance.Rule
	Policy   payrun.Policy
	// Records and Absences are pre-filtered to this employee and the pay run period.
	Records  []attendance.Record
	Absences []absence.Absence
	Now      time.Time
}

// CalculateBulletin is a pure function of its input.
func CalculateBulletin(in BulletinInput) (payrun.Bulletin, error) {
	emp := in.Employee
	if !emp.PayRate.IsPositive() {
		return payrun.Bulletin{}, fmt.Errorf("employee %s: %w", emp.ID, payrun.ErrEmployeeHasNoPayRate)
	}

	from := in.PayRun.PeriodStart
	if emp.HireDate.After(from) {
		from = emp.HireDate
	}
	scheduled := in.Rule.WorkingDaysBetween(from, in.PayRun.PeriodEnd)
	unpaid := unpaidDays(in.Rule, scheduled, in.Records, in.Absences)

	b := payrun.Bulletin{
		PayRunID:          in.PayRun.ID,
		CompanyID:         in.PayRun.CompanyID,
		EmployeeID:        emp.ID,
		ContractType:      emp.ContractType,
		PayRate:           emp.PayRate,
		ScheduledDays:     len(scheduled),
		UnpaidAbsenceDays: unpaid,
		PaymentStatus:     payrun.PaymentPending,
		GeneratedAt:       in.Now,
	}

	workedMinutes := 0
	for _, rec := range in.Records {
		workedMinutes += rec.WorkedMinutes
		b.LateMinutes += rec.LateMinutes
		b.EarlyLeaveMinutes += rec.EarlyLeaveMinutes
		b.OvertimeMinutes += rec.OvertimeMinutes
	}
	worked := decimal.NewFromInt(int64(workedMinutes)).Div(sixty)
	b.WorkedHours = worked.Round(moneyPlaces)

	b.AbsenceDeduction = decimal.Zero
	switch emp.ContractType {
	case employee.ContractFixedSalary:
		b.BasePay = emp.PayRate
		if in.Policy.AbsenceDeductionEnabled && b.ScheduledDays > 0 && unpaid > 0 {
			b.AbsenceDeduction = emp.PayRate.
				Mul(decimal.NewFromInt(int64(unpaid))).
				Div(decimal.NewFromInt(int64(b.ScheduledDays)))
		}
	case employee.ContractDailyRate:
		paidDays := max(b.ScheduledDays-unpaid, 0)
		b.BasePay = emp.PayRate.Mul(decimal.NewFromInt(int64(paidDays)))
	case employee.ContractHourlyRate:
		b.BasePay = emp.PayRate.Mul(worked)
	default:
		return payrun.Bulletin{}, fmt.Errorf("employee %s contract %q: %w", emp.ID, emp.ContractType, payrun.ErrUnsupportedContractType)
	}

	b.OvertimePay = decimal.Zero
	if in.Policy.OvertimeEnabled {
		b.OvertimePay = decimal.NewFromInt(int64(b.OvertimeMinutes)).Mul(in.Policy.OvertimePayPerMinute)
	}
	b.LateDeduction = decimal.Zero
	if in.Policy.LateDeductionEnabled {
		b.LateDeduction = decimal.NewFromInt(int64(b.LateMinutes)).Mul(in.Policy.LateDeductionPerMinute)
	}
	b.EarlyLeaveDeduction = decimal.Zero
	if in.Policy.EarlyLeaveDeductionEnabled {
		b.EarlyLeaveDeduction = decimal.NewFromInt(int64(b.EarlyLeaveMinutes)).Mul(in.Policy.EarlyLeaveDeductionPerMinute)
	}

	b.BasePay = b.BasePay.Round(moneyPlaces)
	b.OvertimePay = b.OvertimePay.Round(moneyPlaces)
	b.AbsenceDeduction = b.AbsenceDeduction.Round(moneyPlaces)
	b.LateDeduction = b.LateDeduction.Round(moneyPlaces)
	b.EarlyLeaveDeduction = b.EarlyLeaveDeduction.Round(moneyPlaces)

	b.GrossPay = b.BasePay.Add(b.OvertimePay)
	// Net pay never goes negative.
	b.TotalDeductions = decimal.Min(b.AbsenceDeduction.Add(b.LateDeduction).Add(b.EarlyLeaveDeduction), b.GrossPay)
	b.NetPay = b.GrossPay.Sub(b.TotalDeductions)

	return b, nil
}

// unpaidDays counts scheduled days that are ABSENT or covered by an approved unpaid absence.
// A day matching both is counted once.
func unpaidDays(rule attendance.Rule, scheduled []time.Time, records []attendance.Record, absences []absence.Absence) int {
	isScheduled := make(map[string]bool, len(scheduled))
	for _, d := range scheduled {
		isScheduled[dayKey(d)] = true
	}

	days := make(map[string]struct{})
	for _, rec := range records {
		if rec.Status == attendance.StatusAbsent && isScheduled[dayKey(rec.Date)] {
			days[dayKey(rec.Date)] = struct{}{}
		}
	}
	for _, a := range absences {
		if a.Type.IsPaid() {
			continue
		}
		for _, d := range rule.WorkingDaysBetween(a.StartDate, a.EndDate) {
			if isScheduled[dayKey(d)] {
				days[dayKey(d)] = struct{}{}
			}
		}
	}
	return len(days)
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
