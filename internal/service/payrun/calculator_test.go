package payrun

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/absence"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/payrun"
	"github.com/cmlabs-hris/attendance-engine/internal/fixtures"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

// March 2 to 27, 2026 is four full Monday-Friday weeks: 20 working days.
func marchRun() payrun.PayRun {
	return payrun.PayRun{
		ID:          "run-1",
		CompanyID:   "company-1",
		PeriodStart: day(2),
		PeriodEnd:   day(27),
		Status:      payrun.StatusDraft,
	}
}

func worker(contract employee.ContractType, rate int64) employee.Employee {
	return employee.Employee{
		ID:               "emp-1",
		CompanyID:        "company-1",
		HireDate:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EmploymentStatus: employee.EmploymentStatusActive,
		ContractType:     contract,
		PayRate:          decimal.NewFromInt(rate),
	}
}

func absentOn(d int) attendance.Record {
	return attendance.Record{EmployeeID: "emp-1", Date: day(d), Status: attendance.StatusAbsent}
}

func unjustified(from, to int) absence.Absence {
	return absence.Absence{
		EmployeeID: "emp-1",
		Type:       absence.TypeUnjustified,
		StartDate:  day(from),
		EndDate:    day(to),
		Status:     absence.StatusApproved,
	}
}

func input(emp employee.Employee, records []attendance.Record, absences []absence.Absence) BulletinInput {
	return BulletinInput{
		PayRun:   marchRun(),
		Employee: emp,
		Rule:     fixtures.DefaultAttendanceRule("company-1"),
		Policy:   payrun.DefaultPolicy("company-1"),
		Records:  records,
		Absences: absences,
		Now:      day(28),
	}
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestCalculateBulletin_DailyRate(t *testing.T) {
	b, err := CalculateBulletin(input(
		worker(employee.ContractDailyRate, 10_000),
		[]attendance.Record{absentOn(10)},
		[]absence.Absence{unjustified(12, 12)},
	))
	require.NoError(t, err)

	assert.Equal(t, 20, b.ScheduledDays)
	assert.Equal(t, 2, b.UnpaidAbsenceDays)
	assertMoney(t, "180000", b.GrossPay, "gross")
	assertMoney(t, "180000", b.NetPay, "net")
	assertMoney(t, "0", b.TotalDeductions, "deductions")
	assert.Equal(t, payrun.PaymentPending, b.PaymentStatus)
}

func TestCalculateBulletin_UnpaidDaysAreCountedOnce(t *testing.T) {
	b, err := CalculateBulletin(input(
		worker(employee.ContractDailyRate, 10_000),
		[]attendance.Record{absentOn(10), absentOn(12)},
		// Covers the weekend of the 14th and 15th, which is never scheduled.
		[]absence.Absence{unjustified(12, 16)},
	))
	require.NoError(t, err)

	// 10, 12, 13, 16
	assert.Equal(t, 4, b.UnpaidAbsenceDays)
	assertMoney(t, "160000", b.GrossPay, "gross")
}

func TestCalculateBulletin_PaidAbsenceDoesNotReducePay(t *testing.T) {
	leave := unjustified(3, 5)
	leave.Type = absence.TypeAnnualLeave

	b, err := CalculateBulletin(input(worker(employee.ContractDailyRate, 10_000), nil, []absence.Absence{leave}))
	require.NoError(t, err)
	assert.Equal(t, 0, b.UnpaidAbsenceDays)
	assertMoney(t, "200000", b.GrossPay, "gross")
}

func TestCalculateBulletin_FixedSalary(t *testing.T) {
	t.Run("absence deduction", func(t *testing.T) {
		b, err := CalculateBulletin(input(
			worker(employee.ContractFixedSalary, 4_000_000),
			[]attendance.Record{absentOn(10), absentOn(11)},
			nil,
		))
		require.NoError(t, err)
		assertMoney(t, "4000000", b.GrossPay, "gross")
		assertMoney(t, "400000", b.AbsenceDeduction, "absence deduction")
		assertMoney(t, "3600000", b.NetPay, "net")
	})

	t.Run("deduction disabled", func(t *testing.T) {
		in := input(worker(employee.ContractFixedSalary, 4_000_000), []attendance.Record{absentOn(10)}, nil)
		in.Policy.AbsenceDeductionEnabled = false

		b, err := CalculateBulletin(in)
		require.NoError(t, err)
		assertMoney(t, "4000000", b.NetPay, "net")
	})

	t.Run("rounded to cents", func(t *testing.T) {
		in := input(worker(employee.ContractFixedSalary, 1_000_000), []attendance.Record{absentOn(10)}, nil)
		in.PayRun.PeriodEnd = day(30) // 21 working days

		b, err := CalculateBulletin(in)
		require.NoError(t, err)
		assert.Equal(t, 21, b.ScheduledDays)
		assertMoney(t, "47619.05", b.AbsenceDeduction, "absence deduction")
		assertMoney(t, "952380.95", b.NetPay, "net")
	})
}

func TestCalculateBulletin_HourlyRate(t *testing.T) {
	records := []attendance.Record{
		{EmployeeID: "emp-1", Date: day(2), Status: attendance.StatusPresent, WorkedMinutes: 480},
		{EmployeeID: "emp-1", Date: day(3), Status: attendance.StatusLate, WorkedMinutes: 450, LateMinutes: 30},
	}

	b, err := CalculateBulletin(input(worker(employee.ContractHourlyRate, 50_000), records, nil))
	require.NoError(t, err)
	assertMoney(t, "15.5", b.WorkedHours, "worked hours")
	assertMoney(t, "775000", b.GrossPay, "gross")
	assert.Equal(t, 30, b.LateMinutes)
	// Late deductions are opt-in.
	assertMoney(t, "0", b.LateDeduction, "late deduction")
}

func TestCalculateBulletin_PolicyAdjustments(t *testing.T) {
	records := []attendance.Record{
		{EmployeeID: "emp-1", Date: day(2), Status: attendance.StatusLate, WorkedMinutes: 540, LateMinutes: 20, OvertimeMinutes: 60},
		{EmployeeID: "emp-1", Date: day(3), Status: attendance.StatusEarlyDeparture, WorkedMinutes: 420, EarlyLeaveMinutes: 45},
	}
	in := input(worker(employee.ContractDailyRate, 10_000), records, nil)
	in.Policy.LateDeductionEnabled = true
	in.Policy.LateDeductionPerMinute = decimal.NewFromInt(100)
	in.Policy.EarlyLeaveDeductionEnabled = true
	in.Policy.EarlyLeaveDeductionPerMinute = decimal.NewFromInt(50)
	in.Policy.OvertimeEnabled = true
	in.Policy.OvertimePayPerMinute = decimal.RequireFromString("250.5")

	b, err := CalculateBulletin(in)
	require.NoError(t, err)
	assertMoney(t, "200000", b.BasePay, "base")
	assertMoney(t, "15030", b.OvertimePay, "overtime")
	assertMoney(t, "215030", b.GrossPay, "gross")
	assertMoney(t, "2000", b.LateDeduction, "late")
	assertMoney(t, "2250", b.EarlyLeaveDeduction, "early leave")
	assertMoney(t, "4250", b.TotalDeductions, "deductions")
	assertMoney(t, "210780", b.NetPay, "net")
}

func TestCalculateBulletin_NetNeverNegative(t *testing.T) {
	records := []attendance.Record{
		{EmployeeID: "emp-1", Date: day(2), Status: attendance.StatusLate, LateMinutes: 400},
	}
	in := input(worker(employee.ContractHourlyRate, 1_000), records, nil)
	in.Policy.LateDeductionEnabled = true
	in.Policy.LateDeductionPerMinute = decimal.NewFromInt(1_000)

	b, err := CalculateBulletin(in)
	require.NoError(t, err)
	assertMoney(t, "0", b.GrossPay, "gross")
	assertMoney(t, "0", b.TotalDeductions, "deductions")
	assertMoney(t, "0", b.NetPay, "net")
}

func TestCalculateBulletin_HiredMidPeriod(t *testing.T) {
	emp := worker(employee.ContractDailyRate, 10_000)
	emp.HireDate = day(16)

	b, err := CalculateBulletin(input(emp, []attendance.Record{absentOn(10)}, nil))
	require.NoError(t, err)
	assert.Equal(t, 10, b.ScheduledDays)
	// The absence before the hire date is not a scheduled day.
	assert.Equal(t, 0, b.UnpaidAbsenceDays)
	assertMoney(t, "100000", b.GrossPay, "gross")
}

func TestCalculateBulletin_Errors(t *testing.T) {
	_, err := CalculateBulletin(input(worker(employee.ContractDailyRate, 0), nil, nil))
	assert.ErrorIs(t, err, payrun.ErrEmployeeHasNoPayRate)

	_, err = CalculateBulletin(input(worker("COMMISSION", 10_000), nil, nil))
	assert.ErrorIs(t, err, payrun.ErrUnsupportedContractType)
}
