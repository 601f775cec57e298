package fixtures

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

var weekdaysMonToFri = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// ==========================================
// STANDARD OFFICE HOURS
// ==========================================

// DefaultAttendanceRule is used for a company that never configured its own rule:
// Mon-Fri 09:00-18:00, one hour lunch, 15 minutes tolerance both ways, 8 expected hours.
func DefaultAttendanceRule(companyID string) attendance.Rule {
	return attendance.Rule{
		CompanyID:                      companyID,
		Timezone:                       "UTC",
		ScheduledStart:                 9 * 60,
		ScheduledEnd:                   18 * 60,
		LateToleranceMinutes:           15,
		EarlyDepartureToleranceMinutes: 15,
		WorkingWeekdays:                append([]time.Weekday(nil), weekdaysMonToFri...),
		ExpectedHoursPerDay:            decimal.NewFromInt(8),
		OvertimeAllowed:                true,
		OvertimeThresholdMinutes:       60,
		LunchBreakMinutes:              60,
	}
}

// ==========================================
// NIGHT/OVERNIGHT SHIFT
// ==========================================

// NightShiftAttendanceRule is Mon-Fri 22:00-06:00 next day.
func NightShiftAttendanceRule(companyID string) attendance.Rule {
	r := DefaultAttendanceRule(companyID)
	r.ScheduledStart = 22 * 60
	r.ScheduledEnd = 6 * 60
	r.ExpectedHoursPerDay = decimal.NewFromInt(7)
	return r
}

// ==========================================
// FLEXIBLE/WFA
// ==========================================

// FlexibleAttendanceRule accepts any arrival between 07:00 and 10:00 with a more lenient tolerance.
func FlexibleAttendanceRule(companyID string) attendance.Rule {
	r := DefaultAttendanceRule(companyID)
	r.ScheduledStart = 8 * 60
	r.ScheduledEnd = 17 * 60
	r.LateToleranceMinutes = 30
	r.IsFlexible = true
	r.FlexWindow = &attendance.FlexWindow{Start: 7 * 60, End: 10 * 60}
	return r
}
