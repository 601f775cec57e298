package attendance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TimeOfDay is a wall-clock time expressed in minutes since midnight.
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// On places t on the civil date in loc.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(t)/60, int(t)%60, 0, 0, loc)
}

type FlexWindow struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Geofence is an optional office location attendance captures are measured against.
type Geofence struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	Enforce      bool
}

// Rule is a company's attendance configuration. One per company; writes are last-write-wins.
type Rule struct {
	CompanyID string
	Timezone  string

	ScheduledStart TimeOfDay
	ScheduledEnd   TimeOfDay

	LateToleranceMinutes           int
	EarlyDepartureToleranceMinutes int

	WorkingWeekdays     []time.Weekday
	ExpectedHoursPerDay decimal.Decimal

	OvertimeAllowed          bool
	OvertimeThresholdMinutes int

	LunchBreakMinutes int

	IsFlexible bool
	FlexWindow *FlexWindow

	Holidays []time.Time
	Office   *Geofence

	UpdatedBy *string
	UpdatedAt time.Time
}

// Location falls back to UTC when the stored zone cannot be loaded.
func (r Rule) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CrossesMidnight is true for night shifts, whose end falls on the next calendar day.
func (r Rule) CrossesMidnight() bool {
	return !r.IsFlexible && r.ScheduledEnd <= r.ScheduledStart
}

func (r Rule) ExpectedDuration() time.Duration {
	minutes := r.ExpectedHoursPerDay.Mul(decimal.NewFromInt(60)).Round(0).IntPart()
	return time.Duration(minutes) * time.Minute
}

func (r Rule) LunchBreak() time.Duration {
	return time.Duration(r.LunchBreakMinutes) * time.Minute
}

// StartOn and EndOn give the scheduled shift boundaries for a civil date.
func (r Rule) StartOn(date time.Time) time.Time {
	return r.ScheduledStart.On(date, r.Location())
}

func (r Rule) EndOn(date time.Time) time.Time {
	end := r.ScheduledEnd.On(date, r.Location())
	if r.CrossesMidnight() {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// ShiftDate is the civil date of the shift an instant belongs to. On a night shift the hours
// after midnight and before the scheduled end belong to the previous day's shift.
func (r Rule) ShiftDate(at time.Time) time.Time {
	loc := r.Location()
	date := DateOf(at, loc)
	if r.CrossesMidnight() {
		local := at.In(loc)
		if TimeOfDay(local.Hour()*60+local.Minute()) < r.ScheduledEnd {
			return date.AddDate(0, 0, -1)
		}
	}
	return date
}

func (r Rule) IsWorkingDay(date time.Time) bool {
	return IsWorkingDay(date, r.WorkingWeekdays, r.Holidays)
}

// WorkingDaysBetween lists the working days in the inclusive civil-date range [from, to].
func (r Rule) WorkingDaysBetween(from, to time.Time) []time.Time {
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if r.IsWorkingDay(d) {
			days = append(days, d)
		}
	}
	return days
}
