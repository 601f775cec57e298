package attendance

import (
	"slices"
	"time"
)

// ========== ATTENDANCE RULE EVALUATOR ==========
// Pure classification. Rule validity is checked when the rule is written, not here.

type ArrivalClass string

const (
	ArrivalPresent ArrivalClass = "PRESENT"
	ArrivalLate    ArrivalClass = "LATE"
)

type DepartureClass string

const (
	DepartureNormal         DepartureClass = "NORMAL"
	DepartureEarlyDeparture DepartureClass = "EARLY_DEPARTURE"
)

// Window is a flexible-schedule arrival window resolved to instants.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ClassifyArrival: a flexible arrival inside the window is PRESENT whatever the scheduled start;
// otherwise PRESENT iff arrival <= scheduledStart + tolerance.
func ClassifyArrival(scheduledStart time.Time, tolerance time.Duration, arrival time.Time, isFlexible bool, flexWindow *Window) ArrivalClass {
	if isFlexible && flexWindow != nil && flexWindow.Contains(arrival) {
		return ArrivalPresent
	}
	if !arrival.After(scheduledStart.Add(tolerance)) {
		return ArrivalPresent
	}
	return ArrivalLate
}

func ClassifyDeparture(scheduledEnd time.Time, tolerance time.Duration, departure time.Time) DepartureClass {
	if departure.Before(scheduledEnd.Add(-tolerance)) {
		return DepartureEarlyDeparture
	}
	return DepartureNormal
}

func ClassifyOvertime(hoursWorked, expectedHours, threshold time.Duration, overtimeAllowed bool) Tag {
	if overtimeAllowed && hoursWorked-expectedHours >= threshold {
		return TagOvertime
	}
	return TagNormal
}

// IsWorkingDay compares civil dates; holidays match on year, month and day only.
func IsWorkingDay(date time.Time, workingWeekdays []time.Weekday, holidays []time.Time) bool {
	if !slices.Contains(workingWeekdays, date.Weekday()) {
		return false
	}
	y, m, d := date.Date()
	for _, h := range holidays {
		hy, hm, hd := h.Date()
		if hy == y && hm == m && hd == d {
			return false
		}
	}
	return true
}

// ResolveStatus collapses the arrival and departure signals into one status.
// Precedence: approved absence (ON_LEAVE, SICK) and other sticky statuses, then LATE,
// then EARLY_DEPARTURE, then PRESENT.
func ResolveStatus(current Status, arrival ArrivalClass, departure DepartureClass) Status {
	if current.IsSticky() {
		return current
	}
	if arrival == ArrivalLate {
		return StatusLate
	}
	if departure == DepartureEarlyDeparture {
		return StatusEarlyDeparture
	}
	return StatusPresent
}

// ResolveTag picks the day tag: HOLIDAY, then OVERTIME, then NIGHT_SHIFT, then NORMAL.
// Justified tags are only ever set by an administrator and survive reclassification.
func ResolveTag(current Tag, workingDay bool, overtime Tag, nightShift bool) Tag {
	if current == TagJustifiedLate || current == TagJustifiedEarlyDeparture {
		return current
	}
	switch {
	case !workingDay:
		return TagHoliday
	case overtime == TagOvertime:
		return TagOvertime
	case nightShift:
		return TagNightShift
	default:
		return TagNormal
	}
}

// ========== DAY CLASSIFICATION ==========

// ArrivalOutcome is what a check-in writes on the record.
type ArrivalOutcome struct {
	Class       ArrivalClass
	Status      Status
	Tag         Tag
	LateMinutes int
}

// EvaluateArrival classifies an arrival on the record's date under rule.
func EvaluateArrival(rule Rule, date time.Time, arrival time.Time, current Status) ArrivalOutcome {
	start := rule.StartOn(date)
	var window *Window
	if rule.IsFlexible && rule.FlexWindow != nil {
		loc := rule.Location()
		window = &Window{Start: rule.FlexWindow.Start.On(date, loc), End: rule.FlexWindow.End.On(date, loc)}
	}

	class := ClassifyArrival(start, time.Duration(rule.LateToleranceMinutes)*time.Minute, arrival, rule.IsFlexible, window)

	out := ArrivalOutcome{
		Class:  class,
		Status: ResolveStatus(current, class, DepartureNormal),
		Tag:    ResolveTag(TagNormal, rule.IsWorkingDay(date), TagNormal, rule.CrossesMidnight()),
	}
	if class == ArrivalLate {
		// Always >= 1 for a late arrival, so LateMinutes > 0 identifies a late arrival later on.
		out.LateMinutes = CeilMinutes(arrival.Sub(start))
	}
	return out
}

// DepartureOutcome is what a check-out writes on the record.
type DepartureOutcome struct {
	Class             DepartureClass
	Status            Status
	Tag               Tag
	EarlyLeaveMinutes int
	OvertimeMinutes   int
	WorkedMinutes     int
}

// EvaluateDeparture finalises a record that already has an arrival.
// For flexible rules the expected end is arrival + expected hours + lunch break.
func EvaluateDeparture(rule Rule, rec Record, departure time.Time) DepartureOutcome {
	arrival := *rec.ArrivalAt

	span := departure.Sub(arrival)
	worked := span
	if span > rule.LunchBreak() {
		worked = span - rule.LunchBreak()
	}
	if worked < 0 {
		worked = 0
	}

	end := rule.EndOn(rec.Date)
	if rule.IsFlexible {
		end = arrival.Add(rule.ExpectedDuration() + rule.LunchBreak())
	}

	class := ClassifyDeparture(end, time.Duration(rule.EarlyDepartureToleranceMinutes)*time.Minute, departure)

	arrivalClass := ArrivalPresent
	if rec.LateMinutes > 0 {
		arrivalClass = ArrivalLate
	}

	threshold := time.Duration(rule.OvertimeThresholdMinutes) * time.Minute
	overtime := ClassifyOvertime(worked, rule.ExpectedDuration(), threshold, rule.OvertimeAllowed)

	out := DepartureOutcome{
		Class:         class,
		Status:        ResolveStatus(rec.Status, arrivalClass, class),
		Tag:           ResolveTag(rec.Tag, rule.IsWorkingDay(rec.Date), overtime, rule.CrossesMidnight()),
		WorkedMinutes: int(worked / time.Minute),
	}
	if class == DepartureEarlyDeparture {
		out.EarlyLeaveMinutes = CeilMinutes(end.Sub(departure))
	}
	if overtime == TagOvertime {
		out.OvertimeMinutes = int((worked - rule.ExpectedDuration()) / time.Minute)
	}
	return out
}
