package attendance

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent        Status = "PRESENT"
	StatusLate           Status = "LATE"
	StatusEarlyDeparture Status = "EARLY_DEPARTURE"
	StatusAbsent         Status = "ABSENT"
	StatusOnLeave        Status = "ON_LEAVE"
	StatusSick           Status = "SICK"
	StatusOther          Status = "OTHER"
)

var AllStatuses = []Status{
	StatusPresent, StatusLate, StatusEarlyDeparture, StatusAbsent, StatusOnLeave, StatusSick, StatusOther,
}

func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown attendance status %q", s)
}

// IsSticky reports whether arrival/departure classification must leave the status alone.
func (s Status) IsSticky() bool {
	switch s {
	case StatusAbsent, StatusOnLeave, StatusSick, StatusOther:
		return true
	default:
		return false
	}
}

// IsLeave reports whether the status comes from an approved absence.
func (s Status) IsLeave() bool {
	return s == StatusOnLeave || s == StatusSick
}

func StickyStatuses() []string {
	var out []string
	for _, st := range AllStatuses {
		if st.IsSticky() {
			out = append(out, string(st))
		}
	}
	return out
}

type Tag string

const (
	TagNormal                  Tag = "NORMAL"
	TagJustifiedLate           Tag = "JUSTIFIED_LATE"
	TagJustifiedEarlyDeparture Tag = "JUSTIFIED_EARLY_DEPARTURE"
	TagOvertime                Tag = "OVERTIME"
	TagNightShift              Tag = "NIGHT_SHIFT"
	TagHoliday                 Tag = "HOLIDAY"
)

var AllTags = []Tag{
	TagNormal, TagJustifiedLate, TagJustifiedEarlyDeparture, TagOvertime, TagNightShift, TagHoliday,
}

func ParseTag(s string) (Tag, error) {
	for _, tg := range AllTags {
		if string(tg) == s {
			return tg, nil
		}
	}
	return "", fmt.Errorf("unknown attendance tag %q", s)
}

type Direction string

const (
	DirectionCheckIn  Direction = "CHECK_IN"
	DirectionCheckOut Direction = "CHECK_OUT"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionCheckIn, DirectionCheckOut:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("unknown scan direction %q", s)
	}
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Capture is the optional client metadata attached to a check-in, check-out or scan.
type Capture struct {
	Location   *Location
	DeviceInfo *string
}

// Record is the single attendance row of one employee for one calendar date.
type Record struct {
	ID         string
	CompanyID  string
	EmployeeID string
	// Civil date at UTC midnight; the rule's timezone decides which date a timestamp belongs to.
	Date time.Time

	ArrivalAt   *time.Time
	DepartureAt *time.Time
	Status      Status
	Tag         Tag
	Comment     *string

	LateMinutes       int
	EarlyLeaveMinutes int
	OvertimeMinutes   int
	WorkedMinutes     int

	ArrivalLocation         *Location
	DepartureLocation       *Location
	ArrivalDistanceMeters   *float64
	DepartureDistanceMeters *float64
	DeviceInfo              *string

	ValidatedBy *string
	ValidatedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Record) HasArrival() bool   { return r.ArrivalAt != nil }
func (r Record) HasDeparture() bool { return r.DepartureAt != nil }

func (r Record) WorkedHours() decimal.Decimal {
	return decimal.NewFromInt(int64(r.WorkedMinutes)).Div(decimal.NewFromInt(60)).Round(2)
}

// DateOf returns the civil date of t in loc, normalised to UTC midnight.
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CeilMinutes rounds a positive duration up to whole minutes; non-positive durations give 0.
func CeilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}
