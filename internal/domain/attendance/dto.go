package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// CHECK-IN / CHECK-OUT DTOs
// ========================================

// EventRequest is the body of both check-in and check-out.
type EventRequest struct {
	EmployeeID string   `json:"employee_id"`
	Timestamp  *string  `json:"timestamp,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	DeviceInfo *string  `json:"device_info,omitempty"`
}

func (r *EventRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	} else if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}

	if r.Timestamp != nil {
		if _, ok := validator.IsValidDateTime(*r.Timestamp); !ok {
			errs.Add("timestamp", "timestamp must be an RFC3339 date-time")
		}
	}

	errs = append(errs, ValidateCoordinates(r.Latitude, r.Longitude)...)

	if r.DeviceInfo != nil && len(*r.DeviceInfo) > 255 {
		errs.Add("device_info", "device_info must not exceed 255 characters")
	}

	return errs.Err()
}

// At returns the event time, defaulting to now when the client sent none.
func (r EventRequest) At(now time.Time) time.Time {
	if r.Timestamp != nil {
		if t, ok := validator.IsValidDateTime(*r.Timestamp); ok {
			return t
		}
	}
	return now
}

func (r EventRequest) Capture() Capture {
	return NewCapture(r.Latitude, r.Longitude, r.DeviceInfo)
}

// NewCapture keeps a location only when both coordinates are present.
func NewCapture(lat, lng *float64, deviceInfo *string) Capture {
	c := Capture{DeviceInfo: deviceInfo}
	if lat != nil && lng != nil {
		c.Location = &Location{Latitude: *lat, Longitude: *lng}
	}
	return c
}

// ValidateCoordinates requires latitude and longitude together and within range.
func ValidateCoordinates(lat, lng *float64) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if (lat == nil) != (lng == nil) {
		errs.Add("location", "latitude and longitude must be provided together")
		return errs
	}
	if lat != nil && (*lat < -90 || *lat > 90) {
		errs.Add("latitude", "latitude must be between -90 and 90")
	}
	if lng != nil && (*lng < -180 || *lng > 180) {
		errs.Add("longitude", "longitude must be between -180 and 180")
	}
	return errs
}

type CheckInResponse struct {
	Record      RecordResponse `json:"attendance_record"`
	CheckInTime string         `json:"check_in_time"`
}

type CheckOutResponse struct {
	Record       RecordResponse `json:"attendance_record"`
	CheckOutTime string         `json:"check_out_time"`
	Status       Status         `json:"status"`
}

// ========================================
// VALIDATION (ADMIN OVERRIDE) DTOs
// ========================================

type ValidateRecordRequest struct {
	Status  string  `json:"status"`
	Tag     *string `json:"tag,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

func (r *ValidateRecordRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, err := ParseStatus(r.Status); err != nil {
		errs.Add("status", "status must be one of PRESENT, LATE, EARLY_DEPARTURE, ABSENT, ON_LEAVE, SICK, OTHER")
	}
	if r.Tag != nil {
		if _, err := ParseTag(*r.Tag); err != nil {
			errs.Add("tag", "tag must be one of NORMAL, JUSTIFIED_LATE, JUSTIFIED_EARLY_DEPARTURE, OVERTIME, NIGHT_SHIFT, HOLIDAY")
		}
	}
	if r.Comment != nil && len(*r.Comment) > 1000 {
		errs.Add("comment", "comment must not exceed 1000 characters")
	}

	return errs.Err()
}

// ========================================
// LIST DTOs
// ========================================

type ListRecordsRequest struct {
	EmployeeID *string
	From       *string
	To         *string
}

func (r *ListRecordsRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EmployeeID != nil && !validator.IsValidUUID(*r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}
	var from, to time.Time
	var fromOK, toOK bool
	if r.From != nil {
		if from, fromOK = validator.IsValidDate(*r.From); !fromOK {
			errs.Add("from", "from must be YYYY-MM-DD")
		}
	}
	if r.To != nil {
		if to, toOK = validator.IsValidDate(*r.To); !toOK {
			errs.Add("to", "to must be YYYY-MM-DD")
		}
	}
	if fromOK && toOK && to.Before(from) {
		errs.Add("to", "to must not be before from")
	}

	return errs.Err()
}

func (r ListRecordsRequest) Filter(companyID string) RecordFilter {
	f := RecordFilter{CompanyID: companyID, EmployeeID: r.EmployeeID}
	if r.From != nil {
		if t, ok := validator.IsValidDate(*r.From); ok {
			f.From = &t
		}
	}
	if r.To != nil {
		if t, ok := validator.IsValidDate(*r.To); ok {
			f.To = &t
		}
	}
	return f
}

// ========================================
// RULE DTOs
// ========================================

type GeofenceRequest struct {
	Latitude     float64 `json:"latitude" validate:"latitude"`
	Longitude    float64 `json:"longitude" validate:"longitude"`
	RadiusMeters float64 `json:"radius_meters" validate:"gt=0,lte=100000"`
	Enforce      bool    `json:"enforce"`
}

type UpsertRuleRequest struct {
	Timezone                       string           `json:"timezone" validate:"required,tzname"`
	ScheduledStart                 string           `json:"scheduled_start" validate:"required,timeofday"`
	ScheduledEnd                   string           `json:"scheduled_end" validate:"required,timeofday"`
	LateToleranceMinutes           int              `json:"late_tolerance_minutes" validate:"gte=0,lte=240"`
	EarlyDepartureToleranceMinutes int              `json:"early_departure_tolerance_minutes" validate:"gte=0,lte=240"`
	WorkingWeekdays                []int            `json:"working_weekdays" validate:"min=1,max=7,unique,dive,gte=0,lte=6"`
	ExpectedHoursPerDay            decimal.Decimal  `json:"expected_hours_per_day"`
	OvertimeAllowed                bool             `json:"overtime_allowed"`
	OvertimeThresholdMinutes       int              `json:"overtime_threshold_minutes" validate:"gte=0,lte=720"`
	LunchBreakMinutes              int              `json:"lunch_break_minutes" validate:"gte=0,lte=240"`
	IsFlexible                     bool             `json:"is_flexible"`
	FlexWindowStart                *string          `json:"flex_window_start,omitempty" validate:"omitempty,timeofday"`
	FlexWindowEnd                  *string          `json:"flex_window_end,omitempty" validate:"omitempty,timeofday"`
	Holidays                       []string         `json:"holidays" validate:"dive,datetime=2006-01-02"`
	Office                         *GeofenceRequest `json:"office,omitempty"`
}

func (r *UpsertRuleRequest) Validate() error {
	errs := validator.Struct(r)

	if r.ExpectedHoursPerDay.LessThanOrEqual(decimal.Zero) || r.ExpectedHoursPerDay.GreaterThan(decimal.NewFromInt(24)) {
		errs.Add("expected_hours_per_day", "expected_hours_per_day must be greater than 0 and at most 24")
	}

	if r.IsFlexible {
		if r.FlexWindowStart == nil || r.FlexWindowEnd == nil {
			errs.Add("flex_window", "flex_window_start and flex_window_end are required for a flexible schedule")
		} else if validator.IsValidTimeOfDay(*r.FlexWindowStart) && validator.IsValidTimeOfDay(*r.FlexWindowEnd) &&
			*r.FlexWindowEnd <= *r.FlexWindowStart {
			errs.Add("flex_window", "flex_window_end must be after flex_window_start")
		}
	} else if r.ScheduledStart == r.ScheduledEnd && r.ScheduledStart != "" {
		errs.Add("scheduled_end", "scheduled_end must differ from scheduled_start")
	}

	return errs.Err()
}

// ToRule assumes Validate passed.
func (r UpsertRuleRequest) ToRule(companyID string, updatedBy string, now time.Time) (Rule, error) {
	start, err := ParseTimeOfDay(r.ScheduledStart)
	if err != nil {
		return Rule{}, err
	}
	end, err := ParseTimeOfDay(r.ScheduledEnd)
	if err != nil {
		return Rule{}, err
	}

	rule := Rule{
		CompanyID:                      companyID,
		Timezone:                       r.Timezone,
		ScheduledStart:                 start,
		ScheduledEnd:                   end,
		LateToleranceMinutes:           r.LateToleranceMinutes,
		EarlyDepartureToleranceMinutes: r.EarlyDepartureToleranceMinutes,
		ExpectedHoursPerDay:            r.ExpectedHoursPerDay,
		OvertimeAllowed:                r.OvertimeAllowed,
		OvertimeThresholdMinutes:       r.OvertimeThresholdMinutes,
		LunchBreakMinutes:              r.LunchBreakMinutes,
		IsFlexible:                     r.IsFlexible,
		UpdatedBy:                      &updatedBy,
		UpdatedAt:                      now,
	}

	for _, wd := range r.WorkingWeekdays {
		rule.WorkingWeekdays = append(rule.WorkingWeekdays, time.Weekday(wd))
	}

	if r.IsFlexible && r.FlexWindowStart != nil && r.FlexWindowEnd != nil {
		ws, err := ParseTimeOfDay(*r.FlexWindowStart)
		if err != nil {
			return Rule{}, err
		}
		we, err := ParseTimeOfDay(*r.FlexWindowEnd)
		if err != nil {
			return Rule{}, err
		}
		rule.FlexWindow = &FlexWindow{Start: ws, End: we}
	}

	for _, h := range r.Holidays {
		d, ok := validator.IsValidDate(h)
		if !ok {
			continue
		}
		rule.Holidays = append(rule.Holidays, d)
	}

	if r.Office != nil {
		rule.Office = &Geofence{
			Latitude:     r.Office.Latitude,
			Longitude:    r.Office.Longitude,
			RadiusMeters: r.Office.RadiusMeters,
			Enforce:      r.Office.Enforce,
		}
	}

	return rule, nil
}

type RuleResponse struct {
	CompanyID                      string           `json:"company_id"`
	Timezone                       string           `json:"timezone"`
	ScheduledStart                 string           `json:"scheduled_start"`
	ScheduledEnd                   string           `json:"scheduled_end"`
	LateToleranceMinutes           int              `json:"late_tolerance_minutes"`
	EarlyDepartureToleranceMinutes int              `json:"early_departure_tolerance_minutes"`
	WorkingWeekdays                []int            `json:"working_weekdays"`
	ExpectedHoursPerDay            decimal.Decimal  `json:"expected_hours_per_day"`
	OvertimeAllowed                bool             `json:"overtime_allowed"`
	OvertimeThresholdMinutes       int              `json:"overtime_threshold_minutes"`
	LunchBreakMinutes              int              `json:"lunch_break_minutes"`
	IsFlexible                     bool             `json:"is_flexible"`
	FlexWindowStart                *string          `json:"flex_window_start,omitempty"`
	FlexWindowEnd                  *string          `json:"flex_window_end,omitempty"`
	Holidays                       []string         `json:"holidays"`
	Office                         *GeofenceRequest `json:"office,omitempty"`
	UpdatedAt                      *string          `json:"updated_at,omitempty"`
}

func NewRuleResponse(rule Rule) RuleResponse {
	resp := RuleResponse{
		CompanyID:                      rule.CompanyID,
		Timezone:                       rule.Timezone,
		ScheduledStart:                 rule.ScheduledStart.String(),
		ScheduledEnd:                   rule.ScheduledEnd.String(),
		LateToleranceMinutes:           rule.LateToleranceMinutes,
		EarlyDepartureToleranceMinutes: rule.EarlyDepartureToleranceMinutes,
		WorkingWeekdays:                make([]int, 0, len(rule.WorkingWeekdays)),
		ExpectedHoursPerDay:            rule.ExpectedHoursPerDay,
		OvertimeAllowed:                rule.OvertimeAllowed,
		OvertimeThresholdMinutes:       rule.OvertimeThresholdMinutes,
		LunchBreakMinutes:              rule.LunchBreakMinutes,
		IsFlexible:                     rule.IsFlexible,
		Holidays:                       make([]string, 0, len(rule.Holidays)),
	}
	for _, wd := range rule.WorkingWeekdays {
		resp.WorkingWeekdays = append(resp.WorkingWeekdays, int(wd))
	}
	for _, h := range rule.Holidays {
		resp.Holidays = append(resp.Holidays, h.Format("2006-01-02"))
	}
	if rule.FlexWindow != nil {
		s, e := rule.FlexWindow.Start.String(), rule.FlexWindow.End.String()
		resp.FlexWindowStart, resp.FlexWindowEnd = &s, &e
	}
	if rule.Office != nil {
		resp.Office = &GeofenceRequest{
			Latitude:     rule.Office.Latitude,
			Longitude:    rule.Office.Longitude,
			RadiusMeters: rule.Office.RadiusMeters,
			Enforce:      rule.Office.Enforce,
		}
	}
	if !rule.UpdatedAt.IsZero() {
		u := rule.UpdatedAt.Format(time.RFC3339)
		resp.UpdatedAt = &u
	}
	return resp
}

// ========================================
// RECORD RESPONSE
// ========================================

type RecordResponse struct {
	ID                     string          `json:"id"`
	EmployeeID             string          `json:"employee_id"`
	Date                   string          `json:"date"`
	CheckInTime            *string         `json:"check_in_time"`
	CheckOutTime           *string         `json:"check_out_time"`
	Status                 Status          `json:"status"`
	Tag                    Tag             `json:"tag"`
	Comment                *string         `json:"comment,omitempty"`
	LateMinutes            int             `json:"late_minutes"`
	EarlyLeaveMinutes      int             `json:"early_leave_minutes"`
	OvertimeMinutes        int             `json:"overtime_minutes"`
	WorkedHours            decimal.Decimal `json:"worked_hours"`
	CheckInLocation        *Location       `json:"check_in_location,omitempty"`
	CheckOutLocation       *Location       `json:"check_out_location,omitempty"`
	CheckInDistanceMeters  *float64        `json:"check_in_distance_meters,omitempty"`
	CheckOutDistanceMeters *float64        `json:"check_out_distance_meters,omitempty"`
	DeviceInfo             *string         `json:"device_info,omitempty"`
	ValidatedBy            *string         `json:"validated_by,omitempty"`
	ValidatedAt            *string         `json:"validated_at,omitempty"`
}

func NewRecordResponse(rec Record) RecordResponse {
	return RecordResponse{
		ID:                     rec.ID,
		EmployeeID:             rec.EmployeeID,
		Date:                   rec.Date.Format("2006-01-02"),
		CheckInTime:            timePtrToString(rec.ArrivalAt),
		CheckOutTime:           timePtrToString(rec.DepartureAt),
		Status:                 rec.Status,
		Tag:                    rec.Tag,
		Comment:                rec.Comment,
		LateMinutes:            rec.LateMinutes,
		EarlyLeaveMinutes:      rec.EarlyLeaveMinutes,
		OvertimeMinutes:        rec.OvertimeMinutes,
		WorkedHours:            rec.WorkedHours(),
		CheckInLocation:        rec.ArrivalLocation,
		CheckOutLocation:       rec.DepartureLocation,
		CheckInDistanceMeters:  rec.ArrivalDistanceMeters,
		CheckOutDistanceMeters: rec.DepartureDistanceMeters,
		DeviceInfo:             rec.DeviceInfo,
		ValidatedBy:            rec.ValidatedBy,
		ValidatedAt:            timePtrToString(rec.ValidatedAt),
	}
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
