package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/utils"
)

type AttendanceServiceImpl struct {
	records   attendance.RecordRepository
	employees employee.EmployeeRepository
	rules     attendance.RuleService
	clock     clock.Clock
}

func NewAttendanceService(
	records attendance.RecordRepository,
	employees employee.EmployeeRepository,
	rules attendance.RuleService,
	clk clock.Clock,
) attendance.RecordService {
	return &AttendanceServiceImpl{
		records:   records,
		employees: employees,
		rules:     rules,
		clock:     clk,
	}
}

// CheckIn implements attendance.RecordService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, actor identity.Actor, employeeID string, at time.Time, capture attendance.Capture) (attendance.Record, error) {
	emp, err := s.loadEmployee(ctx, actor.CompanyID, employeeID)
	if err != nil {
		return attendance.Record{}, err
	}

	rule, err := s.rules.GetRule(ctx, emp.CompanyID)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to get attendance rule: %w", err)
	}

	distance, err := measureGeofence(rule, capture)
	if err != nil {
		return attendance.Record{}, err
	}

	date := rule.ShiftDate(at)
	outcome := attendance.EvaluateArrival(rule, date, at, attendance.StatusPresent)
	now := s.clock.Now()

	rec := attendance.Record{
		CompanyID:             emp.CompanyID,
		EmployeeID:            emp.ID,
		Date:                  date,
		ArrivalAt:             &at,
		Status:                outcome.Status,
		Tag:                   outcome.Tag,
		LateMinutes:           outcome.LateMinutes,
		ArrivalLocation:       capture.Location,
		ArrivalDistanceMeters: distance,
		DeviceInfo:            capture.DeviceInfo,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	saved, err := s.records.CheckIn(ctx, rec)
	if err != nil {
		if errors.Is(err, attendance.ErrAlreadyCheckedIn) {
			return attendance.Record{}, err
		}
		return attendance.Record{}, fmt.Errorf("failed to check in: %w", err)
	}

	slog.InfoContext(ctx, "attendance check-in",
		"employee_id", saved.EmployeeID,
		"date", saved.Date.Format("2006-01-02"),
		"status", saved.Status,
		"late_minutes", saved.LateMinutes,
		"actor_id", actor.UserID,
	)
	return saved, nil
}

// CheckOut implements attendance.RecordService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, actor identity.Actor, employeeID string, at time.Time, capture attendance.Capture) (attendance.Record, error) {
	emp, err := s.loadEmployee(ctx, actor.CompanyID, employeeID)
	if err != nil {
		return attendance.Record{}, err
	}

	rule, err := s.rules.GetRule(ctx, emp.CompanyID)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to get attendance rule: %w", err)
	}

	rec, err := s.openRecord(ctx, rule, emp.ID, attendance.DateOf(at, rule.Location()))
	if err != nil {
		return attendance.Record{}, err
	}
	if at.Before(*rec.ArrivalAt) {
		return attendance.Record{}, attendance.ErrDepartureTooEarly
	}

	distance, err := measureGeofence(rule, capture)
	if err != nil {
		return attendance.Record{}, err
	}

	outcome := attendance.EvaluateDeparture(rule, rec, at)

	rec.DepartureAt = &at
	rec.DepartureLocation = capture.Location
	rec.DepartureDistanceMeters = distance
	rec.DeviceInfo = capture.DeviceInfo
	// An administrator's validation outranks the computed status.
	if rec.ValidatedBy == nil {
		rec.Status = outcome.Status
	}
	rec.Tag = outcome.Tag
	rec.EarlyLeaveMinutes = outcome.EarlyLeaveMinutes
	rec.OvertimeMinutes = outcome.OvertimeMinutes
	rec.WorkedMinutes = outcome.WorkedMinutes
	rec.UpdatedAt = s.clock.Now()

	saved, err := s.records.CheckOut(ctx, rec)
	if err != nil {
		if errors.Is(err, attendance.ErrAlreadyCheckedOut) || errors.Is(err, attendance.ErrNoCheckInFound) {
			return attendance.Record{}, err
		}
		return attendance.Record{}, fmt.Errorf("failed to check out: %w", err)
	}

	slog.InfoContext(ctx, "attendance check-out",
		"employee_id", saved.EmployeeID,
		"date", saved.Date.Format("2006-01-02"),
		"status", saved.Status,
		"tag", saved.Tag,
		"worked_minutes", saved.WorkedMinutes,
		"actor_id", actor.UserID,
	)
	return saved, nil
}

// openRecord finds the record a check-out closes. Night shifts may close the previous day's record.
func (s *AttendanceServiceImpl) openRecord(ctx context.Context, rule attendance.Rule, employeeID string, date time.Time) (attendance.Record, error) {
	dates := []time.Time{date}
	if rule.CrossesMidnight() {
		dates = append(dates, date.AddDate(0, 0, -1))
	}

	var closed bool
	for _, d := range dates {
		rec, err := s.records.GetByEmployeeAndDate(ctx, employeeID, d)
		if err != nil {
			if errors.Is(err, attendance.ErrRecordNotFound) {
				continue
			}
			return attendance.Record{}, fmt.Errorf("failed to get attendance record: %w", err)
		}
		if !rec.HasArrival() {
			continue
		}
		if rec.HasDeparture() {
			closed = true
			continue
		}
		return rec, nil
	}

	if closed {
		return attendance.Record{}, attendance.ErrAlreadyCheckedOut
	}
	return attendance.Record{}, attendance.ErrNoCheckInFound
}

// GetOrCreateForAbsence implements attendance.RecordService.
func (s *AttendanceServiceImpl) GetOrCreateForAbsence(ctx context.Context, companyID, employeeID string, date time.Time, status attendance.Status) (attendance.Record, error) {
	if !status.IsLeave() {
		return attendance.Record{}, attendance.ErrInvalidStatus
	}

	now := s.clock.Now()
	rec, err := s.records.UpsertLeave(ctx, attendance.Record{
		CompanyID:  companyID,
		EmployeeID: employeeID,
		Date:       date,
		Status:     status,
		Tag:        attendance.TagNormal,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to upsert leave record: %w", err)
	}
	return rec, nil
}

// Validate implements attendance.RecordService.
func (s *AttendanceServiceImpl) Validate(ctx context.Context, actor identity.Actor, recordID string, req attendance.ValidateRecordRequest) (attendance.Record, error) {
	if err := req.Validate(); err != nil {
		return attendance.Record{}, err
	}

	rec, err := s.records.GetByID(ctx, actor.CompanyID, recordID)
	if err != nil {
		return attendance.Record{}, err
	}

	status, _ := attendance.ParseStatus(req.Status)
	tag := rec.Tag
	if req.Tag != nil {
		tag, _ = attendance.ParseTag(*req.Tag)
	}

	saved, err := s.records.Override(ctx, rec.ID, status, tag, req.Comment, actor.UserID, s.clock.Now())
	if err != nil {
		if errors.Is(err, attendance.ErrRecordNotFound) {
			return attendance.Record{}, err
		}
		return attendance.Record{}, fmt.Errorf("failed to validate attendance record: %w", err)
	}

	slog.InfoContext(ctx, "attendance record validated",
		"record_id", saved.ID,
		"previous_status", rec.Status,
		"status", saved.Status,
		"tag", saved.Tag,
		"validator_id", actor.UserID,
	)
	return saved, nil
}

func (s *AttendanceServiceImpl) GetByID(ctx context.Context, actor identity.Actor, recordID string) (attendance.Record, error) {
	return s.records.GetByID(ctx, actor.CompanyID, recordID)
}

func (s *AttendanceServiceImpl) List(ctx context.Context, actor identity.Actor, req attendance.ListRecordsRequest) ([]attendance.Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	records, err := s.records.List(ctx, req.Filter(actor.CompanyID))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	return records, nil
}

func (s *AttendanceServiceImpl) loadEmployee(ctx context.Context, companyID, employeeID string) (employee.Employee, error) {
	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.Employee{}, err
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if emp.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	if !emp.IsActive() {
		return employee.Employee{}, employee.ErrEmployeeInactive
	}
	return emp, nil
}

// measureGeofence returns the distance to the office when the rule defines one.
func measureGeofence(rule attendance.Rule, capture attendance.Capture) (*float64, error) {
	if rule.Office == nil {
		return nil, nil
	}
	if capture.Location == nil {
		if rule.Office.Enforce {
			return nil, attendance.ErrLocationRequired
		}
		return nil, nil
	}

	d := utils.CalculateHaversineDistance(
		capture.Location.Latitude, capture.Location.Longitude,
		rule.Office.Latitude, rule.Office.Longitude,
	)
	if rule.Office.Enforce && d > rule.Office.RadiusMeters {
		return nil, attendance.ErrOutsideGeofence
	}
	return &d, nil
}
