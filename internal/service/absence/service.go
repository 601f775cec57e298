package absence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/absence"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type AbsenceServiceImpl struct {
	tx        database.Transactor
	absences  absence.AbsenceRepository
	employees employee.EmployeeRepository
	records   attendance.RecordService
	rules     attendance.RuleService
	clock     clock.Clock
}

func NewAbsenceService(
	tx database.Transactor,
	absences absence.AbsenceRepository,
	employees employee.EmployeeRepository,
	records attendance.RecordService,
	rules attendance.RuleService,
	clk clock.Clock,
) absence.Workflow {
	return &AbsenceServiceImpl{
		tx:        tx,
		absences:  absences,
		employees: employees,
		records:   records,
		rules:     rules,
		clock:     clk,
	}
}

// Request implements absence.Workflow.
func (s *AbsenceServiceImpl) Request(ctx context.Context, actor identity.Actor, req absence.CreateAbsenceRequest) (absence.Absence, error) {
	if err := req.Validate(); err != nil {
		return absence.Absence{}, err
	}

	start, end := req.Range()
	if end.Before(start) {
		return absence.Absence{}, absence.ErrInvalidRange
	}

	emp, err := s.employees.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return absence.Absence{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if emp.CompanyID != actor.CompanyID {
		return absence.Absence{}, employee.ErrEmployeeNotFound
	}

	rule, err := s.rules.GetRule(ctx, emp.CompanyID)
	if err != nil {
		return absence.Absence{}, fmt.Errorf("failed to get attendance rule: %w", err)
	}

	workingDays := len(rule.WorkingDaysBetween(start, end))
	if workingDays == 0 {
		return absence.Absence{}, absence.ErrNoWorkingDays
	}

	absenceType, _ := absence.ParseType(req.Type)
	now := s.clock.Now()

	var created absence.Absence
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		overlaps, err := s.absences.HasOverlap(ctx, emp.ID, start, end)
		if err != nil {
			return fmt.Errorf("failed to check overlapping absences: %w", err)
		}
		if overlaps {
			return absence.ErrOverlappingAbsence
		}

		created, err = s.absences.Create(ctx, absence.Absence{
			CompanyID:   emp.CompanyID,
			EmployeeID:  emp.ID,
			Type:        absenceType,
			StartDate:   start,
			EndDate:     end,
			Reason:      req.Reason,
			Status:      absence.StatusPending,
			WorkingDays: workingDays,
			Hours:       rule.ExpectedHoursPerDay.Mul(decimal.NewFromInt(int64(workingDays))),
			RequestedBy: actor.UserID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("failed to create absence: %w", err)
		}
		return nil
	})
	if err != nil {
		return absence.Absence{}, err
	}

	slog.InfoContext(ctx, "absence requested",
		"absence_id", created.ID,
		"employee_id", created.EmployeeID,
		"type", created.Type,
		"working_days", created.WorkingDays,
	)
	return created, nil
}

// Decide implements absence.Workflow. Approval writes a leave status on every covered
// working day in the same transaction as the status change.
func (s *AbsenceServiceImpl) Decide(ctx context.Context, actor identity.Actor, absenceID string, req absence.DecideAbsenceRequest) (absence.Absence, error) {
	if err := req.Validate(); err != nil {
		return absence.Absence{}, err
	}
	to, _ := absence.ParseDecision(req.Status)

	current, err := s.absences.GetByID(ctx, actor.CompanyID, absenceID)
	if err != nil {
		return absence.Absence{}, err
	}
	if !current.Status.CanTransition(to) {
		return absence.Absence{}, absence.ErrInvalidTransition
	}

	var decided absence.Absence
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		decided, err = s.absences.Decide(ctx, current.ID, absence.Decision{
			Status:    to,
			DecidedBy: actor.UserID,
			DecidedAt: s.clock.Now(),
			Comment:   req.Comment,
		})
		if err != nil {
			if errors.Is(err, absence.ErrInvalidTransition) {
				return err
			}
			return fmt.Errorf("failed to decide absence: %w", err)
		}

		if decided.Status != absence.StatusApproved {
			return nil
		}
		return s.applyToAttendance(ctx, decided)
	})
	if err != nil {
		return absence.Absence{}, err
	}

	slog.InfoContext(ctx, "absence decided",
		"absence_id", decided.ID,
		"employee_id", decided.EmployeeID,
		"status", decided.Status,
		"decided_by", actor.UserID,
	)
	return decided, nil
}

func (s *AbsenceServiceImpl) applyToAttendance(ctx context.Context, a absence.Absence) error {
	rule, err := s.rules.GetRule(ctx, a.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to get attendance rule: %w", err)
	}

	status := a.Type.AttendanceStatus()
	for _, day := range rule.WorkingDaysBetween(a.StartDate, a.EndDate) {
		if _, err := s.records.GetOrCreateForAbsence(ctx, a.CompanyID, a.EmployeeID, day, status); err != nil {
			return fmt.Errorf("failed to mark %s as %s: %w", day.Format("2006-01-02"), status, err)
		}
	}
	return nil
}

func (s *AbsenceServiceImpl) GetByID(ctx context.Context, actor identity.Actor, absenceID string) (absence.Absence, error) {
	return s.absences.GetByID(ctx, actor.CompanyID, absenceID)
}
