package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
)

type AttendanceJobs struct {
	recordRepo   attendance.RecordRepository
	ruleRepo     attendance.RuleRepository
	ruleService  attendance.RuleService
	employeeRepo employee.EmployeeRepository
	clock        clock.Clock
}

func NewAttendanceJobs(
	recordRepo attendance.RecordRepository,
	ruleRepo attendance.RuleRepository,
	ruleService attendance.RuleService,
	employeeRepo employee.EmployeeRepository,
	clk clock.Clock,
) *AttendanceJobs {
	return &AttendanceJobs{
		recordRepo:   recordRepo,
		ruleRepo:     ruleRepo,
		ruleService:  ruleService,
		employeeRepo: employeeRepo,
		clock:        clk,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("mark_absent_employees", interval, j.MarkAbsentEmployees)
}

// MarkAbsentEmployees writes an ABSENT record for every active employee without a record
// on the previous working day of each company. Existing records, including approved
// leave, are never touched, so running it repeatedly is harmless.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	slog.Info("Cron: Starting mark absent employees job")

	companyIDs, err := j.ruleRepo.ListCompanyIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get companies: %w", err)
	}

	now := j.clock.Now()
	totalAbsent := 0

	for _, companyID := range companyIDs {
		rule, err := j.ruleService.GetRule(ctx, companyID)
		if err != nil {
			slog.Error("Cron: Failed to get attendance rule", "company_id", companyID, "error", err)
			continue
		}

		yesterday := attendance.DateOf(now, rule.Location()).AddDate(0, 0, -1)
		if !rule.IsWorkingDay(yesterday) {
			continue
		}

		marked, err := j.markAbsent(ctx, companyID, yesterday, now)
		if err != nil {
			slog.Error("Cron: Failed to mark absences", "company_id", companyID, "error", err)
			continue
		}
		totalAbsent += marked
	}

	slog.Info("Cron: Marked absent employees", "count", totalAbsent)
	return nil
}

func (j *AttendanceJobs) markAbsent(ctx context.Context, companyID string, date, now time.Time) (int, error) {
	employees, err := j.employeeRepo.ListActiveByCompany(ctx, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to get employees: %w", err)
	}

	marked := 0
	for _, emp := range employees {
		if !emp.HiredBy(date) {
			continue
		}

		created, err := j.recordRepo.CreateIfMissing(ctx, attendance.Record{
			CompanyID:  companyID,
			EmployeeID: emp.ID,
			Date:       date,
			Status:     attendance.StatusAbsent,
			Tag:        attendance.TagNormal,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return marked, fmt.Errorf("failed to create absent record for employee %s: %w", emp.ID, err)
		}
		if created {
			marked++
		}
	}
	return marked, nil
}
