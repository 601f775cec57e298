package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const ruleColumns = `
	company_id, timezone, scheduled_start, scheduled_end,
	late_tolerance_minutes, early_departure_tolerance_minutes,
	working_weekdays, expected_hours_per_day,
	overtime_allowed, overtime_threshold_minutes, lunch_break_minutes,
	is_flexible, flex_start, flex_end, holidays,
	office_latitude, office_longitude, office_radius_meters, office_enforce,
	updated_by, updated_at`

type ruleRepositoryImpl struct {
	db *database.DB
}

func NewRuleRepository(db *database.DB) attendance.RuleRepository {
	return &ruleRepositoryImpl{db: db}
}

func scanRule(row rowScanner) (attendance.Rule, error) {
	var (
		rule               attendance.Rule
		start, end         int
		weekdays           []int32
		flexStart, flexEnd *int
		officeLat          *float64
		officeLng          *float64
		officeRadius       *float64
		officeEnforce      bool
	)
	err := row.Scan(
		&rule.CompanyID, &rule.Timezone, &start, &end,
		&rule.LateToleranceMinutes, &rule.EarlyDepartureToleranceMinutes,
		&weekdays, &rule.ExpectedHoursPerDay,
		&rule.OvertimeAllowed, &rule.OvertimeThresholdMinutes, &rule.LunchBreakMinutes,
		&rule.IsFlexible, &flexStart, &flexEnd, &rule.Holidays,
		&officeLat, &officeLng, &officeRadius, &officeEnforce,
		&rule.UpdatedBy, &rule.UpdatedAt,
	)
	if err != nil {
		return attendance.Rule{}, err
	}

	rule.ScheduledStart = attendance.TimeOfDay(start)
	rule.ScheduledEnd = attendance.TimeOfDay(end)
	rule.WorkingWeekdays = make([]time.Weekday, len(weekdays))
	for i, d := range weekdays {
		rule.WorkingWeekdays[i] = time.Weekday(d)
	}
	if flexStart != nil && flexEnd != nil {
		rule.FlexWindow = &attendance.FlexWindow{Start: attendance.TimeOfDay(*flexStart), End: attendance.TimeOfDay(*flexEnd)}
	}
	if officeLat != nil && officeLng != nil && officeRadius != nil {
		rule.Office = &attendance.Geofence{
			Latitude:     *officeLat,
			Longitude:    *officeLng,
			RadiusMeters: *officeRadius,
			Enforce:      officeEnforce,
		}
	}
	return rule, nil
}

// GetByCompanyID implements attendance.RuleRepository.
func (r *ruleRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string) (attendance.Rule, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + ruleColumns + ` FROM attendance_rules WHERE company_id = $1`

	rule, err := scanRule(q.QueryRow(ctx, query, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isBadReference(err) {
			return attendance.Rule{}, attendance.ErrRuleNotFound
		}
		return attendance.Rule{}, fmt.Errorf("failed to get attendance rule: %w", err)
	}
	return rule, nil
}

// ListCompanyIDs implements attendance.RuleRepository. Companies without a stored rule still
// run on the default one, so employers are listed too.
func (r *ruleRepositoryImpl) ListCompanyIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT company_id::text FROM attendance_rules
		UNION
		SELECT DISTINCT company_id::text FROM employees WHERE employment_status = 'active' AND deleted_at IS NULL
		ORDER BY 1
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan company ids: %w", err)
	}
	return ids, nil
}

// Upsert implements attendance.RuleRepository.
func (r *ruleRepositoryImpl) Upsert(ctx context.Context, rule attendance.Rule) (attendance.Rule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_rules (` + ruleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (company_id) DO UPDATE SET
			timezone = EXCLUDED.timezone,
			scheduled_start = EXCLUDED.scheduled_start,
			scheduled_end = EXCLUDED.scheduled_end,
			late_tolerance_minutes = EXCLUDED.late_tolerance_minutes,
			early_departure_tolerance_minutes = EXCLUDED.early_departure_tolerance_minutes,
			working_weekdays = EXCLUDED.working_weekdays,
			expected_hours_per_day = EXCLUDED.expected_hours_per_day,
			overtime_allowed = EXCLUDED.overtime_allowed,
			overtime_threshold_minutes = EXCLUDED.overtime_threshold_minutes,
			lunch_break_minutes = EXCLUDED.lunch_break_minutes,
			is_flexible = EXCLUDED.is_flexible,
			flex_start = EXCLUDED.flex_start,
			flex_end = EXCLUDED.flex_end,
			holidays = EXCLUDED.holidays,
			office_latitude = EXCLUDED.office_latitude,
			office_longitude = EXCLUDED.office_longitude,
			office_radius_meters = EXCLUDED.office_radius_meters,
			office_enforce = EXCLUDED.office_enforce,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + ruleColumns

	weekdays := make([]int32, len(rule.WorkingWeekdays))
	for i, d := range rule.WorkingWeekdays {
		weekdays[i] = int32(d)
	}
	holidays := rule.Holidays
	if holidays == nil {
		holidays = []time.Time{}
	}

	var flexStart, flexEnd *int
	if rule.FlexWindow != nil {
		s, e := int(rule.FlexWindow.Start), int(rule.FlexWindow.End)
		flexStart, flexEnd = &s, &e
	}
	var officeLat, officeLng, officeRadius *float64
	officeEnforce := false
	if rule.Office != nil {
		officeLat, officeLng, officeRadius = &rule.Office.Latitude, &rule.Office.Longitude, &rule.Office.RadiusMeters
		officeEnforce = rule.Office.Enforce
	}

	saved, err := scanRule(q.QueryRow(ctx, query,
		rule.CompanyID, rule.Timezone, int(rule.ScheduledStart), int(rule.ScheduledEnd),
		rule.LateToleranceMinutes, rule.EarlyDepartureToleranceMinutes,
		weekdays, rule.ExpectedHoursPerDay,
		rule.OvertimeAllowed, rule.OvertimeThresholdMinutes, rule.LunchBreakMinutes,
		rule.IsFlexible, flexStart, flexEnd, holidays,
		officeLat, officeLng, officeRadius, officeEnforce,
		rule.UpdatedBy, rule.UpdatedAt,
	))
	if err != nil {
		return attendance.Rule{}, fmt.Errorf("failed to save attendance rule: %w", err)
	}
	return saved, nil
}
