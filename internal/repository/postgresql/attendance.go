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

const recordColumns = `
	id, company_id, employee_id, date, arrival_at, departure_at, status, tag, comment,
	late_minutes, early_leave_minutes, overtime_minutes, worked_minutes,
	arrival_latitude, arrival_longitude, departure_latitude, departure_longitude,
	arrival_distance_meters, departure_distance_meters, device_info,
	validated_by, validated_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (attendance.Record, error) {
	var (
		rec            attendance.Record
		arrLat, arrLng *float64
		depLat, depLng *float64
		status, tag    string
	)
	err := row.Scan(
		&rec.ID, &rec.CompanyID, &rec.EmployeeID, &rec.Date, &rec.ArrivalAt, &rec.DepartureAt, &status, &tag, &rec.Comment,
		&rec.LateMinutes, &rec.EarlyLeaveMinutes, &rec.OvertimeMinutes, &rec.WorkedMinutes,
		&arrLat, &arrLng, &depLat, &depLng,
		&rec.ArrivalDistanceMeters, &rec.DepartureDistanceMeters, &rec.DeviceInfo,
		&rec.ValidatedBy, &rec.ValidatedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return attendance.Record{}, err
	}
	rec.Status = attendance.Status(status)
	rec.Tag = attendance.Tag(tag)
	rec.ArrivalLocation = toLocation(arrLat, arrLng)
	rec.DepartureLocation = toLocation(depLat, depLng)
	return rec, nil
}

func toLocation(lat, lng *float64) *attendance.Location {
	if lat == nil || lng == nil {
		return nil
	}
	return &attendance.Location{Latitude: *lat, Longitude: *lng}
}

func fromLocation(loc *attendance.Location) (lat, lng *float64) {
	if loc == nil {
		return nil, nil
	}
	return &loc.Latitude, &loc.Longitude
}

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.RecordRepository {
	return &attendanceRepositoryImpl{db: db}
}

// CheckIn implements attendance.RecordRepository. The conditional upsert makes concurrent
// check-ins for the same day race on the unique (employee_id, date) index.
func (r *attendanceRepositoryImpl) CheckIn(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_records (
			company_id, employee_id, date, arrival_at, status, tag, late_minutes,
			arrival_latitude, arrival_longitude, arrival_distance_meters, device_info,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			arrival_at = EXCLUDED.arrival_at,
			late_minutes = EXCLUDED.late_minutes,
			tag = EXCLUDED.tag,
			arrival_latitude = EXCLUDED.arrival_latitude,
			arrival_longitude = EXCLUDED.arrival_longitude,
			arrival_distance_meters = EXCLUDED.arrival_distance_meters,
			device_info = EXCLUDED.device_info,
			status = CASE
				WHEN attendance_records.status = ANY($13::text[]) THEN attendance_records.status
				ELSE EXCLUDED.status
			END,
			updated_at = EXCLUDED.updated_at
		WHERE attendance_records.arrival_at IS NULL
		RETURNING ` + recordColumns

	lat, lng := fromLocation(rec.ArrivalLocation)
	saved, err := scanRecord(q.QueryRow(ctx, query,
		rec.CompanyID, rec.EmployeeID, rec.Date, rec.ArrivalAt, string(rec.Status), string(rec.Tag), rec.LateMinutes,
		lat, lng, rec.ArrivalDistanceMeters, rec.DeviceInfo,
		rec.UpdatedAt, attendance.StickyStatuses(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.Record{}, fmt.Errorf("failed to check in: %w", err)
	}
	return saved, nil
}

// CheckOut implements attendance.RecordRepository.
func (r *attendanceRepositoryImpl) CheckOut(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_records SET
			departure_at = $2,
			departure_latitude = $3,
			departure_longitude = $4,
			departure_distance_meters = $5,
			device_info = COALESCE($6, device_info),
			status = $7,
			tag = $8,
			early_leave_minutes = $9,
			overtime_minutes = $10,
			worked_minutes = $11,
			updated_at = $12
		WHERE id = $1 AND arrival_at IS NOT NULL AND departure_at IS NULL
		RETURNING ` + recordColumns

	lat, lng := fromLocation(rec.DepartureLocation)
	saved, err := scanRecord(q.QueryRow(ctx, query,
		rec.ID, rec.DepartureAt, lat, lng, rec.DepartureDistanceMeters, rec.DeviceInfo,
		string(rec.Status), string(rec.Tag), rec.EarlyLeaveMinutes, rec.OvertimeMinutes, rec.WorkedMinutes,
		rec.UpdatedAt,
	))
	if err == nil {
		return saved, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return attendance.Record{}, fmt.Errorf("failed to check out: %w", err)
	}

	var hasDeparture bool
	err = q.QueryRow(ctx, `SELECT departure_at IS NOT NULL FROM attendance_records WHERE id = $1`, rec.ID).Scan(&hasDeparture)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return attendance.Record{}, fmt.Errorf("failed to check out: %w", err)
	}
	if hasDeparture {
		return attendance.Record{}, attendance.ErrAlreadyCheckedOut
	}
	return attendance.Record{}, attendance.ErrNoCheckInFound
}

// UpsertLeave implements attendance.RecordRepository.
func (r *attendanceRepositoryImpl) UpsertLeave(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_records (company_id, employee_id, date, status, tag, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + recordColumns

	saved, err := scanRecord(q.QueryRow(ctx, query,
		rec.CompanyID, rec.EmployeeID, rec.Date, string(rec.Status), string(rec.Tag), rec.UpdatedAt,
	))
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to upsert leave day: %w", err)
	}
	return saved, nil
}

// CreateIfMissing implements attendance.RecordRepository.
func (r *attendanceRepositoryImpl) CreateIfMissing(ctx context.Context, rec attendance.Record) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_records (company_id, employee_id, date, status, tag, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (employee_id, date) DO NOTHING
	`

	tag, err := q.Exec(ctx, query, rec.CompanyID, rec.EmployeeID, rec.Date, string(rec.Status), string(rec.Tag), rec.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to create attendance record: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Override implements attendance.RecordRepository.
func (r *attendanceRepositoryImpl) Override(ctx context.Context, id string, status attendance.Status, tag attendance.Tag, comment *string, validatorID string, at time.Time) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_records SET
			status = $2,
			tag = $3,
			comment = COALESCE($4, comment),
			validated_by = $5,
			validated_at = $6,
			updated_at = $6
		WHERE id = $1
		RETURNING ` + recordColumns

	saved, err := scanRecord(q.QueryRow(ctx, query, id, string(status), string(tag), comment, validatorID, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isBadReference(err) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to validate attendance record: %w", err)
	}
	return saved, nil
}

// GetByID implements attendance.RecordRepository.
func (r *attendanceRepositoryImpl) GetByID(ctx context.Context, companyID, id string) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE id = $1 AND company_id = $2`

	rec, err := scanRecord(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isBadReference(err) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance record by ID: %w", err)
	}
	return rec, nil
}

// GetByEmployeeAndDate implements attendance.RecordRepository.
func (r *attendanceRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE employee_id = $1 AND date = $2`

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}
	return rec, nil
}

// List implements attendance.RecordRepository.
func (r *attendanceRepositoryImpl) List(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	where := "company_id = $1"
	args := []interface{}{filter.CompanyID}
	argIdx := 2

	if filter.EmployeeID != nil {
		where += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.From != nil {
		where += fmt.Sprintf(" AND date >= $%d", argIdx)
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		where += fmt.Sprintf(" AND date <= $%d", argIdx)
		args = append(args, *filter.To)
		argIdx++
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where += fmt.Sprintf(" AND status = ANY($%d::text[])", argIdx)
		args = append(args, statuses)
	}

	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE ` + where + ` ORDER BY date, employee_id`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance records: %w", err)
	}
	return records, nil
}
