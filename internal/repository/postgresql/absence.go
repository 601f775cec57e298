package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/absence"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const absenceColumns = `
	id, company_id, employee_id, type, start_date, end_date, reason, status,
	working_days, hours, requested_by, decided_by, decided_at, decision_comment,
	created_at, updated_at`

type absenceRepositoryImpl struct {
	db *database.DB
}

func NewAbsenceRepository(db *database.DB) absence.AbsenceRepository {
	return &absenceRepositoryImpl{db: db}
}

func scanAbsence(row rowScanner) (absence.Absence, error) {
	var (
		a           absence.Absence
		typ, status string
	)
	err := row.Scan(
		&a.ID, &a.CompanyID, &a.EmployeeID, &typ, &a.StartDate, &a.EndDate, &a.Reason, &status,
		&a.WorkingDays, &a.Hours, &a.RequestedBy, &a.DecidedBy, &a.DecidedAt, &a.DecisionComment,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return absence.Absence{}, err
	}
	a.Type = absence.Type(typ)
	a.Status = absence.Status(status)
	return a, nil
}

// Create implements absence.AbsenceRepository.
func (r *absenceRepositoryImpl) Create(ctx context.Context, a absence.Absence) (absence.Absence, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO absences (
			company_id, employee_id, type, start_date, end_date, reason, status,
			working_days, hours, requested_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING ` + absenceColumns

	saved, err := scanAbsence(q.QueryRow(ctx, query,
		a.CompanyID, a.EmployeeID, string(a.Type), a.StartDate, a.EndDate, a.Reason, string(a.Status),
		a.WorkingDays, a.Hours, a.RequestedBy, a.CreatedAt,
	))
	if err != nil {
		return absence.Absence{}, fmt.Errorf("failed to create absence: %w", err)
	}
	return saved, nil
}

// GetByID implements absence.AbsenceRepository.
func (r *absenceRepositoryImpl) GetByID(ctx context.Context, companyID, id string) (absence.Absence, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + absenceColumns + ` FROM absences WHERE id = $1 AND company_id = $2`

	a, err := scanAbsence(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isBadReference(err) {
			return absence.Absence{}, absence.ErrAbsenceNotFound
		}
		return absence.Absence{}, fmt.Errorf("failed to get absence by ID: %w", err)
	}
	return a, nil
}

// Decide implements absence.AbsenceRepository. The status guard in the WHERE clause lets
// exactly one of several concurrent deciders match the row.
func (r *absenceRepositoryImpl) Decide(ctx context.Context, id string, d absence.Decision) (absence.Absence, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE absences SET
			status = $2,
			decided_by = $3,
			decided_at = $4,
			decision_comment = $5,
			updated_at = $4
		WHERE id = $1 AND status = $6
		RETURNING ` + absenceColumns

	a, err := scanAbsence(q.QueryRow(ctx, query,
		id, string(d.Status), d.DecidedBy, d.DecidedAt, d.Comment, string(absence.StatusPending),
	))
	if err == nil {
		return a, nil
	}
	if isBadReference(err) {
		return absence.Absence{}, absence.ErrAbsenceNotFound
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return absence.Absence{}, fmt.Errorf("failed to decide absence: %w", err)
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM absences WHERE id = $1)`, id).Scan(&exists); err != nil {
		return absence.Absence{}, fmt.Errorf("failed to decide absence: %w", err)
	}
	if !exists {
		return absence.Absence{}, absence.ErrAbsenceNotFound
	}
	return absence.Absence{}, absence.ErrInvalidTransition
}

// HasOverlap implements absence.AbsenceRepository. Called inside a transaction, it takes a
// per-employee advisory lock held until commit so that check-then-insert cannot interleave.
func (r *absenceRepositoryImpl) HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, employeeID); err != nil {
		return false, fmt.Errorf("failed to lock employee absences: %w", err)
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM absences
			WHERE employee_id = $1
			  AND status IN ($2, $3)
			  AND start_date <= $5
			  AND end_date >= $4
		)
	`

	var overlap bool
	err := q.QueryRow(ctx, query,
		employeeID, string(absence.StatusPending), string(absence.StatusApproved), start, end,
	).Scan(&overlap)
	if err != nil {
		return false, fmt.Errorf("failed to check absence overlap: %w", err)
	}
	return overlap, nil
}

// ListApproved implements absence.AbsenceRepository.
func (r *absenceRepositoryImpl) ListApproved(ctx context.Context, companyID string, from, to time.Time) ([]absence.Absence, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + absenceColumns + `
		FROM absences
		WHERE company_id = $1 AND status = $2 AND start_date <= $4 AND end_date >= $3
		ORDER BY start_date
	`

	rows, err := q.Query(ctx, query, companyID, string(absence.StatusApproved), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved absences: %w", err)
	}
	defer rows.Close()

	var absences []absence.Absence
	for rows.Next() {
		a, err := scanAbsence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan absence: %w", err)
		}
		absences = append(absences, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating absences: %w", err)
	}
	return absences, nil
}
