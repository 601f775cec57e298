package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/payrun"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const payRunColumns = `
	id, company_id, reference, period_start, period_end, payment_date, status,
	total_gross, total_net, total_deductions, employee_count, notes,
	created_by, generated_at, submitted_at, decided_by, decided_at, completed_at,
	created_at, updated_at`

type payRunRepositoryImpl struct {
	db *database.DB
}

func NewPayRunRepository(db *database.DB) payrun.PayRunRepository {
	return &payRunRepositoryImpl{db: db}
}

func scanPayRun(row rowScanner) (payrun.PayRun, error) {
	var (
		pr     payrun.PayRun
		status string
	)
	err := row.Scan(
		&pr.ID, &pr.CompanyID, &pr.Reference, &pr.PeriodStart, &pr.PeriodEnd, &pr.PaymentDate, &status,
		&pr.Totals.Gross, &pr.Totals.Net, &pr.Totals.Deductions, &pr.Totals.EmployeeCount, &pr.Notes,
		&pr.CreatedBy, &pr.GeneratedAt, &pr.SubmittedAt, &pr.DecidedBy, &pr.DecidedAt, &pr.CompletedAt,
		&pr.CreatedAt, &pr.UpdatedAt,
	)
	if err != nil {
		return payrun.PayRun{}, err
	}
	pr.Status = payrun.Status(status)
	return pr, nil
}

// Create implements payrun.PayRunRepository.
func (r *payRunRepositoryImpl) Create(ctx context.Context, pr payrun.PayRun) (payrun.PayRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO pay_runs (
			company_id, reference, period_start, period_end, payment_date, status,
			notes, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING ` + payRunColumns

	saved, err := scanPayRun(q.QueryRow(ctx, query,
		pr.CompanyID, pr.Reference, pr.PeriodStart, pr.PeriodEnd, pr.PaymentDate, string(pr.Status),
		pr.Notes, pr.CreatedBy, pr.CreatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return payrun.PayRun{}, payrun.ErrReferenceExists
		}
		return payrun.PayRun{}, fmt.Errorf("failed to create pay run: %w", err)
	}
	return saved, nil
}

// GetByID implements payrun.PayRunRepository.
func (r *payRunRepositoryImpl) GetByID(ctx context.Context, companyID, id string) (payrun.PayRun, error) {
	return r.get(ctx, `SELECT `+payRunColumns+` FROM pay_runs WHERE id = $1 AND company_id = $2`, companyID, id)
}

// GetForUpdate implements payrun.PayRunRepository. The row lock serialises concurrent
// Generate calls on the same pay run.
func (r *payRunRepositoryImpl) GetForUpdate(ctx context.Context, companyID, id string) (payrun.PayRun, error) {
	return r.get(ctx, `SELECT `+payRunColumns+` FROM pay_runs WHERE id = $1 AND company_id = $2 FOR UPDATE`, companyID, id)
}

func (r *payRunRepositoryImpl) get(ctx context.Context, query, companyID, id string) (payrun.PayRun, error) {
	q := GetQuerier(ctx, r.db)

	pr, err := scanPayRun(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isBadReference(err) {
			return payrun.PayRun{}, payrun.ErrPayRunNotFound
		}
		return payrun.PayRun{}, fmt.Errorf("failed to get pay run: %w", err)
	}
	return pr, nil
}

// Transition implements payrun.PayRunRepository.
func (r *payRunRepositoryImpl) Transition(ctx context.Context, id string, from []payrun.Status, to payrun.Status, stamp payrun.TransitionStamp) (payrun.PayRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE pay_runs SET
			status = $3::text,
			submitted_at = CASE WHEN $3::text = 'PENDING_APPROVAL' THEN $4 ELSE submitted_at END,
			completed_at = CASE WHEN $3::text = 'COMPLETED' THEN $4 ELSE completed_at END,
			decided_by = COALESCE($5::uuid, decided_by),
			decided_at = CASE WHEN $5::uuid IS NOT NULL THEN $4 ELSE decided_at END,
			updated_at = $4
		WHERE id = $1 AND status = ANY($2::text[])
		RETURNING ` + payRunColumns

	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	pr, err := scanPayRun(q.QueryRow(ctx, query, id, allowed, string(to), stamp.At, stamp.DecidedBy))
	if err == nil {
		return pr, nil
	}
	if isBadReference(err) {
		return payrun.PayRun{}, payrun.ErrPayRunNotFound
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return payrun.PayRun{}, fmt.Errorf("failed to transition pay run: %w", err)
	}
	if exists, err := r.exists(ctx, id); err != nil {
		return payrun.PayRun{}, err
	} else if !exists {
		return payrun.PayRun{}, payrun.ErrPayRunNotFound
	}
	return payrun.PayRun{}, payrun.ErrInvalidTransition
}

// SaveGenerated implements payrun.PayRunRepository.
func (r *payRunRepositoryImpl) SaveGenerated(ctx context.Context, id string, totals payrun.Totals, at time.Time) (payrun.PayRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE pay_runs SET
			status = $2,
			total_gross = $3,
			total_net = $4,
			total_deductions = $5,
			employee_count = $6,
			generated_at = $7,
			updated_at = $7
		WHERE id = $1 AND status = $8
		RETURNING ` + payRunColumns

	pr, err := scanPayRun(q.QueryRow(ctx, query,
		id, string(payrun.StatusGenerated), totals.Gross, totals.Net, totals.Deductions, totals.EmployeeCount,
		at, string(payrun.StatusDraft),
	))
	if err == nil {
		return pr, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return payrun.PayRun{}, fmt.Errorf("failed to save generated pay run: %w", err)
	}
	if exists, err := r.exists(ctx, id); err != nil {
		return payrun.PayRun{}, err
	} else if !exists {
		return payrun.PayRun{}, payrun.ErrPayRunNotFound
	}
	return payrun.PayRun{}, payrun.ErrAlreadyGenerated
}

func (r *payRunRepositoryImpl) exists(ctx context.Context, id string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pay_runs WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pay run: %w", err)
	}
	return exists, nil
}

// ========== BULLETINS ==========

const bulletinColumns = `
	id, pay_run_id, company_id, employee_id, contract_type, pay_rate,
	scheduled_days, unpaid_absence_days, worked_hours, late_minutes, early_leave_minutes, overtime_minutes,
	base_pay, overtime_pay, absence_deduction, late_deduction, early_leave_deduction,
	gross_pay, total_deductions, net_pay,
	payment_status, payment_method, payment_notes, paid_at, paid_by, generated_at`

type bulletinRepositoryImpl struct {
	db *database.DB
}

func NewBulletinRepository(db *database.DB) payrun.BulletinRepository {
	return &bulletinRepositoryImpl{db: db}
}

func scanBulletin(row rowScanner) (payrun.Bulletin, error) {
	var (
		b                    payrun.Bulletin
		contractType, status string
		method               *string
	)
	err := row.Scan(
		&b.ID, &b.PayRunID, &b.CompanyID, &b.EmployeeID, &contractType, &b.PayRate,
		&b.ScheduledDays, &b.UnpaidAbsenceDays, &b.WorkedHours, &b.LateMinutes, &b.EarlyLeaveMinutes, &b.OvertimeMinutes,
		&b.BasePay, &b.OvertimePay, &b.AbsenceDeduction, &b.LateDeduction, &b.EarlyLeaveDeduction,
		&b.GrossPay, &b.TotalDeductions, &b.NetPay,
		&status, &method, &b.PaymentNotes, &b.PaidAt, &b.PaidBy, &b.GeneratedAt,
	)
	if err != nil {
		return payrun.Bulletin{}, err
	}
	b.ContractType = employee.ContractType(contractType)
	b.PaymentStatus = payrun.PaymentStatus(status)
	if method != nil {
		m := payrun.PaymentMethod(*method)
		b.PaymentMethod = &m
	}
	return b, nil
}

// CreateBatch implements payrun.BulletinRepository. All inserts go out in one round trip.
func (r *bulletinRepositoryImpl) CreateBatch(ctx context.Context, bulletins []payrun.Bulletin) error {
	if len(bulletins) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO bulletins (
			pay_run_id, company_id, employee_id, contract_type, pay_rate,
			scheduled_days, unpaid_absence_days, worked_hours, late_minutes, early_leave_minutes, overtime_minutes,
			base_pay, overtime_pay, absence_deduction, late_deduction, early_leave_deduction,
			gross_pay, total_deductions, net_pay, payment_status, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	batch := &pgx.Batch{}
	for _, b := range bulletins {
		batch.Queue(query,
			b.PayRunID, b.CompanyID, b.EmployeeID, string(b.ContractType), b.PayRate,
			b.ScheduledDays, b.UnpaidAbsenceDays, b.WorkedHours, b.LateMinutes, b.EarlyLeaveMinutes, b.OvertimeMinutes,
			b.BasePay, b.OvertimePay, b.AbsenceDeduction, b.LateDeduction, b.EarlyLeaveDeduction,
			b.GrossPay, b.TotalDeductions, b.NetPay, string(b.PaymentStatus), b.GeneratedAt,
		)
	}

	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert bulletins: %w", err)
	}
	return nil
}

// ListByPayRun implements payrun.BulletinRepository.
func (r *bulletinRepositoryImpl) ListByPayRun(ctx context.Context, payRunID string) ([]payrun.Bulletin, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + bulletinColumns + ` FROM bulletins WHERE pay_run_id = $1 ORDER BY seq`

	rows, err := q.Query(ctx, query, payRunID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bulletins: %w", err)
	}
	defer rows.Close()

	var bulletins []payrun.Bulletin
	for rows.Next() {
		b, err := scanBulletin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bulletin: %w", err)
		}
		bulletins = append(bulletins, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bulletins: %w", err)
	}
	return bulletins, nil
}

// MarkPaid implements payrun.BulletinRepository.
func (r *bulletinRepositoryImpl) MarkPaid(ctx context.Context, payRunID, bulletinID string, p payrun.Payment) (payrun.Bulletin, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE bulletins SET
			payment_status = $3,
			payment_method = $4,
			payment_notes = $5,
			paid_by = $6,
			paid_at = $7
		WHERE id = $1 AND pay_run_id = $2 AND payment_status = $8
		RETURNING ` + bulletinColumns

	b, err := scanBulletin(q.QueryRow(ctx, query,
		bulletinID, payRunID, string(payrun.PaymentPaid), string(p.Method), p.Notes, p.PaidBy, p.PaidAt,
		string(payrun.PaymentPending),
	))
	if err == nil {
		return b, nil
	}
	if isBadReference(err) {
		return payrun.Bulletin{}, payrun.ErrBulletinNotFound
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return payrun.Bulletin{}, fmt.Errorf("failed to mark bulletin paid: %w", err)
	}

	var status string
	err = q.QueryRow(ctx, `SELECT payment_status FROM bulletins WHERE id = $1 AND pay_run_id = $2`, bulletinID, payRunID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payrun.Bulletin{}, payrun.ErrBulletinNotFound
		}
		return payrun.Bulletin{}, fmt.Errorf("failed to mark bulletin paid: %w", err)
	}
	if payrun.PaymentStatus(status) == payrun.PaymentCancelled {
		return payrun.Bulletin{}, payrun.ErrBulletinCancelled
	}
	return payrun.Bulletin{}, payrun.ErrAlreadyPaid
}

// CancelPending implements payrun.BulletinRepository.
func (r *bulletinRepositoryImpl) CancelPending(ctx context.Context, payRunID string) (int, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE bulletins SET payment_status = $2 WHERE pay_run_id = $1 AND payment_status = $3`,
		payRunID, string(payrun.PaymentCancelled), string(payrun.PaymentPending))
	if err != nil {
		return 0, fmt.Errorf("failed to cancel bulletins: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// CountPending implements payrun.BulletinRepository.
func (r *bulletinRepositoryImpl) CountPending(ctx context.Context, payRunID string) (int, error) {
	q := GetQuerier(ctx, r.db)

	var n int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM bulletins WHERE pay_run_id = $1 AND payment_status = $2`,
		payRunID, string(payrun.PaymentPending)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending bulletins: %w", err)
	}
	return n, nil
}

// ========== POLICY ==========

const policyColumns = `
	company_id, absence_deduction_enabled,
	late_deduction_enabled, late_deduction_per_minute,
	early_leave_deduction_enabled, early_leave_deduction_per_minute,
	overtime_enabled, overtime_pay_per_minute, updated_at`

type policyRepositoryImpl struct {
	db *database.DB
}

func NewPolicyRepository(db *database.DB) payrun.PolicyRepository {
	return &policyRepositoryImpl{db: db}
}

func scanPolicy(row rowScanner) (payrun.Policy, error) {
	var p payrun.Policy
	err := row.Scan(
		&p.CompanyID, &p.AbsenceDeductionEnabled,
		&p.LateDeductionEnabled, &p.LateDeductionPerMinute,
		&p.EarlyLeaveDeductionEnabled, &p.EarlyLeaveDeductionPerMinute,
		&p.OvertimeEnabled, &p.OvertimePayPerMinute, &p.UpdatedAt,
	)
	return p, err
}

// GetByCompanyID implements payrun.PolicyRepository.
func (r *policyRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string) (payrun.Policy, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanPolicy(q.QueryRow(ctx, `SELECT `+policyColumns+` FROM payroll_policies WHERE company_id = $1`, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payrun.DefaultPolicy(companyID), nil
		}
		return payrun.Policy{}, fmt.Errorf("failed to get payroll policy: %w", err)
	}
	return p, nil
}

// Upsert implements payrun.PolicyRepository.
func (r *policyRepositoryImpl) Upsert(ctx context.Context, p payrun.Policy) (payrun.Policy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_policies (` + policyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (company_id) DO UPDATE SET
			absence_deduction_enabled = EXCLUDED.absence_deduction_enabled,
			late_deduction_enabled = EXCLUDED.late_deduction_enabled,
			late_deduction_per_minute = EXCLUDED.late_deduction_per_minute,
			early_leave_deduction_enabled = EXCLUDED.early_leave_deduction_enabled,
			early_leave_deduction_per_minute = EXCLUDED.early_leave_deduction_per_minute,
			overtime_enabled = EXCLUDED.overtime_enabled,
			overtime_pay_per_minute = EXCLUDED.overtime_pay_per_minute,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + policyColumns

	saved, err := scanPolicy(q.QueryRow(ctx, query,
		p.CompanyID, p.AbsenceDeductionEnabled,
		p.LateDeductionEnabled, p.LateDeductionPerMinute,
		p.EarlyLeaveDeductionEnabled, p.EarlyLeaveDeductionPerMinute,
		p.OvertimeEnabled, p.OvertimePayPerMinute, p.UpdatedAt,
	))
	if err != nil {
		return payrun.Policy{}, fmt.Errorf("failed to save payroll policy: %w", err)
	}
	return saved, nil
}
