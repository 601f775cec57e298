package postgresql_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/absence"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/payrun"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/qrcode"
	"github.com/cmlabs-hris/attendance-engine/internal/fixtures"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const companyID = "0190a1c2-0000-7000-8000-000000000001"

var march2 = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func TestAttendanceRepository_ConcurrentCheckIn(t *testing.T) {
	db := openTestDB(t)
	repo := postgresql.NewAttendanceRepository(db)
	employeeID := createTestEmployee(t, db, companyID, "EMP-001")

	arrival := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CheckIn(context.Background(), attendance.Record{
				CompanyID:  companyID,
				EmployeeID: employeeID,
				Date:       march2,
				ArrivalAt:  &arrival,
				Status:     attendance.StatusPresent,
				Tag:        attendance.TagNormal,
				UpdatedAt:  arrival,
			})
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestAttendanceRepository_LeaveDayKeepsStatusOnCheckIn(t *testing.T) {
	db := openTestDB(t)
	repo := postgresql.NewAttendanceRepository(db)
	employeeID := createTestEmployee(t, db, companyID, "EMP-001")
	ctx := context.Background()

	_, err := repo.UpsertLeave(ctx, attendance.Record{
		CompanyID: companyID, EmployeeID: employeeID, Date: march2,
		Status: attendance.StatusOnLeave, Tag: attendance.TagNormal, UpdatedAt: march2,
	})
	require.NoError(t, err)

	inserted, err := repo.CreateIfMissing(ctx, attendance.Record{
		CompanyID: companyID, EmployeeID: employeeID, Date: march2,
		Status: attendance.StatusAbsent, Tag: attendance.TagNormal, CreatedAt: march2,
	})
	require.NoError(t, err)
	assert.False(t, inserted)

	arrival := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	rec, err := repo.CheckIn(ctx, attendance.Record{
		CompanyID: companyID, EmployeeID: employeeID, Date: march2, ArrivalAt: &arrival,
		Status: attendance.StatusLate, Tag: attendance.TagNormal, LateMinutes: 30, UpdatedAt: arrival,
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusOnLeave, rec.Status)
	assert.Equal(t, 30, rec.LateMinutes)

	departure := arrival.Add(8 * time.Hour)
	rec.DepartureAt = &departure
	rec.WorkedMinutes = 420
	_, err = repo.CheckOut(ctx, rec)
	require.NoError(t, err)

	_, err = repo.CheckOut(ctx, rec)
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
}

func TestRuleRepository_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := postgresql.NewRuleRepository(db)
	ctx := context.Background()

	_, err := repo.GetByCompanyID(ctx, companyID)
	assert.ErrorIs(t, err, attendance.ErrRuleNotFound)

	rule := fixtures.DefaultAttendanceRule(companyID)
	rule.Timezone = "Asia/Jakarta"
	rule.Holidays = []time.Time{time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC)}
	rule.Office = &attendance.Geofence{Latitude: -6.2, Longitude: 106.8, RadiusMeters: 150, Enforce: true}
	rule.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

	_, err = repo.Upsert(ctx, rule)
	require.NoError(t, err)

	got, err := repo.GetByCompanyID(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, rule.ScheduledStart, got.ScheduledStart)
	assert.Equal(t, rule.WorkingWeekdays, got.WorkingWeekdays)
	assert.True(t, rule.ExpectedHoursPerDay.Equal(got.ExpectedHoursPerDay))
	require.Len(t, got.Holidays, 1)
	assert.False(t, got.IsWorkingDay(time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, got.Office)
	assert.True(t, got.Office.Enforce)

	ids, err := repo.ListCompanyIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, companyID)
}

func TestQRTokenRepository_Rotate(t *testing.T) {
	db := openTestDB(t)
	repo := postgresql.NewQRTokenRepository(db)
	employeeID := createTestEmployee(t, db, companyID, "EMP-001")
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.Rotate(ctx, employeeID, []byte("new"), now)
	assert.ErrorIs(t, err, qrcode.ErrTokenNotIssued)

	issued, err := repo.Issue(ctx, qrcode.Token{EmployeeID: employeeID, CompanyID: companyID, Hash: []byte("old"), IssuedAt: now})
	require.NoError(t, err)
	assert.Equal(t, 1, issued.Version)

	rotated, err := repo.Rotate(ctx, employeeID, []byte("new"), now)
	require.NoError(t, err)
	assert.Equal(t, 2, rotated.Version)

	_, err = repo.FindByHash(ctx, []byte("old"))
	assert.ErrorIs(t, err, qrcode.ErrInvalidCode)

	found, err := repo.FindByHash(ctx, []byte("new"))
	require.NoError(t, err)
	assert.Equal(t, employeeID, found.EmployeeID)
}

func TestAbsenceRepository_DecideOnce(t *testing.T) {
	db := openTestDB(t)
	repo := postgresql.NewAbsenceRepository(db)
	employeeID := createTestEmployee(t, db, companyID, "EMP-001")
	ctx := context.Background()

	a, err := repo.Create(ctx, absence.Absence{
		CompanyID: companyID, EmployeeID: employeeID, Type: absence.TypeAnnualLeave,
		StartDate: march2, EndDate: march2.AddDate(0, 0, 2), Status: absence.StatusPending,
		WorkingDays: 3, Hours: decimal.NewFromInt(24), RequestedBy: employeeID, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	overlap, err := repo.HasOverlap(ctx, employeeID, march2.AddDate(0, 0, 2), march2.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.True(t, overlap)

	decision := absence.Decision{Status: absence.StatusApproved, DecidedBy: employeeID, DecidedAt: time.Now()}
	_, err = repo.Decide(ctx, a.ID, decision)
	require.NoError(t, err)

	_, err = repo.Decide(ctx, a.ID, decision)
	assert.ErrorIs(t, err, absence.ErrInvalidTransition)

	_, err = repo.Decide(ctx, "not-a-uuid", decision)
	assert.ErrorIs(t, err, absence.ErrAbsenceNotFound)
}

func TestPayRunRepository_GenerateRollsBack(t *testing.T) {
	db := openTestDB(t)
	tx := postgresql.NewTxManager(db)
	payRuns := postgresql.NewPayRunRepository(db)
	bulletins := postgresql.NewBulletinRepository(db)
	employeeID := createTestEmployee(t, db, companyID, "EMP-001")
	ctx := context.Background()
	now := time.Now().UTC()

	pr, err := payRuns.Create(ctx, payrun.PayRun{
		CompanyID: companyID, Reference: "PR-TEST", PeriodStart: march2, PeriodEnd: march2.AddDate(0, 0, 25),
		PaymentDate: march2.AddDate(0, 0, 29), Status: payrun.StatusDraft, CreatedBy: employeeID, CreatedAt: now,
	})
	require.NoError(t, err)

	_, err = payRuns.Create(ctx, payrun.PayRun{
		CompanyID: companyID, Reference: "PR-TEST", PeriodStart: march2, PeriodEnd: march2,
		PaymentDate: march2, Status: payrun.StatusDraft, CreatedBy: employeeID, CreatedAt: now,
	})
	assert.ErrorIs(t, err, payrun.ErrReferenceExists)

	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := payRuns.GetForUpdate(ctx, companyID, pr.ID); err != nil {
			return err
		}
		b := payrun.Bulletin{
			PayRunID: pr.ID, CompanyID: companyID, EmployeeID: employeeID, ContractType: "DAILY_RATE",
			PayRate: decimal.NewFromInt(10000), PaymentStatus: payrun.PaymentPending, GeneratedAt: now,
		}
		// The second bulletin for the same employee violates the unique index.
		return bulletins.CreateBatch(ctx, []payrun.Bulletin{b, b})
	})
	require.Error(t, err)

	list, err := bulletins.ListByPayRun(ctx, pr.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := payRuns.GetByID(ctx, companyID, pr.ID)
	require.NoError(t, err)
	assert.Equal(t, payrun.StatusDraft, got.Status)

	_, err = payRuns.Transition(ctx, pr.ID, payrun.AllowedFrom(payrun.StatusApproved), payrun.StatusApproved, payrun.TransitionStamp{At: now})
	assert.ErrorIs(t, err, payrun.ErrInvalidTransition)
}

func TestPolicyRepository_DefaultsThenUpsert(t *testing.T) {
	db := openTestDB(t)
	repo := postgresql.NewPolicyRepository(db)
	ctx := context.Background()

	p, err := repo.GetByCompanyID(ctx, companyID)
	require.NoError(t, err)
	assert.True(t, p.AbsenceDeductionEnabled)

	p.OvertimeEnabled = true
	p.OvertimePayPerMinute = decimal.RequireFromString("250.50")
	p.UpdatedAt = time.Now().UTC()
	_, err = repo.Upsert(ctx, p)
	require.NoError(t, err)

	got, err := repo.GetByCompanyID(ctx, companyID)
	require.NoError(t, err)
	assert.True(t, got.OvertimeEnabled)
	assert.True(t, decimal.RequireFromString("250.5").Equal(got.OvertimePayPerMinute))
}
