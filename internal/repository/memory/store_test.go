package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/payrun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	payRuns := NewPayRunRepository(s)
	bulletins := NewBulletinRepository(s)
	ctx := context.Background()

	pr, err := payRuns.Create(ctx, payrun.PayRun{CompanyID: "c1", Reference: "PR-1", Status: payrun.StatusDraft})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, bulletins.CreateBatch(ctx, []payrun.Bulletin{{PayRunID: pr.ID, PaymentStatus: payrun.PaymentPending}}))
		_, err := payRuns.SaveGenerated(ctx, pr.ID, payrun.Totals{EmployeeCount: 1}, time.Now())
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := payRuns.GetByID(ctx, "c1", pr.ID)
	require.NoError(t, err)
	assert.Equal(t, payrun.StatusDraft, got.Status)

	list, err := bulletins.ListByPayRun(ctx, pr.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWithinTx_CommitsAndNests(t *testing.T) {
	s := NewStore()
	records := NewAttendanceRepository(s)
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		return s.WithinTx(ctx, func(ctx context.Context) error {
			_, err := records.CreateIfMissing(ctx, attendance.Record{EmployeeID: "e1", CompanyID: "c1", Date: day, Status: attendance.StatusAbsent})
			return err
		})
	})
	require.NoError(t, err)

	rec, err := records.GetByEmployeeAndDate(ctx, "e1", day)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, rec.Status)
}

func TestCreateIfMissing_KeepsExistingRecord(t *testing.T) {
	s := NewStore()
	records := NewAttendanceRepository(s)
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	created, err := records.UpsertLeave(ctx, attendance.Record{EmployeeID: "e1", CompanyID: "c1", Date: day, Status: attendance.StatusOnLeave})
	require.NoError(t, err)

	inserted, err := records.CreateIfMissing(ctx, attendance.Record{EmployeeID: "e1", CompanyID: "c1", Date: day, Status: attendance.StatusAbsent})
	require.NoError(t, err)
	assert.False(t, inserted)

	rec, err := records.GetByEmployeeAndDate(ctx, "e1", day)
	require.NoError(t, err)
	assert.Equal(t, created.ID, rec.ID)
	assert.Equal(t, attendance.StatusOnLeave, rec.Status)
}

func TestWithinTx_RollbackKeepsConcurrentWrite(t *testing.T) {
	s := NewStore()
	records := NewAttendanceRepository(s)
	payRuns := NewPayRunRepository(s)
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	arrival := day.Add(9 * time.Hour)

	done := make(chan error, 1)
	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(txCtx context.Context) error {
		_, err := payRuns.Create(txCtx, payrun.PayRun{CompanyID: "c1", Reference: "PR-1", Status: payrun.StatusDraft})
		require.NoError(t, err)

		started := make(chan struct{})
		go func() {
			close(started)
			_, err := records.CheckIn(ctx, attendance.Record{
				CompanyID: "c1", EmployeeID: "e1", Date: day, ArrivalAt: &arrival,
				Status: attendance.StatusPresent, Tag: attendance.TagNormal,
			})
			done <- err
		}()
		<-started
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, <-done)

	rec, err := records.GetByEmployeeAndDate(ctx, "e1", day)
	require.NoError(t, err)
	assert.True(t, rec.HasArrival())
}
