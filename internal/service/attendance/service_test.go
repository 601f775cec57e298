package attendance_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-engine/internal/fixtures"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	attendancesvc "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	companyID  = "0190a1c2-0000-7000-8000-000000000001"
	employeeID = "0190a1c2-0000-7000-8000-0000000000e1"
	managerID  = "0190a1c2-0000-7000-8000-0000000000a1"
)

type harness struct {
	store   *memory.Store
	clock   *clock.Manual
	rules   attendance.RuleService
	records attendance.RecordService
	actor   identity.Actor
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memory.NewStore()
	clk := clock.NewManual(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	rules := attendancesvc.NewRuleService(memory.NewRuleRepository(store), clk)
	records := attendancesvc.NewAttendanceService(
		memory.NewAttendanceRepository(store),
		memory.NewEmployeeRepository(store),
		rules,
		clk,
	)

	store.PutEmployee(employee.Employee{
		ID:               employeeID,
		CompanyID:        companyID,
		EmployeeCode:     "EMP-001",
		FullName:         "Dewi Lestari",
		HireDate:         time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		EmploymentType:   employee.EmploymentTypePermanent,
		EmploymentStatus: employee.EmploymentStatusActive,
		ContractType:     employee.ContractFixedSalary,
		PayRate:          decimal.NewFromInt(4_000_000),
	})

	return &harness{
		store:   store,
		clock:   clk,
		rules:   rules,
		records: records,
		actor:   identity.Actor{UserID: managerID, CompanyID: companyID, Role: identity.RoleManager},
	}
}

func (h *harness) useRule(t *testing.T, rule attendance.Rule) {
	t.Helper()
	_, err := memory.NewRuleRepository(h.store).Upsert(context.Background(), rule)
	require.NoError(t, err)
}

func mar(day, hour, minute int) time.Time {
	return time.Date(2026, 3, day, hour, minute, 0, 0, time.UTC)
}

func TestCheckIn_DefaultRule(t *testing.T) {
	tests := []struct {
		name        string
		arrival     time.Time
		wantStatus  attendance.Status
		wantMinutes int
	}{
		{"within tolerance", mar(2, 9, 10), attendance.StatusPresent, 0},
		{"late", mar(2, 9, 20), attendance.StatusLate, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			rec, err := h.records.CheckIn(context.Background(), h.actor, employeeID, tt.arrival, attendance.Capture{})
			require.NoError(t, err)

			assert.NotEmpty(t, rec.ID)
			assert.Equal(t, tt.wantStatus, rec.Status)
			assert.Equal(t, tt.wantMinutes, rec.LateMinutes)
			assert.Equal(t, attendance.TagNormal, rec.Tag)
			assert.Equal(t, mar(2, 0, 0), rec.Date)
		})
	}
}

func TestCheckIn_Twice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.records.CheckIn(ctx, h.actor, employeeID, mar(2, 8, 55), attendance.Capture{})
	require.NoError(t, err)

	_, err = h.records.CheckIn(ctx, h.actor, employeeID, mar(2, 9, 5), attendance.Capture{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
}

func TestCheckIn_ConcurrentRequestsProduceOneRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.records.CheckIn(ctx, h.actor, employeeID, mar(2, 9, 0).Add(time.Duration(i)*time.Second), attendance.Capture{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, attendance.ErrAlreadyCheckedIn):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)

	records, err := h.records.List(ctx, h.actor, attendance.ListRecordsRequest{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCheckOut(t *testing.T) {
	t.Run("full day", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		_, err := h.records.CheckIn(ctx, h.actor, employeeID, mar(2, 9, 0), attendance.Capture{})
		require.NoError(t, err)

		rec, err := h.records.CheckOut(ctx, h.actor, employeeID, mar(2, 18, 0), attendance.Capture{})
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusPresent, rec.Status)
		assert.Equal(t, 480, rec.WorkedMinutes)
		assert.Equal(t, 0, rec.EarlyLeaveMinutes)
		assert.True(t, rec.WorkedHours().Equal(decimal.NewFromInt(8)))
	})

	t.Run("early departure", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		_, err := h.records.CheckIn(ctx, h.actor, employeeID, mar(2, 9, 0), attendance.Capture{})
		require.NoError(t, err)

		rec, err := h.records.CheckOut(ctx, h.actor, employeeID, mar(2, 17, 0), attendance.Capture{})
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusEarlyDeparture, rec.Status)
		assert.Equal(t, 60, rec.EarlyLeaveMinutes)
	})

	t.Run("late arrival stays late after early departure", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		_, err := h.records.CheckIn(ctx, h.actor, employeeID, mar(2, 9, 40), attendance.Capture{})
		require.NoError(t, err)

		rec, err := h.records.CheckOut(ctx, h.actor, employeeID, mar(2, 17, 0), attendance.Capture{})
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusLate, rec.Status)
		assert.Equal(t, 40, rec.LateMinutes)
		assert.Equal(t, 60, rec.EarlyLeaveMinutes)
	})

	t.Run("overtime", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		_, err := h.records.CheckIn(ctx, h.actor, employeeID, mar(2, 9, 0), attendance.Capture{})
		require.NoError(t, err)

		rec, err := h.records.CheckOut(ctx, h.actor, employeeID, mar(2, 20, 0), attendance.Capture{})
		require.NoError(t, err)
		assert.Equal(t, attendance.TagOvertime, rec.Tag)
		assert.Equal(t, 120, rec.OvertimeMinutes)
	})

	t.Run("without check-in", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.records.CheckOut(context.Background(), h.actor, employeeID, mar(2, 18, 0), attendance.Capture{})
		assert.ErrorIs(t, err, attendance.ErrNoCheckInFound)
	})

	t.Run("twice", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		_, err := h.records.CheckIn(ctx, h.actor, employeeID, mar(2, 9, 0), attendance.Capture{})
		require.NoError(t, err)
		_, err = h.records.CheckOut(ctx, h.actor, employeeID, mar(2, 18, 0), attendance.Capture{})
		require.NoError(t, err)

		_, err = h.records.CheckOut(ctx, h.actor, employeeID, mar(2, 18, 5), attendance.Capture{})
		assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
	})

	t.Run("before arrival", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		_, err := h.records.CheckIn(ctx, h.actor, employeeID, mar(2, 9, 0), attendance.Capture{})
		require.NoError(t, err)

		_, err = h.records.CheckOut(ctx, h.actor, employeeID, mar(2, 8, 0), attendance.Capture{})
		assert.ErrorIs(t, err, attendance.ErrDepartureTooEarly)
	})
}

func TestCheckOut_ConcurrentRequestsCloseOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.records.CheckIn(ctx, h.actor, employeeID, mar(2, 9, 0), attendance.Capture{})
	require.NoError(t, err)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.records.CheckOut(ctx, h.actor, employeeID, mar(2, 18, i), attendance.Capture{})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
	}
	assert.Equal(t, 1, ok)
}

func TestCheckOut_NightShiftClosesPreviousDay(t *testing.T) {
	h := newHarness(t)
	h.useRule(t, fixtures.NightShiftAttendanceRule(companyID))
	ctx := context.Background()

	in, err := h.records.CheckIn(ctx, h.actor, employeeID, mar(2, 22, 5), attendance.Capture{})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, in.Status)
	assert.Equal(t, attendance.TagNightShift, in.Tag)

	out, err := h.records.CheckOut(ctx, h.actor, employeeID, mar(3, 6, 0), attendance.Capture{})
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, mar(2, 0, 0), out.Date)
	assert.Equal(t, attendance.StatusPresent, out.Status)
	assert.Equal(t, 415, out.WorkedMinutes)
}

func TestCheckIn_NightShiftAfterMidnightBelongsToPreviousDay(t *testing.T) {
	h := newHarness(t)
	h.useRule(t, fixtures.NightShiftAttendanceRule(companyID))
	ctx := context.Background()

	in, err := h.records.CheckIn(ctx, h.actor, employeeID, mar(3, 0, 30), attendance.Capture{})
	require.NoError(t, err)
	assert.Equal(t, mar(2, 0, 0), in.Date)
	assert.Equal(t, attendance.StatusLate, in.Status)
	assert.Equal(t, 150, in.LateMinutes)

	out, err := h.records.CheckOut(ctx, h.actor, employeeID, mar(3, 6, 0), attendance.Capture{})
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, attendance.StatusLate, out.Status)
	assert.Zero(t, out.EarlyLeaveMinutes)
	assert.Equal(t, 270, out.WorkedMinutes)

	evening, err := h.records.CheckIn(ctx, h.actor, employeeID, mar(3, 22, 0), attendance.Capture{})
	require.NoError(t, err)
	assert.Equal(t, mar(3, 0, 0), evening.Date)
	assert.Equal(t, attendance.StatusPresent, evening.Status)
}

func TestCheckIn_TimezoneDecidesDate(t *testing.T) {
	h := newHarness(t)
	rule := fixtures.DefaultAttendanceRule(companyID)
	rule.Timezone = "Asia/Jakarta"
	h.useRule(t, rule)

	// 02:05 UTC is 09:05 in Jakarta.
	rec, err := h.records.CheckIn(context.Background(), h.actor, employeeID, mar(2, 2, 5), attendance.Capture{})
	require.NoError(t, err)
	assert.Equal(t, mar(2, 0, 0), rec.Date)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
}

func TestCheckIn_LeaveStatusIsKept(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.records.GetOrCreateForAbsence(ctx, companyID, employeeID, mar(2, 0, 0), attendance.StatusOnLeave)
	require.NoError(t, err)

	rec, err := h.records.CheckIn(ctx, h.actor, employeeID, mar(2, 9, 30), attendance.Capture{})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusOnLeave, rec.Status)
	assert.True(t, rec.HasArrival())

	rec, err = h.records.CheckOut(ctx, h.actor, employeeID, mar(2, 12, 0), attendance.Capture{})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusOnLeave, rec.Status)
}

func TestGetOrCreateForAbsence_RejectsWorkStatus(t *testing.T) {
	h := newHarness(t)
	_, err := h.records.GetOrCreateForAbsence(context.Background(), companyID, employeeID, mar(2, 0, 0), attendance.StatusLate)
	assert.ErrorIs(t, err, attendance.ErrInvalidStatus)
}

func TestCheckIn_Geofence(t *testing.T) {
	rule := fixtures.DefaultAttendanceRule(companyID)
	rule.Office = &attendance.Geofence{Latitude: -6.2088, Longitude: 106.8456, RadiusMeters: 100, Enforce: true}

	t.Run("location required", func(t *testing.T) {
		h := newHarness(t)
		h.useRule(t, rule)
		_, err := h.records.CheckIn(context.Background(), h.actor, employeeID, mar(2, 9, 0), attendance.Capture{})
		assert.ErrorIs(t, err, attendance.ErrLocationRequired)
	})

	t.Run("outside radius", func(t *testing.T) {
		h := newHarness(t)
		h.useRule(t, rule)
		capture := attendance.Capture{Location: &attendance.Location{Latitude: -6.9175, Longitude: 107.6191}}
		_, err := h.records.CheckIn(context.Background(), h.actor, employeeID, mar(2, 9, 0), capture)
		assert.ErrorIs(t, err, attendance.ErrOutsideGeofence)
	})

	t.Run("inside radius", func(t *testing.T) {
		h := newHarness(t)
		h.useRule(t, rule)
		capture := attendance.Capture{Location: &attendance.Location{Latitude: -6.2089, Longitude: 106.8457}}
		rec, err := h.records.CheckIn(context.Background(), h.actor, employeeID, mar(2, 9, 0), capture)
		require.NoError(t, err)
		require.NotNil(t, rec.ArrivalDistanceMeters)
		assert.Less(t, *rec.ArrivalDistanceMeters, 100.0)
	})
}

func TestCheckIn_EmployeeScoping(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	other := identity.Actor{UserID: managerID, CompanyID: "0190a1c2-0000-7000-8000-000000000002", Role: identity.RoleManager}
	_, err := h.records.CheckIn(ctx, other, employeeID, mar(2, 9, 0), attendance.Capture{})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	resigned := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	h.store.PutEmployee(employee.Employee{
		ID:               "0190a1c2-0000-7000-8000-0000000000e2",
		CompanyID:        companyID,
		EmployeeCode:     "EMP-002",
		FullName:         "Budi Santoso",
		HireDate:         time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		ResignationDate:  &resigned,
		EmploymentStatus: employee.EmploymentStatusResigned,
		ContractType:     employee.ContractDailyRate,
		PayRate:          decimal.NewFromInt(200_000),
	})
	_, err = h.records.CheckIn(ctx, h.actor, "0190a1c2-0000-7000-8000-0000000000e2", mar(2, 9, 0), attendance.Capture{})
	assert.ErrorIs(t, err, employee.ErrEmployeeInactive)
}

func TestValidate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	in, err := h.records.CheckIn(ctx, h.actor, employeeID, mar(2, 9, 45), attendance.Capture{})
	require.NoError(t, err)
	require.Equal(t, attendance.StatusLate, in.Status)

	comment := "traffic accident on the toll road"
	tag := string(attendance.TagJustifiedLate)
	rec, err := h.records.Validate(ctx, h.actor, in.ID, attendance.ValidateRecordRequest{
		Status:  string(attendance.StatusPresent),
		Tag:     &tag,
		Comment: &comment,
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
	assert.Equal(t, attendance.TagJustifiedLate, rec.Tag)
	require.NotNil(t, rec.ValidatedBy)
	assert.Equal(t, managerID, *rec.ValidatedBy)
	assert.Equal(t, comment, *rec.Comment)

	// The validated status and justified tag survive the check-out.
	out, err := h.records.CheckOut(ctx, h.actor, employeeID, mar(2, 18, 0), attendance.Capture{})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, out.Status)
	assert.Equal(t, attendance.TagJustifiedLate, out.Tag)

	_, err = h.records.Validate(ctx, h.actor, in.ID, attendance.ValidateRecordRequest{Status: "ASLEEP"})
	assert.Error(t, err)

	other := identity.Actor{UserID: managerID, CompanyID: "0190a1c2-0000-7000-8000-000000000002", Role: identity.RoleManager}
	_, err = h.records.Validate(ctx, other, in.ID, attendance.ValidateRecordRequest{Status: string(attendance.StatusAbsent)})
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestRuleService(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	rule, err := h.rules.GetRule(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, fixtures.DefaultAttendanceRule(companyID).ScheduledStart, rule.ScheduledStart)

	saved, err := h.rules.UpsertRule(ctx, h.actor, attendance.UpsertRuleRequest{
		Timezone:                       "Asia/Jakarta",
		ScheduledStart:                 "08:00",
		ScheduledEnd:                   "17:00",
		LateToleranceMinutes:           10,
		EarlyDepartureToleranceMinutes: 10,
		WorkingWeekdays:                []int{1, 2, 3, 4, 5, 6},
		ExpectedHoursPerDay:            decimal.NewFromInt(8),
		LunchBreakMinutes:              60,
		Holidays:                       []string{"2026-03-19"},
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.TimeOfDay(8*60), saved.ScheduledStart)
	assert.Len(t, saved.WorkingWeekdays, 6)

	rule, err = h.rules.GetRule(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", rule.Timezone)
	assert.False(t, rule.IsWorkingDay(mar(19, 0, 0)))

	_, err = h.rules.UpsertRule(ctx, h.actor, attendance.UpsertRuleRequest{
		Timezone:       "Mars/Olympus",
		ScheduledStart: "25:00",
		ScheduledEnd:   "17:00",
	})
	assert.Error(t, err)
}
