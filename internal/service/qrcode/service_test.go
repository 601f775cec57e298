package qrcode_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/qrcode"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	attendancesvc "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	qrcodesvc "github.com/cmlabs-hris/attendance-engine/internal/service/qrcode"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	companyID  = "0190a1c2-0000-7000-8000-000000000001"
	employeeID = "0190a1c2-0000-7000-8000-0000000000e1"
)

func setup(t *testing.T) (qrcode.Codec, *memory.Store, *clock.Manual, identity.Actor) {
	t.Helper()

	store := memory.NewStore()
	clk := clock.NewManual(time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC))
	employees := memory.NewEmployeeRepository(store)
	rules := attendancesvc.NewRuleService(memory.NewRuleRepository(store), clk)
	records := attendancesvc.NewAttendanceService(memory.NewAttendanceRepository(store), employees, rules, clk)
	codec := qrcodesvc.NewQRCodeService(memory.NewQRTokenRepository(store), employees, records, clk)

	store.PutEmployee(employee.Employee{
		ID:               employeeID,
		CompanyID:        companyID,
		EmployeeCode:     "EMP-001",
		FullName:         "Dewi Lestari",
		HireDate:         time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		EmploymentStatus: employee.EmploymentStatusActive,
		ContractType:     employee.ContractFixedSalary,
		PayRate:          decimal.NewFromInt(4_000_000),
	})

	actor := identity.Actor{UserID: "kiosk-user", CompanyID: companyID, Role: identity.RoleManager}
	return codec, store, clk, actor
}

func TestGenerateAndResolve(t *testing.T) {
	codec, _, _, actor := setup(t)
	ctx := context.Background()

	issued, err := codec.Generate(ctx, actor, employeeID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(issued.Token, "QR1."))
	assert.Equal(t, 1, issued.Version)

	got, err := codec.Resolve(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, employeeID, got)

	// Generating again replaces the token.
	again, err := codec.Generate(ctx, actor, employeeID)
	require.NoError(t, err)
	assert.NotEqual(t, issued.Token, again.Token)
	assert.Equal(t, 2, again.Version)

	_, err = codec.Resolve(ctx, issued.Token)
	assert.ErrorIs(t, err, qrcode.ErrInvalidCode)
}

func TestResolve_Invalid(t *testing.T) {
	codec, _, _, _ := setup(t)

	for _, token := range []string{"", "garbage", "QR1.", "QR1.not-base64!!", "QR1.AAAA"} {
		_, err := codec.Resolve(context.Background(), token)
		assert.ErrorIs(t, err, qrcode.ErrInvalidCode, "token %q", token)
	}

	unknown := "QR1." + strings.Repeat("A", 43)
	_, err := codec.Resolve(context.Background(), unknown)
	assert.ErrorIs(t, err, qrcode.ErrInvalidCode)
}

func TestResolve_InactiveEmployee(t *testing.T) {
	codec, store, _, actor := setup(t)
	ctx := context.Background()

	issued, err := codec.Generate(ctx, actor, employeeID)
	require.NoError(t, err)

	emp, err := memory.NewEmployeeRepository(store).GetByID(ctx, employeeID)
	require.NoError(t, err)
	emp.EmploymentStatus = employee.EmploymentStatusTerminated
	store.PutEmployee(emp)

	_, err = codec.Resolve(ctx, issued.Token)
	assert.ErrorIs(t, err, qrcode.ErrInvalidCode)
}

func TestRegenerate(t *testing.T) {
	codec, _, _, actor := setup(t)
	ctx := context.Background()

	_, err := codec.Regenerate(ctx, actor, employeeID)
	assert.ErrorIs(t, err, qrcode.ErrTokenNotIssued)

	old, err := codec.Generate(ctx, actor, employeeID)
	require.NoError(t, err)

	fresh, err := codec.Regenerate(ctx, actor, employeeID)
	require.NoError(t, err)
	assert.Equal(t, old.Version+1, fresh.Version)

	_, err = codec.Resolve(ctx, old.Token)
	assert.ErrorIs(t, err, qrcode.ErrInvalidCode)

	got, err := codec.Resolve(ctx, fresh.Token)
	require.NoError(t, err)
	assert.Equal(t, employeeID, got)
}

// While a rotation runs, every resolve of either token must see exactly one of them as valid.
func TestRegenerate_NoWindowWithTwoOrZeroTokens(t *testing.T) {
	codec, _, _, actor := setup(t)
	ctx := context.Background()

	old, err := codec.Generate(ctx, actor, employeeID)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		fresh   qrcode.IssuedToken
		rotated = make(chan struct{})
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		fresh, err = codec.Regenerate(ctx, actor, employeeID)
		assert.NoError(t, err)
		close(rotated)
	}()

	for {
		select {
		case <-rotated:
			wg.Wait()
			_, err := codec.Resolve(ctx, old.Token)
			assert.ErrorIs(t, err, qrcode.ErrInvalidCode)
			_, err = codec.Resolve(ctx, fresh.Token)
			assert.NoError(t, err)
			return
		default:
			_, err := codec.Resolve(ctx, old.Token)
			if err != nil {
				assert.ErrorIs(t, err, qrcode.ErrInvalidCode)
			}
		}
	}
}

func TestScan(t *testing.T) {
	codec, _, clk, actor := setup(t)
	ctx := context.Background()

	issued, err := codec.Generate(ctx, actor, employeeID)
	require.NoError(t, err)

	res, err := codec.Scan(ctx, actor, qrcode.ScanRequest{Token: issued.Token, Direction: "CHECK_IN"})
	require.NoError(t, err)
	assert.Equal(t, employeeID, res.Employee.ID)
	assert.Equal(t, attendance.DirectionCheckIn, res.Direction)
	assert.Equal(t, attendance.StatusPresent, res.Status)
	assert.True(t, res.Record.HasArrival())

	// Check-in errors propagate unchanged.
	_, err = codec.Scan(ctx, actor, qrcode.ScanRequest{Token: issued.Token, Direction: "CHECK_IN"})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	clk.Set(time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC))
	res, err = codec.Scan(ctx, actor, qrcode.ScanRequest{Token: issued.Token, Direction: "CHECK_OUT"})
	require.NoError(t, err)
	assert.True(t, res.Record.HasDeparture())
	assert.Equal(t, 475, res.Record.WorkedMinutes)
}

func TestScan_Rejections(t *testing.T) {
	codec, _, _, actor := setup(t)
	ctx := context.Background()

	issued, err := codec.Generate(ctx, actor, employeeID)
	require.NoError(t, err)

	_, err = codec.Scan(ctx, actor, qrcode.ScanRequest{Token: issued.Token, Direction: "SIDEWAYS"})
	assert.Error(t, err)

	_, err = codec.Scan(ctx, actor, qrcode.ScanRequest{Token: "QR1.bogus", Direction: "CHECK_IN"})
	assert.ErrorIs(t, err, qrcode.ErrInvalidCode)

	otherKiosk := identity.Actor{UserID: "kiosk-2", CompanyID: "0190a1c2-0000-7000-8000-000000000002", Role: identity.RoleManager}
	_, err = codec.Scan(ctx, otherKiosk, qrcode.ScanRequest{Token: issued.Token, Direction: "CHECK_IN"})
	assert.ErrorIs(t, err, qrcode.ErrInvalidCode)
}
