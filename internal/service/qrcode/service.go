package qrcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/qrcode"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
)

type QRCodeServiceImpl struct {
	tokens    qrcode.TokenRepository
	employees employee.EmployeeRepository
	records   attendance.RecordService
	clock     clock.Clock
}

func NewQRCodeService(
	tokens qrcode.TokenRepository,
	employees employee.EmployeeRepository,
	records attendance.RecordService,
	clk clock.Clock,
) qrcode.Codec {
	return &QRCodeServiceImpl{
		tokens:    tokens,
		employees: employees,
		records:   records,
		clock:     clk,
	}
}

// Generate implements qrcode.Codec. Any previously issued token stops resolving.
func (s *QRCodeServiceImpl) Generate(ctx context.Context, actor identity.Actor, employeeID string) (qrcode.IssuedToken, error) {
	emp, err := s.ownEmployee(ctx, actor, employeeID)
	if err != nil {
		return qrcode.IssuedToken{}, err
	}

	plain, hash, err := newToken()
	if err != nil {
		return qrcode.IssuedToken{}, err
	}

	saved, err := s.tokens.Issue(ctx, qrcode.Token{
		EmployeeID: emp.ID,
		CompanyID:  emp.CompanyID,
		Hash:       hash,
		IssuedAt:   s.clock.Now(),
	})
	if err != nil {
		return qrcode.IssuedToken{}, fmt.Errorf("failed to issue qr token: %w", err)
	}

	slog.InfoContext(ctx, "qr token issued", "employee_id", emp.ID, "version", saved.Version, "actor_id", actor.UserID)
	return qrcode.IssuedToken{EmployeeID: emp.ID, Token: plain, Version: saved.Version, IssuedAt: saved.IssuedAt}, nil
}

// Regenerate implements qrcode.Codec. The swap is a single write, so the old and new
// tokens are never valid at the same time.
func (s *QRCodeServiceImpl) Regenerate(ctx context.Context, actor identity.Actor, employeeID string) (qrcode.IssuedToken, error) {
	emp, err := s.ownEmployee(ctx, actor, employeeID)
	if err != nil {
		return qrcode.IssuedToken{}, err
	}

	plain, hash, err := newToken()
	if err != nil {
		return qrcode.IssuedToken{}, err
	}

	saved, err := s.tokens.Rotate(ctx, emp.ID, hash, s.clock.Now())
	if err != nil {
		if errors.Is(err, qrcode.ErrTokenNotIssued) {
			return qrcode.IssuedToken{}, err
		}
		return qrcode.IssuedToken{}, fmt.Errorf("failed to rotate qr token: %w", err)
	}

	slog.InfoContext(ctx, "qr token rotated", "employee_id", emp.ID, "version", saved.Version, "actor_id", actor.UserID)
	return qrcode.IssuedToken{EmployeeID: emp.ID, Token: plain, Version: saved.Version, IssuedAt: saved.IssuedAt}, nil
}

// Resolve implements qrcode.Codec.
func (s *QRCodeServiceImpl) Resolve(ctx context.Context, token string) (string, error) {
	emp, err := s.resolve(ctx, token)
	if err != nil {
		return "", err
	}
	return emp.ID, nil
}

func (s *QRCodeServiceImpl) resolve(ctx context.Context, token string) (employee.Employee, error) {
	if !wellFormed(token) {
		return employee.Employee{}, qrcode.ErrInvalidCode
	}

	stored, err := s.tokens.FindByHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, qrcode.ErrInvalidCode) {
			return employee.Employee{}, err
		}
		return employee.Employee{}, fmt.Errorf("failed to look up qr token: %w", err)
	}

	emp, err := s.employees.GetByID(ctx, stored.EmployeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.Employee{}, qrcode.ErrInvalidCode
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if !emp.IsActive() {
		return employee.Employee{}, qrcode.ErrInvalidCode
	}
	return emp, nil
}

// Scan implements qrcode.Codec. Errors from check-in and check-out propagate unchanged.
func (s *QRCodeServiceImpl) Scan(ctx context.Context, actor identity.Actor, req qrcode.ScanRequest) (qrcode.ScanResult, error) {
	if err := req.Validate(); err != nil {
		return qrcode.ScanResult{}, err
	}

	emp, err := s.resolve(ctx, req.Token)
	if err != nil {
		return qrcode.ScanResult{}, err
	}
	// A kiosk only accepts badges of its own company.
	if emp.CompanyID != actor.CompanyID {
		return qrcode.ScanResult{}, qrcode.ErrInvalidCode
	}

	direction, _ := attendance.ParseDirection(req.Direction)
	now := s.clock.Now()

	var rec attendance.Record
	switch direction {
	case attendance.DirectionCheckIn:
		rec, err = s.records.CheckIn(ctx, actor, emp.ID, now, req.Capture())
	case attendance.DirectionCheckOut:
		rec, err = s.records.CheckOut(ctx, actor, emp.ID, now, req.Capture())
	}
	if err != nil {
		return qrcode.ScanResult{}, err
	}

	return qrcode.ScanResult{
		Employee:  emp.Summary(),
		Record:    rec,
		Direction: direction,
		Timestamp: now,
		Status:    rec.Status,
	}, nil
}

func (s *QRCodeServiceImpl) ownEmployee(ctx context.Context, actor identity.Actor, employeeID string) (employee.Employee, error) {
	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.Employee{}, err
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if emp.CompanyID != actor.CompanyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	if !emp.IsActive() {
		return employee.Employee{}, employee.ErrEmployeeInactive
	}
	return emp, nil
}
