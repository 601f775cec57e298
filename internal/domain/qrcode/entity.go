package qrcode

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
)

// Token is the stored form of an employee's current QR credential.
// Only the hash is persisted; the opaque string is shown once at issue time.
type Token struct {
	EmployeeID string
	CompanyID  string
	Hash       []byte
	Version    int
	IssuedAt   time.Time
	RotatedAt  *time.Time
}

// IssuedToken carries the plaintext credential back to the caller that generated it.
type IssuedToken struct {
	EmployeeID string
	Token      string
	Version    int
	IssuedAt   time.Time
}

type ScanResult struct {
	Employee  employee.Summary
	Record    attendance.Record
	Direction attendance.Direction
	Timestamp time.Time
	Status    attendance.Status
}
