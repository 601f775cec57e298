package absence

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeAnnualLeave       Type = "ANNUAL_LEAVE"
	TypeSickLeave         Type = "SICK_LEAVE"
	TypeMaternityLeave    Type = "MATERNITY_LEAVE"
	TypePaternityLeave    Type = "PATERNITY_LEAVE"
	TypeExceptionalLeave  Type = "EXCEPTIONAL_LEAVE"
	TypeUnjustified       Type = "UNJUSTIFIED"
	TypeWorkplaceAccident Type = "WORKPLACE_ACCIDENT"
	TypeTraining          Type = "TRAINING"
	TypeOther             Type = "OTHER"
)

var AllTypes = []Type{
	TypeAnnualLeave, TypeSickLeave, TypeMaternityLeave, TypePaternityLeave, TypeExceptionalLeave,
	TypeUnjustified, TypeWorkplaceAccident, TypeTraining, TypeOther,
}

func ParseType(s string) (Type, error) {
	for _, t := range AllTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown absence type %q", s)
}

// AttendanceStatus is the status written on each covered working day once approved.
func (t Type) AttendanceStatus() attendance.Status {
	switch t {
	case TypeSickLeave, TypeWorkplaceAccident:
		return attendance.StatusSick
	default:
		return attendance.StatusOnLeave
	}
}

// IsPaid is false for absences that reduce pay.
func (t Type) IsPaid() bool {
	return t != TypeUnjustified
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

func ParseDecision(s string) (Status, error) {
	switch Status(s) {
	case StatusApproved, StatusRejected, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown absence decision %q", s)
	}
}

// CanTransition: PENDING is the only non-terminal state.
func (s Status) CanTransition(to Status) bool {
	if s != StatusPending {
		return false
	}
	switch to {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

type Absence struct {
	ID          string
	CompanyID   string
	EmployeeID  string
	Type        Type
	StartDate   time.Time
	EndDate     time.Time
	Reason      *string
	Status      Status
	WorkingDays int
	Hours       decimal.Decimal

	RequestedBy     string
	DecidedBy       *string
	DecidedAt       *time.Time
	DecisionComment *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Covers reports whether the civil date lies in [StartDate, EndDate].
func (a Absence) Covers(date time.Time) bool {
	return !date.Before(a.StartDate) && !date.After(a.EndDate)
}
