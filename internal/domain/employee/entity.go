package employee

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the read model the engine needs; employee CRUD lives elsewhere.
type Employee struct {
	ID               string
	UserID           *string
	CompanyID        string
	EmployeeCode     string
	FullName         string
	PositionName     *string
	HireDate         time.Time
	ResignationDate  *time.Time
	EmploymentType   EmploymentType
	EmploymentStatus EmploymentStatus
	ContractType     ContractType
	// PayRate is the monthly salary, the daily rate or the hourly rate depending on ContractType.
	PayRate   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}

// HiredBy reports whether the employee's hire date falls on or before the given civil date.
func (e Employee) HiredBy(date time.Time) bool {
	return !e.HireDate.After(date)
}

type EmploymentType string

const (
	EmploymentTypePermanent  EmploymentType = "permanent"
	EmploymentTypeProbation  EmploymentType = "probation"
	EmploymentTypeContract   EmploymentType = "contract"
	EmploymentTypeInternship EmploymentType = "internship"
	EmploymentTypeFreelance  EmploymentType = "freelance"
)

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

type ContractType string

const (
	ContractFixedSalary ContractType = "FIXED_SALARY"
	ContractDailyRate   ContractType = "DAILY_RATE"
	ContractHourlyRate  ContractType = "HOURLY_RATE"
)

func ParseContractType(s string) (ContractType, error) {
	switch ContractType(s) {
	case ContractFixedSalary, ContractDailyRate, ContractHourlyRate:
		return ContractType(s), nil
	default:
		return "", fmt.Errorf("unknown contract type %q", s)
	}
}

// Summary is the employee identity returned alongside a QR scan.
type Summary struct {
	ID           string  `json:"id"`
	EmployeeCode string  `json:"employee_code"`
	FullName     string  `json:"full_name"`
	PositionName *string `json:"position_name,omitempty"`
}

func (e Employee) Summary() Summary {
	return Summary{
		ID:           e.ID,
		EmployeeCode: e.EmployeeCode,
		FullName:     e.FullName,
		PositionName: e.PositionName,
	}
}
