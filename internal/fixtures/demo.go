package fixtures

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DemoEmployees returns one active employee per contract type, used to seed the memory driver.
func DemoEmployees(companyID string, hireDate time.Time) []employee.Employee {
	contracts := []struct {
		name     string
		position string
		contract employee.ContractType
		rate     int64
	}{
		{"Dewi Lestari", "Accountant", employee.ContractFixedSalary, 8_000_000},
		{"Bima Santoso", "Warehouse Staff", employee.ContractDailyRate, 250_000},
		{"Sari Wulandari", "Part-time Designer", employee.ContractHourlyRate, 60_000},
	}

	employees := make([]employee.Employee, 0, len(contracts))
	for i, c := range contracts {
		position := c.position
		employees = append(employees, employee.Employee{
			ID:               uuid.NewString(),
			CompanyID:        companyID,
			EmployeeCode:     fmt.Sprintf("EMP-%03d", i+1),
			FullName:         c.name,
			PositionName:     &position,
			HireDate:         hireDate,
			EmploymentType:   employee.EmploymentTypePermanent,
			EmploymentStatus: employee.EmploymentStatusActive,
			ContractType:     c.contract,
			PayRate:          decimal.NewFromInt(c.rate),
			CreatedAt:        hireDate,
			UpdatedAt:        hireDate,
		})
	}
	return employees
}
