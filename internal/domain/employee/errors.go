package employee

import "github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"

var (
	ErrEmployeeNotFound = apperror.NotFound("NOT_FOUND", "employee not found")
	ErrEmployeeInactive = apperror.Conflict("EMPLOYEE_INACTIVE", "employee is not active")
)
