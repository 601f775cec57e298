package employee

import (
	"context"
	"time"
)

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	// ListPayable returns active employees of the company hired on or before the given date.
	ListPayable(ctx context.Context, companyID string, hiredOnOrBefore time.Time) ([]Employee, error)
	ListActiveByCompany(ctx context.Context, companyID string) ([]Employee, error)
}
