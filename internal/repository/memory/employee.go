package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
)

type employeeRepositoryImpl struct {
	s *Store
}

func NewEmployeeRepository(s *Store) employee.EmployeeRepository {
	return &employeeRepositoryImpl{s: s}
}

func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.data.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *employeeRepositoryImpl) ListPayable(ctx context.Context, companyID string, hiredOnOrBefore time.Time) ([]employee.Employee, error) {
	return r.list(companyID, func(e employee.Employee) bool {
		return e.IsActive() && e.HiredBy(hiredOnOrBefore)
	}), nil
}

func (r *employeeRepositoryImpl) ListActiveByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	return r.list(companyID, employee.Employee.IsActive), nil
}

func (r *employeeRepositoryImpl) list(companyID string, keep func(employee.Employee) bool) []employee.Employee {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []employee.Employee
	for _, e := range r.s.data.employees {
		if e.CompanyID == companyID && keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return out
}
