package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/absence"
)

type absenceRepositoryImpl struct {
	s *Store
}

func NewAbsenceRepository(s *Store) absence.AbsenceRepository {
	return &absenceRepositoryImpl{s: s}
}

func (r *absenceRepositoryImpl) Create(ctx context.Context, a absence.Absence) (absence.Absence, error) {
	defer r.s.lockWrite(ctx)()

	if a.ID == "" {
		a.ID = newID()
	}
	r.s.data.absences[a.ID] = a
	return a, nil
}

func (r *absenceRepositoryImpl) GetByID(ctx context.Context, companyID, id string) (absence.Absence, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.data.absences[id]
	if !ok || a.CompanyID != companyID {
		return absence.Absence{}, absence.ErrAbsenceNotFound
	}
	return a, nil
}

func (r *absenceRepositoryImpl) Decide(ctx context.Context, id string, d absence.Decision) (absence.Absence, error) {
	defer r.s.lockWrite(ctx)()

	a, ok := r.s.data.absences[id]
	if !ok {
		return absence.Absence{}, absence.ErrAbsenceNotFound
	}
	if !a.Status.CanTransition(d.Status) {
		return absence.Absence{}, absence.ErrInvalidTransition
	}

	a.Status = d.Status
	a.DecidedBy = &d.DecidedBy
	a.DecidedAt = &d.DecidedAt
	a.DecisionComment = d.Comment
	a.UpdatedAt = d.DecidedAt
	r.s.data.absences[id] = a
	return a, nil
}

func (r *absenceRepositoryImpl) HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.data.absences {
		if a.EmployeeID != employeeID {
			continue
		}
		if a.Status != absence.StatusPending && a.Status != absence.StatusApproved {
			continue
		}
		if !a.StartDate.After(end) && !a.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

func (r *absenceRepositoryImpl) ListApproved(ctx context.Context, companyID string, from, to time.Time) ([]absence.Absence, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []absence.Absence
	for _, a := range r.s.data.absences {
		if a.CompanyID != companyID || a.Status != absence.StatusApproved {
			continue
		}
		if a.StartDate.After(to) || a.EndDate.Before(from) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}
