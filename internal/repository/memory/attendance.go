package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

type attendanceRepositoryImpl struct {
	s *Store
}

func NewAttendanceRepository(s *Store) attendance.RecordRepository {
	return &attendanceRepositoryImpl{s: s}
}

func (r *attendanceRepositoryImpl) CheckIn(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	defer r.s.lockWrite(ctx)()

	key := dayKey{employeeID: rec.EmployeeID, date: rec.Date}
	if id, ok := r.s.data.recordByDay[key]; ok {
		existing := r.s.data.records[id]
		if existing.HasArrival() {
			return attendance.Record{}, attendance.ErrAlreadyCheckedIn
		}
		existing.ArrivalAt = rec.ArrivalAt
		existing.ArrivalLocation = rec.ArrivalLocation
		existing.ArrivalDistanceMeters = rec.ArrivalDistanceMeters
		existing.DeviceInfo = rec.DeviceInfo
		existing.LateMinutes = rec.LateMinutes
		existing.Tag = rec.Tag
		if !existing.Status.IsSticky() {
			existing.Status = rec.Status
		}
		existing.UpdatedAt = rec.UpdatedAt
		r.s.data.records[id] = existing
		return existing, nil
	}

	if rec.ID == "" {
		rec.ID = newID()
	}
	r.s.data.records[rec.ID] = rec
	r.s.data.recordByDay[key] = rec.ID
	return rec, nil
}

func (r *attendanceRepositoryImpl) CheckOut(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	defer r.s.lockWrite(ctx)()

	existing, ok := r.s.data.records[rec.ID]
	if !ok || !existing.HasArrival() {
		return attendance.Record{}, attendance.ErrNoCheckInFound
	}
	if existing.HasDeparture() {
		return attendance.Record{}, attendance.ErrAlreadyCheckedOut
	}

	existing.DepartureAt = rec.DepartureAt
	existing.DepartureLocation = rec.DepartureLocation
	existing.DepartureDistanceMeters = rec.DepartureDistanceMeters
	if rec.DeviceInfo != nil {
		existing.DeviceInfo = rec.DeviceInfo
	}
	existing.Status = rec.Status
	existing.Tag = rec.Tag
	existing.EarlyLeaveMinutes = rec.EarlyLeaveMinutes
	existing.OvertimeMinutes = rec.OvertimeMinutes
	existing.WorkedMinutes = rec.WorkedMinutes
	existing.UpdatedAt = rec.UpdatedAt

	r.s.data.records[existing.ID] = existing
	return existing, nil
}

func (r *attendanceRepositoryImpl) UpsertLeave(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	defer r.s.lockWrite(ctx)()

	key := dayKey{employeeID: rec.EmployeeID, date: rec.Date}
	if id, ok := r.s.data.recordByDay[key]; ok {
		existing := r.s.data.records[id]
		existing.Status = rec.Status
		existing.UpdatedAt = rec.UpdatedAt
		r.s.data.records[id] = existing
		return existing, nil
	}

	if rec.ID == "" {
		rec.ID = newID()
	}
	r.s.data.records[rec.ID] = rec
	r.s.data.recordByDay[key] = rec.ID
	return rec, nil
}

func (r *attendanceRepositoryImpl) CreateIfMissing(ctx context.Context, rec attendance.Record) (bool, error) {
	defer r.s.lockWrite(ctx)()

	key := dayKey{employeeID: rec.EmployeeID, date: rec.Date}
	if _, ok := r.s.data.recordByDay[key]; ok {
		return false, nil
	}
	if rec.ID == "" {
		rec.ID = newID()
	}
	r.s.data.records[rec.ID] = rec
	r.s.data.recordByDay[key] = rec.ID
	return true, nil
}

func (r *attendanceRepositoryImpl) Override(ctx context.Context, id string, status attendance.Status, tag attendance.Tag, comment *string, validatorID string, at time.Time) (attendance.Record, error) {
	defer r.s.lockWrite(ctx)()

	existing, ok := r.s.data.records[id]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	existing.Status = status
	existing.Tag = tag
	if comment != nil {
		existing.Comment = comment
	}
	existing.ValidatedBy = &validatorID
	existing.ValidatedAt = &at
	existing.UpdatedAt = at

	r.s.data.records[id] = existing
	return existing, nil
}

func (r *attendanceRepositoryImpl) GetByID(ctx context.Context, companyID, id string) (attendance.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.data.records[id]
	if !ok || rec.CompanyID != companyID {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return rec, nil
}

func (r *attendanceRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.data.recordByDay[dayKey{employeeID: employeeID, date: date}]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return r.s.data.records[id], nil
}

func (r *attendanceRepositoryImpl) List(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []attendance.Record
	for _, rec := range r.s.data.records {
		if rec.CompanyID != filter.CompanyID {
			continue
		}
		if filter.EmployeeID != nil && rec.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.From != nil && rec.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && rec.Date.After(*filter.To) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, rec.Status) {
			continue
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

type ruleRepositoryImpl struct {
	s *Store
}

func NewRuleRepository(s *Store) attendance.RuleRepository {
	return &ruleRepositoryImpl{s: s}
}

func (r *ruleRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string) (attendance.Rule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rule, ok := r.s.data.rules[companyID]
	if !ok {
		return attendance.Rule{}, attendance.ErrRuleNotFound
	}
	return rule, nil
}

// ListCompanyIDs includes companies that only have employees, since those run on the default rule.
func (r *ruleRepositoryImpl) ListCompanyIDs(ctx context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seen := make(map[string]struct{})
	for id := range r.s.data.rules {
		seen[id] = struct{}{}
	}
	for _, e := range r.s.data.employees {
		seen[e.CompanyID] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *ruleRepositoryImpl) Upsert(ctx context.Context, rule attendance.Rule) (attendance.Rule, error) {
	defer r.s.lockWrite(ctx)()

	r.s.data.rules[rule.CompanyID] = rule
	return rule, nil
}
