package attendance

import (
	"context"
	"time"
)

type RecordFilter struct {
	CompanyID  string
	EmployeeID *string
	From       *time.Time
	To         *time.Time
	Statuses   []Status
}

type RecordRepository interface {
	// CheckIn creates the (employee, date) record with its arrival or, when a record without an arrival
	// already exists, sets the arrival on it. Sticky statuses on an existing record are kept.
	// Returns ErrAlreadyCheckedIn when an arrival is already stored; concurrent callers get exactly one winner.
	CheckIn(ctx context.Context, rec Record) (Record, error)

	// CheckOut stores the departure fields of rec only if the stored record has no departure yet,
	// otherwise ErrAlreadyCheckedOut.
	CheckOut(ctx context.Context, rec Record) (Record, error)

	// UpsertLeave creates the record or overwrites its status with a leave status.
	// Arrival and departure are never touched.
	UpsertLeave(ctx context.Context, rec Record) (Record, error)

	// CreateIfMissing inserts rec unless a record already exists for (employee, date).
	CreateIfMissing(ctx context.Context, rec Record) (bool, error)

	// Override is the administrative correction path.
	Override(ctx context.Context, id string, status Status, tag Tag, comment *string, validatorID string, at time.Time) (Record, error)

	GetByID(ctx context.Context, companyID, id string) (Record, error)
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (Record, error)
	List(ctx context.Context, filter RecordFilter) ([]Record, error)
}

type RuleRepository interface {
	GetByCompanyID(ctx context.Context, companyID string) (Rule, error)
	ListCompanyIDs(ctx context.Context) ([]string, error)
	// Upsert replaces the company's rule; last write wins.
	Upsert(ctx context.Context, rule Rule) (Rule, error)
}
