package absence

import (
	"context"
	"time"
)

type Decision struct {
	Status    Status
	DecidedBy string
	DecidedAt time.Time
	Comment   *string
}

type AbsenceRepository interface {
	Create(ctx context.Context, a Absence) (Absence, error)
	GetByID(ctx context.Context, companyID, id string) (Absence, error)
	// Decide applies the decision only while the absence is still PENDING,
	// otherwise ErrInvalidTransition. Two concurrent deciders get exactly one winner.
	Decide(ctx context.Context, id string, d Decision) (Absence, error)
	// HasOverlap checks PENDING and APPROVED absences of the employee.
	HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error)
	// ListApproved returns APPROVED absences of the company intersecting [from, to].
	ListApproved(ctx context.Context, companyID string, from, to time.Time) ([]Absence, error)
}
