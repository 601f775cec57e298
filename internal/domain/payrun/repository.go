package payrun

import (
	"context"
	"time"
)

type PayRunRepository interface {
	Create(ctx context.Context, pr PayRun) (PayRun, error)
	GetByID(ctx context.Context, companyID, id string) (PayRun, error)
	// GetForUpdate locks the pay run row for the rest of the enclosing transaction.
	GetForUpdate(ctx context.Context, companyID, id string) (PayRun, error)
	// Transition moves the pay run to `to` only if its current status is one of `from`;
	// otherwise ErrInvalidTransition. stamp is applied together with the status change.
	Transition(ctx context.Context, id string, from []Status, to Status, stamp TransitionStamp) (PayRun, error)
	// SaveGenerated stores totals and flips DRAFT to GENERATED; ErrAlreadyGenerated if no longer DRAFT.
	SaveGenerated(ctx context.Context, id string, totals Totals, at time.Time) (PayRun, error)
}

type TransitionStamp struct {
	At        time.Time
	DecidedBy *string
}

type BulletinRepository interface {
	CreateBatch(ctx context.Context, bulletins []Bulletin) error
	ListByPayRun(ctx context.Context, payRunID string) ([]Bulletin, error)
	// MarkPaid pays a PENDING bulletin of the pay run; ErrBulletinNotFound, ErrAlreadyPaid or
	// ErrBulletinCancelled otherwise.
	MarkPaid(ctx context.Context, payRunID, bulletinID string, p Payment) (Bulletin, error)
	CancelPending(ctx context.Context, payRunID string) (int, error)
	CountPending(ctx context.Context, payRunID string) (int, error)
}

type PolicyRepository interface {
	// GetByCompanyID returns DefaultPolicy when the company has none stored.
	GetByCompanyID(ctx context.Context, companyID string) (Policy, error)
	Upsert(ctx context.Context, p Policy) (Policy, error)
}
