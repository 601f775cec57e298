package memory

import (
	"context"
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/payrun"
)

type payRunRepositoryImpl struct {
	s *Store
}

func NewPayRunRepository(s *Store) payrun.PayRunRepository {
	return &payRunRepositoryImpl{s: s}
}

func (r *payRunRepositoryImpl) Create(ctx context.Context, pr payrun.PayRun) (payrun.PayRun, error) {
	defer r.s.lockWrite(ctx)()

	for _, existing := range r.s.data.payRuns {
		if existing.CompanyID == pr.CompanyID && existing.Reference == pr.Reference {
			return payrun.PayRun{}, payrun.ErrReferenceExists
		}
	}
	if pr.ID == "" {
		pr.ID = newID()
	}
	r.s.data.payRuns[pr.ID] = pr
	return pr, nil
}

func (r *payRunRepositoryImpl) GetByID(ctx context.Context, companyID, id string) (payrun.PayRun, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	pr, ok := r.s.data.payRuns[id]
	if !ok || pr.CompanyID != companyID {
		return payrun.PayRun{}, payrun.ErrPayRunNotFound
	}
	return pr, nil
}

// GetForUpdate needs no row lock here: transactions on the store are already serialised.
func (r *payRunRepositoryImpl) GetForUpdate(ctx context.Context, companyID, id string) (payrun.PayRun, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r *payRunRepositoryImpl) Transition(ctx context.Context, id string, from []payrun.Status, to payrun.Status, stamp payrun.TransitionStamp) (payrun.PayRun, error) {
	defer r.s.lockWrite(ctx)()

	pr, ok := r.s.data.payRuns[id]
	if !ok {
		return payrun.PayRun{}, payrun.ErrPayRunNotFound
	}
	if !slices.Contains(from, pr.Status) {
		return payrun.PayRun{}, payrun.ErrInvalidTransition
	}

	pr.Status = to
	pr.UpdatedAt = stamp.At
	at := stamp.At
	switch to {
	case payrun.StatusPendingApproval:
		pr.SubmittedAt = &at
	case payrun.StatusCompleted:
		pr.CompletedAt = &at
	default:
		if stamp.DecidedBy != nil {
			pr.DecidedBy = stamp.DecidedBy
			pr.DecidedAt = &at
		}
	}
	r.s.data.payRuns[id] = pr
	return pr, nil
}

func (r *payRunRepositoryImpl) SaveGenerated(ctx context.Context, id string, totals payrun.Totals, at time.Time) (payrun.PayRun, error) {
	defer r.s.lockWrite(ctx)()

	pr, ok := r.s.data.payRuns[id]
	if !ok {
		return payrun.PayRun{}, payrun.ErrPayRunNotFound
	}
	if pr.Status != payrun.StatusDraft {
		return payrun.PayRun{}, payrun.ErrAlreadyGenerated
	}

	pr.Totals = totals
	pr.Status = payrun.StatusGenerated
	pr.GeneratedAt = &at
	pr.UpdatedAt = at
	r.s.data.payRuns[id] = pr
	return pr, nil
}

type bulletinRepositoryImpl struct {
	s *Store
}

func NewBulletinRepository(s *Store) payrun.BulletinRepository {
	return &bulletinRepositoryImpl{s: s}
}

func (r *bulletinRepositoryImpl) CreateBatch(ctx context.Context, bulletins []payrun.Bulletin) error {
	defer r.s.lockWrite(ctx)()

	for _, b := range bulletins {
		if b.ID == "" {
			b.ID = newID()
		}
		r.s.data.bulletins[b.ID] = b
		r.s.data.bulletinIDs[b.PayRunID] = append(r.s.data.bulletinIDs[b.PayRunID], b.ID)
	}
	return nil
}

func (r *bulletinRepositoryImpl) ListByPayRun(ctx context.Context, payRunID string) ([]payrun.Bulletin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := r.s.data.bulletinIDs[payRunID]
	out := make([]payrun.Bulletin, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.s.data.bulletins[id])
	}
	return out, nil
}

func (r *bulletinRepositoryImpl) MarkPaid(ctx context.Context, payRunID, bulletinID string, p payrun.Payment) (payrun.Bulletin, error) {
	defer r.s.lockWrite(ctx)()

	b, ok := r.s.data.bulletins[bulletinID]
	if !ok || b.PayRunID != payRunID {
		return payrun.Bulletin{}, payrun.ErrBulletinNotFound
	}
	switch b.PaymentStatus {
	case payrun.PaymentPaid:
		return payrun.Bulletin{}, payrun.ErrAlreadyPaid
	case payrun.PaymentCancelled:
		return payrun.Bulletin{}, payrun.ErrBulletinCancelled
	}

	method := p.Method
	paidBy := p.PaidBy
	paidAt := p.PaidAt
	b.PaymentStatus = payrun.PaymentPaid
	b.PaymentMethod = &method
	b.PaymentNotes = p.Notes
	b.PaidBy = &paidBy
	b.PaidAt = &paidAt
	r.s.data.bulletins[bulletinID] = b
	return b, nil
}

func (r *bulletinRepositoryImpl) CancelPending(ctx context.Context, payRunID string) (int, error) {
	defer r.s.lockWrite(ctx)()

	n := 0
	for _, id := range r.s.data.bulletinIDs[payRunID] {
		b := r.s.data.bulletins[id]
		if b.PaymentStatus == payrun.PaymentPending {
			b.PaymentStatus = payrun.PaymentCancelled
			r.s.data.bulletins[id] = b
			n++
		}
	}
	return n, nil
}

func (r *bulletinRepositoryImpl) CountPending(ctx context.Context, payRunID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, id := range r.s.data.bulletinIDs[payRunID] {
		if r.s.data.bulletins[id].PaymentStatus == payrun.PaymentPending {
			n++
		}
	}
	return n, nil
}

type policyRepositoryImpl struct {
	s *Store
}

func NewPolicyRepository(s *Store) payrun.PolicyRepository {
	return &policyRepositoryImpl{s: s}
}

func (r *policyRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string) (payrun.Policy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.data.policies[companyID]
	if !ok {
		return payrun.DefaultPolicy(companyID), nil
	}
	return p, nil
}

func (r *policyRepositoryImpl) Upsert(ctx context.Context, p payrun.Policy) (payrun.Policy, error) {
	defer r.s.lockWrite(ctx)()

	r.s.data.policies[p.CompanyID] = p
	return p, nil
}
