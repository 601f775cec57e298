package payrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/absence"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/payrun"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type PayRunServiceImpl struct {
	tx        database.Transactor
	payRuns   payrun.PayRunRepository
	bulletins payrun.BulletinRepository
	policies  payrun.PolicyRepository
	employees employee.EmployeeRepository
	records   attendance.RecordRepository
	absences  absence.AbsenceRepository
	rules     attendance.RuleService
	clock     clock.Clock
	workers   int
}

func NewPayRunService(
	tx database.Transactor,
	payRuns payrun.PayRunRepository,
	bulletins payrun.BulletinRepository,
	policies payrun.PolicyRepository,
	employees employee.EmployeeRepository,
	records attendance.RecordRepository,
	absences absence.AbsenceRepository,
	rules attendance.RuleService,
	clk clock.Clock,
) payrun.Engine {
	return &PayRunServiceImpl{
		tx:        tx,
		payRuns:   payRuns,
		bulletins: bulletins,
		policies:  policies,
		employees: employees,
		records:   records,
		absences:  absences,
		rules:     rules,
		clock:     clk,
		workers:   runtime.GOMAXPROCS(0),
	}
}

// Create implements payrun.Engine.
func (s *PayRunServiceImpl) Create(ctx context.Context, actor identity.Actor, req payrun.CreatePayRunRequest) (payrun.PayRun, error) {
	if err := req.Validate(); err != nil {
		return payrun.PayRun{}, err
	}

	start, end, paymentDate := req.Dates()
	if end.Before(start) {
		return payrun.PayRun{}, payrun.ErrInvalidRange
	}

	reference := fmt.Sprintf("PR-%s-%s", start.Format("200601"), strings.ToUpper(uuid.NewString()[:8]))
	if req.Reference != nil {
		reference = strings.TrimSpace(*req.Reference)
	}

	now := s.clock.Now()
	created, err := s.payRuns.Create(ctx, payrun.PayRun{
		CompanyID:   actor.CompanyID,
		Reference:   reference,
		PeriodStart: start,
		PeriodEnd:   end,
		PaymentDate: paymentDate,
		Status:      payrun.StatusDraft,
		Totals:      payrun.SumTotals(nil),
		Notes:       req.Notes,
		CreatedBy:   actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if errors.Is(err, payrun.ErrReferenceExists) {
			return payrun.PayRun{}, err
		}
		return payrun.PayRun{}, fmt.Errorf("failed to create pay run: %w", err)
	}

	slog.InfoContext(ctx, "pay run created", "pay_run_id", created.ID, "reference", created.Reference, "actor_id", actor.UserID)
	return created, nil
}

// Generate implements payrun.Engine. Either every payable employee gets a bulletin and the
// pay run becomes GENERATED, or nothing is written and the pay run stays DRAFT.
func (s *PayRunServiceImpl) Generate(ctx context.Context, actor identity.Actor, payRunID string) (payrun.PayRun, error) {
	var generated payrun.PayRun
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		pr, err := s.payRuns.GetForUpdate(ctx, actor.CompanyID, payRunID)
		if err != nil {
			return err
		}
		if pr.Status != payrun.StatusDraft {
			return payrun.ErrAlreadyGenerated
		}

		bulletins, err := s.computeBulletins(ctx, pr)
		if err != nil {
			return err
		}

		if err := s.bulletins.CreateBatch(ctx, bulletins); err != nil {
			return fmt.Errorf("failed to save bulletins: %w", err)
		}

		generated, err = s.payRuns.SaveGenerated(ctx, pr.ID, payrun.SumTotals(bulletins), s.clock.Now())
		if err != nil {
			if errors.Is(err, payrun.ErrAlreadyGenerated) {
				return err
			}
			return fmt.Errorf("failed to save pay run totals: %w", err)
		}
		return nil
	})
	if err != nil {
		return payrun.PayRun{}, err
	}

	slog.InfoContext(ctx, "pay run generated",
		"pay_run_id", generated.ID,
		"employee_count", generated.Totals.EmployeeCount,
		"total_net", generated.Totals.Net.String(),
		"actor_id", actor.UserID,
	)
	return generated, nil
}

func (s *PayRunServiceImpl) computeBulletins(ctx context.Context, pr payrun.PayRun) ([]payrun.Bulletin, error) {
	rule, err := s.rules.GetRule(ctx, pr.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance rule: %w", err)
	}
	policy, err := s.policies.GetByCompanyID(ctx, pr.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll policy: %w", err)
	}
	employees, err := s.employees.ListPayable(ctx, pr.CompanyID, pr.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to get employees: %w", err)
	}

	from, to := pr.PeriodStart, pr.PeriodEnd
	records, err := s.records.List(ctx, attendance.RecordFilter{CompanyID: pr.CompanyID, From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance records: %w", err)
	}
	approved, err := s.absences.ListApproved(ctx, pr.CompanyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get approved absences: %w", err)
	}

	recordsByEmployee := make(map[string][]attendance.Record)
	for _, rec := range records {
		recordsByEmployee[rec.EmployeeID] = append(recordsByEmployee[rec.EmployeeID], rec)
	}
	absencesByEmployee := make(map[string][]absence.Absence)
	for _, a := range approved {
		absencesByEmployee[a.EmployeeID] = append(absencesByEmployee[a.EmployeeID], a)
	}

	now := s.clock.Now()
	bulletins := make([]payrun.Bulletin, len(employees))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, emp := range employees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := CalculateBulletin(BulletinInput{
				PayRun:   pr,
				Employee: emp,
				Rule:     rule,
				Policy:   policy,
				Records:  recordsByEmployee[emp.ID],
				Absences: absencesByEmployee[emp.ID],
				Now:      now,
			})
			if err != nil {
				return err
			}
			bulletins[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bulletins, nil
}

// Submit implements payrun.Engine: GENERATED -> PENDING_APPROVAL.
func (s *PayRunServiceImpl) Submit(ctx context.Context, actor identity.Actor, payRunID string) (payrun.PayRun, error) {
	pr, err := s.payRuns.GetByID(ctx, actor.CompanyID, payRunID)
	if err != nil {
		return payrun.PayRun{}, err
	}

	submitted, err := s.payRuns.Transition(ctx, pr.ID, payrun.AllowedFrom(payrun.StatusPendingApproval), payrun.StatusPendingApproval,
		payrun.TransitionStamp{At: s.clock.Now()})
	if err != nil {
		return payrun.PayRun{}, err
	}

	slog.InfoContext(ctx, "pay run submitted", "pay_run_id", submitted.ID, "actor_id", actor.UserID)
	return submitted, nil
}

// Decide implements payrun.Engine. Rejecting or cancelling a pay run cancels its unpaid bulletins.
func (s *PayRunServiceImpl) Decide(ctx context.Context, actor identity.Actor, payRunID string, req payrun.DecidePayRunRequest) (payrun.PayRun, error) {
	if err := req.Validate(); err != nil {
		return payrun.PayRun{}, err
	}
	to, _ := payrun.ParseDecision(req.Status)

	pr, err := s.payRuns.GetByID(ctx, actor.CompanyID, payRunID)
	if err != nil {
		return payrun.PayRun{}, err
	}
	if !pr.Status.CanTransition(to) {
		return payrun.PayRun{}, payrun.ErrInvalidTransition
	}

	var decided payrun.PayRun
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		decidedBy := actor.UserID
		decided, err = s.payRuns.Transition(ctx, pr.ID, payrun.AllowedFrom(to), to,
			payrun.TransitionStamp{At: s.clock.Now(), DecidedBy: &decidedBy})
		if err != nil {
			return err
		}

		if to == payrun.StatusRejected || to == payrun.StatusCancelled {
			if _, err := s.bulletins.CancelPending(ctx, pr.ID); err != nil {
				return fmt.Errorf("failed to cancel pending bulletins: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return payrun.PayRun{}, err
	}

	slog.InfoContext(ctx, "pay run decided", "pay_run_id", decided.ID, "status", decided.Status, "actor_id", actor.UserID)
	return decided, nil
}

// ProcessPayments implements payrun.Engine. Each bulletin is paid in its own write; a
// failing item is reported in its result and the rest of the batch continues.
func (s *PayRunServiceImpl) ProcessPayments(ctx context.Context, actor identity.Actor, payRunID string, req payrun.ProcessPaymentsRequest) ([]payrun.PaymentResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pr, err := s.payRuns.GetByID(ctx, actor.CompanyID, payRunID)
	if err != nil {
		return nil, err
	}
	if !pr.Status.AcceptsPayments() {
		return nil, payrun.ErrPaymentsNotAllowed
	}

	method, _ := payrun.ParsePaymentMethod(req.PaymentMethod)
	results := make([]payrun.PaymentResult, 0, len(req.BulletinIDs))
	paid := 0

	for _, id := range req.BulletinIDs {
		_, err := s.bulletins.MarkPaid(ctx, pr.ID, id, payrun.Payment{
			Method: method,
			Notes:  req.Notes,
			PaidBy: actor.UserID,
			PaidAt: s.clock.Now(),
		})
		if err != nil {
			code := apperror.GetCode(err)
			if code == "INTERNAL" {
				slog.ErrorContext(ctx, "failed to pay bulletin", "pay_run_id", pr.ID, "bulletin_id", id, "error", err)
			}
			results = append(results, payrun.PaymentResult{BulletinID: id, Success: false, Error: &code})
			continue
		}
		paid++
		results = append(results, payrun.PaymentResult{BulletinID: id, Success: true})
	}

	if pr.Status == payrun.StatusApproved && paid > 0 {
		if err := s.completeIfSettled(ctx, pr.ID); err != nil {
			// Payments are already committed; completion is retried on the next batch.
			slog.ErrorContext(ctx, "failed to complete pay run", "pay_run_id", pr.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "pay run payments processed",
		"pay_run_id", pr.ID,
		"requested", len(req.BulletinIDs),
		"paid", paid,
		"actor_id", actor.UserID,
	)
	return results, nil
}

// completeIfSettled moves an APPROVED pay run to COMPLETED once no bulletin is pending.
func (s *PayRunServiceImpl) completeIfSettled(ctx context.Context, payRunID string) error {
	pending, err := s.bulletins.CountPending(ctx, payRunID)
	if err != nil {
		return fmt.Errorf("failed to count pending bulletins: %w", err)
	}
	if pending > 0 {
		return nil
	}

	_, err = s.payRuns.Transition(ctx, payRunID, payrun.AllowedFrom(payrun.StatusCompleted), payrun.StatusCompleted,
		payrun.TransitionStamp{At: s.clock.Now()})
	if err != nil && !errors.Is(err, payrun.ErrInvalidTransition) {
		return err
	}
	return nil
}

func (s *PayRunServiceImpl) GetByID(ctx context.Context, actor identity.Actor, payRunID string) (payrun.PayRun, error) {
	return s.payRuns.GetByID(ctx, actor.CompanyID, payRunID)
}

func (s *PayRunServiceImpl) ListBulletins(ctx context.Context, actor identity.Actor, payRunID string) ([]payrun.Bulletin, error) {
	pr, err := s.payRuns.GetByID(ctx, actor.CompanyID, payRunID)
	if err != nil {
		return nil, err
	}
	bulletins, err := s.bulletins.ListByPayRun(ctx, pr.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bulletins: %w", err)
	}
	return bulletins, nil
}

func (s *PayRunServiceImpl) GetPolicy(ctx context.Context, actor identity.Actor) (payrun.Policy, error) {
	policy, err := s.policies.GetByCompanyID(ctx, actor.CompanyID)
	if err != nil {
		return payrun.Policy{}, fmt.Errorf("failed to get payroll policy: %w", err)
	}
	return policy, nil
}

func (s *PayRunServiceImpl) UpdatePolicy(ctx context.Context, actor identity.Actor, req payrun.UpdatePolicyRequest) (payrun.Policy, error) {
	if err := req.Validate(); err != nil {
		return payrun.Policy{}, err
	}

	current, err := s.policies.GetByCompanyID(ctx, actor.CompanyID)
	if err != nil {
		return payrun.Policy{}, fmt.Errorf("failed to get payroll policy: %w", err)
	}

	next := req.Apply(current)
	next.CompanyID = actor.CompanyID
	next.UpdatedAt = s.clock.Now()

	saved, err := s.policies.Upsert(ctx, next)
	if err != nil {
		return payrun.Policy{}, fmt.Errorf("failed to save payroll policy: %w", err)
	}

	slog.InfoContext(ctx, "payroll policy updated", "company_id", saved.CompanyID, "actor_id", actor.UserID)
	return saved, nil
}
