package payrun

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/identity"
)

type Engine interface {
	Create(ctx context.Context, actor identity.Actor, req CreatePayRunRequest) (PayRun, error)
	Generate(ctx context.Context, actor identity.Actor, payRunID string) (PayRun, error)
	Submit(ctx context.Context, actor identity.Actor, payRunID string) (PayRun, error)
	Decide(ctx context.Context, actor identity.Actor, payRunID string, req DecidePayRunRequest) (PayRun, error)
	// ProcessPayments never aborts the batch on a per-bulletin failure; inspect each result.
	ProcessPayments(ctx context.Context, actor identity.Actor, payRunID string, req ProcessPaymentsRequest) ([]PaymentResult, error)

	GetByID(ctx context.Context, actor identity.Actor, payRunID string) (PayRun, error)
	ListBulletins(ctx context.Context, actor identity.Actor, payRunID string) ([]Bulletin, error)

	GetPolicy(ctx context.Context, actor identity.Actor) (Policy, error)
	UpdatePolicy(ctx context.Context, actor identity.Actor, req UpdatePolicyRequest) (Policy, error)
}
