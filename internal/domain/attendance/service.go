package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/identity"
)

type RecordService interface {
	CheckIn(ctx context.Context, actor identity.Actor, employeeID string, at time.Time, capture Capture) (Record, error)
	CheckOut(ctx context.Context, actor identity.Actor, employeeID string, at time.Time, capture Capture) (Record, error)
	GetOrCreateForAbsence(ctx context.Context, companyID, employeeID string, date time.Time, status Status) (Record, error)
	Validate(ctx context.Context, actor identity.Actor, recordID string, req ValidateRecordRequest) (Record, error)
	GetByID(ctx context.Context, actor identity.Actor, recordID string) (Record, error)
	List(ctx context.Context, actor identity.Actor, req ListRecordsRequest) ([]Record, error)
}

type RuleService interface {
	// GetRule falls back to the company default when none was configured.
	GetRule(ctx context.Context, companyID string) (Rule, error)
	UpsertRule(ctx context.Context, actor identity.Actor, req UpsertRuleRequest) (Rule, error)
}
