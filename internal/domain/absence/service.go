package absence

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/identity"
)

type Workflow interface {
	Request(ctx context.Context, actor identity.Actor, req CreateAbsenceRequest) (Absence, error)
	Decide(ctx context.Context, actor identity.Actor, absenceID string, req DecideAbsenceRequest) (Absence, error)
	GetByID(ctx context.Context, actor identity.Actor, absenceID string) (Absence, error)
}
