package qrcode

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/identity"
)

type Codec interface {
	Generate(ctx context.Context, actor identity.Actor, employeeID string) (IssuedToken, error)
	Regenerate(ctx context.Context, actor identity.Actor, employeeID string) (IssuedToken, error)
	Resolve(ctx context.Context, token string) (string, error)
	Scan(ctx context.Context, actor identity.Actor, req ScanRequest) (ScanResult, error)
}
