package qrcode

import (
	"context"
	"time"
)

type TokenRepository interface {
	// Issue stores hash as the employee's current token, replacing any previous one.
	Issue(ctx context.Context, token Token) (Token, error)
	// Rotate swaps the stored hash in a single write; returns ErrTokenNotIssued when none exists.
	// The old hash stops resolving in the same commit that makes the new one resolve.
	Rotate(ctx context.Context, employeeID string, hash []byte, at time.Time) (Token, error)
	// FindByHash returns ErrInvalidCode for an unknown hash.
	FindByHash(ctx context.Context, hash []byte) (Token, error)
}
