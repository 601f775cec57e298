package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/qrcode"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const tokenColumns = `employee_id, company_id, token_hash, version, issued_at, rotated_at`

type qrTokenRepositoryImpl struct {
	db *database.DB
}

func NewQRTokenRepository(db *database.DB) qrcode.TokenRepository {
	return &qrTokenRepositoryImpl{db: db}
}

func scanToken(row rowScanner) (qrcode.Token, error) {
	var t qrcode.Token
	err := row.Scan(&t.EmployeeID, &t.CompanyID, &t.Hash, &t.Version, &t.IssuedAt, &t.RotatedAt)
	return t, err
}

// Issue implements qrcode.TokenRepository.
func (r *qrTokenRepositoryImpl) Issue(ctx context.Context, token qrcode.Token) (qrcode.Token, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO qr_tokens (employee_id, company_id, token_hash, version, issued_at)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (employee_id) DO UPDATE SET
			token_hash = EXCLUDED.token_hash,
			version = qr_tokens.version + 1,
			issued_at = EXCLUDED.issued_at,
			rotated_at = EXCLUDED.issued_at
		RETURNING ` + tokenColumns

	saved, err := scanToken(q.QueryRow(ctx, query, token.EmployeeID, token.CompanyID, token.Hash, token.IssuedAt))
	if err != nil {
		return qrcode.Token{}, fmt.Errorf("failed to issue qr token: %w", err)
	}
	return saved, nil
}

// Rotate implements qrcode.TokenRepository. A single UPDATE swaps the hash, so readers see
// either the old or the new token, never both or neither.
func (r *qrTokenRepositoryImpl) Rotate(ctx context.Context, employeeID string, hash []byte, at time.Time) (qrcode.Token, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE qr_tokens SET
			token_hash = $2,
			version = version + 1,
			issued_at = $3,
			rotated_at = $3
		WHERE employee_id = $1
		RETURNING ` + tokenColumns

	saved, err := scanToken(q.QueryRow(ctx, query, employeeID, hash, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isBadReference(err) {
			return qrcode.Token{}, qrcode.ErrTokenNotIssued
		}
		return qrcode.Token{}, fmt.Errorf("failed to rotate qr token: %w", err)
	}
	return saved, nil
}

// FindByHash implements qrcode.TokenRepository.
func (r *qrTokenRepositoryImpl) FindByHash(ctx context.Context, hash []byte) (qrcode.Token, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + tokenColumns + ` FROM qr_tokens WHERE token_hash = $1`

	t, err := scanToken(q.QueryRow(ctx, query, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return qrcode.Token{}, qrcode.ErrInvalidCode
		}
		return qrcode.Token{}, fmt.Errorf("failed to find qr token: %w", err)
	}
	return t, nil
}
