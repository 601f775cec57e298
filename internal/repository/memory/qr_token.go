package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/qrcode"
)

type qrTokenRepositoryImpl struct {
	s *Store
}

func NewQRTokenRepository(s *Store) qrcode.TokenRepository {
	return &qrTokenRepositoryImpl{s: s}
}

func (r *qrTokenRepositoryImpl) Issue(ctx context.Context, token qrcode.Token) (qrcode.Token, error) {
	defer r.s.lockWrite(ctx)()

	token.Version = 1
	if prev, ok := r.s.data.tokens[token.EmployeeID]; ok {
		delete(r.s.data.tokenByHash, string(prev.Hash))
		token.Version = prev.Version + 1
		rotatedAt := token.IssuedAt
		token.RotatedAt = &rotatedAt
	}
	r.s.data.tokens[token.EmployeeID] = token
	r.s.data.tokenByHash[string(token.Hash)] = token.EmployeeID
	return token, nil
}

func (r *qrTokenRepositoryImpl) Rotate(ctx context.Context, employeeID string, hash []byte, at time.Time) (qrcode.Token, error) {
	defer r.s.lockWrite(ctx)()

	prev, ok := r.s.data.tokens[employeeID]
	if !ok {
		return qrcode.Token{}, qrcode.ErrTokenNotIssued
	}

	// Both index updates happen under one lock: no reader sees two valid hashes or none.
	delete(r.s.data.tokenByHash, string(prev.Hash))
	next := prev
	next.Hash = hash
	next.Version = prev.Version + 1
	next.IssuedAt = at
	next.RotatedAt = &at
	r.s.data.tokens[employeeID] = next
	r.s.data.tokenByHash[string(hash)] = employeeID
	return next, nil
}

func (r *qrTokenRepositoryImpl) FindByHash(ctx context.Context, hash []byte) (qrcode.Token, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	employeeID, ok := r.s.data.tokenByHash[string(hash)]
	if !ok {
		return qrcode.Token{}, qrcode.ErrInvalidCode
	}
	return r.s.data.tokens[employeeID], nil
}
