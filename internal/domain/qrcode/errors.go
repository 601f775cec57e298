package qrcode

import "github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"

var (
	ErrInvalidCode    = apperror.NotFound("INVALID_CODE", "QR code is invalid or no longer active")
	ErrTokenNotIssued = apperror.NotFound("NOT_FOUND", "no QR token has been issued for this employee")
)
