package identity

import "github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"

var (
	ErrInvalidToken           = apperror.New(apperror.KindUnauthorized, "UNAUTHORIZED", "invalid or missing token")
	ErrCompanyIDRequired      = apperror.New(apperror.KindUnauthorized, "COMPANY_REQUIRED", "company id required in token")
	ErrManagerAccessRequired  = apperror.New(apperror.KindForbidden, "FORBIDDEN", "manager or owner access required")
	ErrOwnerAccessRequired    = apperror.New(apperror.KindForbidden, "FORBIDDEN", "owner access required")
	ErrEmployeeAccessRequired = apperror.New(apperror.KindForbidden, "FORBIDDEN", "operation not permitted for this employee")
)
