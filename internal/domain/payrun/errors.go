package payrun

import "github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"

var (
	ErrPayRunNotFound          = apperror.NotFound("NOT_FOUND", "pay run not found")
	ErrBulletinNotFound        = apperror.NotFound("NOT_FOUND", "bulletin not found in this pay run")
	ErrAlreadyGenerated        = apperror.Conflict("ALREADY_GENERATED", "pay run has already been generated")
	ErrInvalidTransition       = apperror.Conflict("INVALID_TRANSITION", "pay run status does not allow this transition")
	ErrPaymentsNotAllowed      = apperror.Conflict("INVALID_TRANSITION", "payments require an approved or completed pay run")
	ErrAlreadyPaid             = apperror.Conflict("ALREADY_PAID", "bulletin has already been paid")
	ErrBulletinCancelled       = apperror.Conflict("BULLETIN_CANCELLED", "bulletin has been cancelled")
	ErrInvalidRange            = apperror.Validation("INVALID_RANGE", "period end must not be before period start")
	ErrReferenceExists         = apperror.Conflict("REFERENCE_EXISTS", "pay run reference already exists")
	ErrEmployeeHasNoPayRate    = apperror.Validation("NO_PAY_RATE", "employee has no pay rate configured")
	ErrUnsupportedContractType = apperror.Validation("UNSUPPORTED_CONTRACT", "employee contract type is not supported")
)
