package absence

import "github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"

var (
	ErrInvalidRange       = apperror.Validation("INVALID_RANGE", "end date must not be before start date")
	ErrNoWorkingDays      = apperror.Validation("NO_WORKING_DAYS", "requested range contains no working day")
	ErrInvalidTransition  = apperror.Conflict("INVALID_TRANSITION", "absence has already been decided")
	ErrOverlappingAbsence = apperror.Conflict("OVERLAPPING_ABSENCE", "absence overlaps a pending or approved absence")
	ErrAbsenceNotFound    = apperror.NotFound("NOT_FOUND", "absence not found")
)
