package attendance

import "github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"

// Attendance domain errors
var (
	// Check-in / check-out errors
	ErrAlreadyCheckedIn  = apperror.Conflict("ALREADY_CHECKED_IN", "employee has already checked in for this date")
	ErrAlreadyCheckedOut = apperror.Conflict("ALREADY_CHECKED_OUT", "employee has already checked out for this date")
	ErrNoCheckInFound    = apperror.Conflict("NO_CHECK_IN_FOUND", "no check-in recorded for this date")
	ErrOutsideGeofence   = apperror.Validation("OUTSIDE_GEOFENCE", "location is outside the allowed office radius")
	ErrLocationRequired  = apperror.Validation("LOCATION_REQUIRED", "location is required by the attendance rule")
	ErrDepartureTooEarly = apperror.Validation("INVALID_RANGE", "check-out time must not be before check-in time")

	// General errors
	ErrRecordNotFound = apperror.NotFound("NOT_FOUND", "attendance record not found")
	ErrRuleNotFound   = apperror.NotFound("NOT_FOUND", "attendance rule not found")
	ErrInvalidStatus  = apperror.Validation("INVALID_STATUS", "unknown attendance status")
)
