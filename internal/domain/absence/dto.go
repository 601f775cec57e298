package absence

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateAbsenceRequest struct {
	EmployeeID string  `json:"employee_id"`
	Type       string  `json:"type"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Reason     *string `json:"reason,omitempty"`
}

// Validate checks formats only; the range check is a business rule and returns ErrInvalidRange.
// MaxRangeDays bounds a single absence request.
const MaxRangeDays = 366

func (r *CreateAbsenceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	} else if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}

	if _, err := ParseType(r.Type); err != nil {
		errs.Add("type", "type must be a known absence type")
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs.Add("start_date", "start_date must be YYYY-MM-DD")
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs.Add("end_date", "end_date must be YYYY-MM-DD")
	}
	if startOK && endOK && end.After(start.AddDate(0, 0, MaxRangeDays-1)) {
		errs.Add("end_date", fmt.Sprintf("absence must not span more than %d days", MaxRangeDays))
	}

	if r.Reason != nil && len(*r.Reason) > 1000 {
		errs.Add("reason", "reason must not exceed 1000 characters")
	}

	return errs.Err()
}

func (r CreateAbsenceRequest) Range() (start, end time.Time) {
	start, _ = validator.IsValidDate(r.StartDate)
	end, _ = validator.IsValidDate(r.EndDate)
	return start, end
}

type DecideAbsenceRequest struct {
	Status  string  `json:"status"`
	Comment *string `json:"comment,omitempty"`
}

func (r *DecideAbsenceRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, err := ParseDecision(r.Status); err != nil {
		errs.Add("status", "status must be APPROVED, REJECTED or CANCELLED")
	}
	if r.Comment != nil && len(*r.Comment) > 1000 {
		errs.Add("comment", "comment must not exceed 1000 characters")
	}

	return errs.Err()
}

type AbsenceResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	Type            Type            `json:"type"`
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	Reason          *string         `json:"reason,omitempty"`
	Status          Status          `json:"status"`
	WorkingDays     int             `json:"working_days"`
	Hours           decimal.Decimal `json:"hours"`
	RequestedBy     string          `json:"requested_by"`
	DecidedBy       *string         `json:"decided_by,omitempty"`
	DecidedAt       *string         `json:"decided_at,omitempty"`
	DecisionComment *string         `json:"decision_comment,omitempty"`
	CreatedAt       string          `json:"created_at"`
}

func NewAbsenceResponse(a Absence) AbsenceResponse {
	resp := AbsenceResponse{
		ID:              a.ID,
		EmployeeID:      a.EmployeeID,
		Type:            a.Type,
		StartDate:       a.StartDate.Format("2006-01-02"),
		EndDate:         a.EndDate.Format("2006-01-02"),
		Reason:          a.Reason,
		Status:          a.Status,
		WorkingDays:     a.WorkingDays,
		Hours:           a.Hours,
		RequestedBy:     a.RequestedBy,
		DecidedBy:       a.DecidedBy,
		DecisionComment: a.DecisionComment,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}
	if a.DecidedAt != nil {
		s := a.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &s
	}
	return resp
}
