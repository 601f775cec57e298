package qrcode

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type ScanRequest struct {
	Token      string   `json:"token"`
	Direction  string   `json:"direction"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	DeviceInfo *string  `json:"device_info,omitempty"`
}

func (r *ScanRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Token) {
		errs.Add("token", "token is required")
	}
	if _, err := attendance.ParseDirection(r.Direction); err != nil {
		errs.Add("direction", "direction must be CHECK_IN or CHECK_OUT")
	}
	errs = append(errs, attendance.ValidateCoordinates(r.Latitude, r.Longitude)...)
	if r.DeviceInfo != nil && len(*r.DeviceInfo) > 255 {
		errs.Add("device_info", "device_info must not exceed 255 characters")
	}

	return errs.Err()
}

func (r ScanRequest) Capture() attendance.Capture {
	return attendance.NewCapture(r.Latitude, r.Longitude, r.DeviceInfo)
}

type ScanResponse struct {
	Employee  employee.Summary          `json:"employee"`
	Record    attendance.RecordResponse `json:"attendance_record"`
	Direction attendance.Direction      `json:"direction"`
	Timestamp string                    `json:"timestamp"`
	Status    attendance.Status         `json:"status"`
}

func NewScanResponse(res ScanResult) ScanResponse {
	return ScanResponse{
		Employee:  res.Employee,
		Record:    attendance.NewRecordResponse(res.Record),
		Direction: res.Direction,
		Timestamp: res.Timestamp.Format(time.RFC3339),
		Status:    res.Status,
	}
}

type TokenResponse struct {
	EmployeeID string `json:"employee_id"`
	Token      string `json:"token"`
	Version    int    `json:"version"`
	IssuedAt   string `json:"issued_at"`
}

func NewTokenResponse(t IssuedToken) TokenResponse {
	return TokenResponse{
		EmployeeID: t.EmployeeID,
		Token:      t.Token,
		Version:    t.Version,
		IssuedAt:   t.IssuedAt.Format(time.RFC3339),
	}
}
