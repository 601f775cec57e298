package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Validate(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.RecordService
	clock             clock.Clock
}

func NewAttendanceHandler(attendanceService attendance.RecordService, clk clock.Clock) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		clock:             clk,
	}
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req attendance.EventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}
	if !requireActsFor(w, actor, req.EmployeeID) {
		return
	}

	rec, err := h.attendanceService.CheckIn(r.Context(), actor, req.EmployeeID, req.At(h.clock.Now()), req.Capture())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Check in successful", attendance.CheckInResponse{
		Record:      attendance.NewRecordResponse(rec),
		CheckInTime: rec.ArrivalAt.Format(time.RFC3339),
	})
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req attendance.EventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}
	if !requireActsFor(w, actor, req.EmployeeID) {
		return
	}

	rec, err := h.attendanceService.CheckOut(r.Context(), actor, req.EmployeeID, req.At(h.clock.Now()), req.Capture())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Check out successful", attendance.CheckOutResponse{
		Record:       attendance.NewRecordResponse(rec),
		CheckOutTime: rec.DepartureAt.Format(time.RFC3339),
		Status:       rec.Status,
	})
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req attendance.ListRecordsRequest
	query := r.URL.Query()
	if employeeID := query.Get("employee_id"); employeeID != "" {
		req.EmployeeID = &employeeID
	}
	if from := query.Get("from"); from != "" {
		req.From = &from
	}
	if to := query.Get("to"); to != "" {
		req.To = &to
	}
	// Employees only see their own records.
	if !actor.IsManager() {
		if actor.EmployeeID == nil {
			response.HandleError(w, identity.ErrEmployeeAccessRequired)
			return
		}
		req.EmployeeID = actor.EmployeeID
	}

	records, err := h.attendanceService.List(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	items := make([]attendance.RecordResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, attendance.NewRecordResponse(rec))
	}
	response.SuccessWithMeta(w, items, &response.Meta{TotalItems: int64(len(items))})
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	rec, err := h.attendanceService.GetByID(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, attendance.NewRecordResponse(rec))
}

// Validate implements AttendanceHandler.
func (h *attendanceHandlerImpl) Validate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req attendance.ValidateRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.attendanceService.Validate(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance record validated", attendance.NewRecordResponse(rec))
}
