package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/absence"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AbsenceHandler interface {
	Request(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Decide(w http.ResponseWriter, r *http.Request)
}

type absenceHandlerImpl struct {
	workflow absence.Workflow
}

func NewAbsenceHandler(workflow absence.Workflow) AbsenceHandler {
	return &absenceHandlerImpl{workflow: workflow}
}

// Request implements AbsenceHandler.
func (h *absenceHandlerImpl) Request(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req absence.CreateAbsenceRequest
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

	a, err := h.workflow.Request(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Absence requested", absence.NewAbsenceResponse(a))
}

// Get implements AbsenceHandler.
func (h *absenceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	a, err := h.workflow.GetByID(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, absence.NewAbsenceResponse(a))
}

// Decide implements AbsenceHandler.
func (h *absenceHandlerImpl) Decide(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req absence.DecideAbsenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	a, err := h.workflow.Decide(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Absence "+string(a.Status), absence.NewAbsenceResponse(a))
}
