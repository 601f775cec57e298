package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
)

type RuleHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Upsert(w http.ResponseWriter, r *http.Request)
}

type ruleHandlerImpl struct {
	ruleService attendance.RuleService
}

func NewRuleHandler(ruleService attendance.RuleService) RuleHandler {
	return &ruleHandlerImpl{ruleService: ruleService}
}

// Get implements RuleHandler.
func (h *ruleHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	rule, err := h.ruleService.GetRule(r.Context(), actor.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, attendance.NewRuleResponse(rule))
}

// Upsert implements RuleHandler.
func (h *ruleHandlerImpl) Upsert(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req attendance.UpsertRuleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rule, err := h.ruleService.UpsertRule(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance rule saved", attendance.NewRuleResponse(rule))
}
