package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/payrun"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayRunHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	ListBulletins(w http.ResponseWriter, r *http.Request)
	Generate(w http.ResponseWriter, r *http.Request)
	Submit(w http.ResponseWriter, r *http.Request)
	Decide(w http.ResponseWriter, r *http.Request)
	ProcessPayments(w http.ResponseWriter, r *http.Request)

	// Policy
	GetPolicy(w http.ResponseWriter, r *http.Request)
	UpdatePolicy(w http.ResponseWriter, r *http.Request)
}

type payRunHandlerImpl struct {
	engine payrun.Engine
}

func NewPayRunHandler(engine payrun.Engine) PayRunHandler {
	return &payRunHandlerImpl{engine: engine}
}

// ========================================
// PAY RUN LIFECYCLE
// ========================================

// Create implements PayRunHandler.
func (h *payRunHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req payrun.CreatePayRunRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	pr, err := h.engine.Create(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Pay run created", payrun.NewPayRunResponse(pr))
}

// Get implements PayRunHandler.
func (h *payRunHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	pr, err := h.engine.GetByID(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payrun.NewPayRunResponse(pr))
}

// ListBulletins implements PayRunHandler.
func (h *payRunHandlerImpl) ListBulletins(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	bulletins, err := h.engine.ListBulletins(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	items := make([]payrun.BulletinResponse, 0, len(bulletins))
	for _, b := range bulletins {
		items = append(items, payrun.NewBulletinResponse(b))
	}
	response.SuccessWithMeta(w, items, &response.Meta{TotalItems: int64(len(items))})
}

// Generate implements PayRunHandler.
func (h *payRunHandlerImpl) Generate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	pr, err := h.engine.Generate(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Bulletins generated", payrun.NewPayRunResponse(pr))
}

// Submit implements PayRunHandler.
func (h *payRunHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	pr, err := h.engine.Submit(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Pay run submitted for approval", payrun.NewPayRunResponse(pr))
}

// Decide implements PayRunHandler.
func (h *payRunHandlerImpl) Decide(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req payrun.DecidePayRunRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	pr, err := h.engine.Decide(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Pay run "+string(pr.Status), payrun.NewPayRunResponse(pr))
}

// ProcessPayments implements PayRunHandler. Per-bulletin failures are reported in the body
// with a 200; only a failure of the whole call is an error status.
func (h *payRunHandlerImpl) ProcessPayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req payrun.ProcessPaymentsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.engine.ProcessPayments(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// ========================================
// POLICY
// ========================================

// GetPolicy implements PayRunHandler.
func (h *payRunHandlerImpl) GetPolicy(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	p, err := h.engine.GetPolicy(r.Context(), actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payrun.NewPolicyResponse(p))
}

// UpdatePolicy implements PayRunHandler.
func (h *payRunHandlerImpl) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req payrun.UpdatePolicyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.engine.UpdatePolicy(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll policy updated", payrun.NewPolicyResponse(p))
}
