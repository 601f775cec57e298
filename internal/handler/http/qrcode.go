package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/qrcode"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type QRCodeHandler interface {
	Generate(w http.ResponseWriter, r *http.Request)
	Regenerate(w http.ResponseWriter, r *http.Request)
	Scan(w http.ResponseWriter, r *http.Request)
}

type qrCodeHandlerImpl struct {
	codec qrcode.Codec
}

func NewQRCodeHandler(codec qrcode.Codec) QRCodeHandler {
	return &qrCodeHandlerImpl{codec: codec}
}

// Generate implements QRCodeHandler.
func (h *qrCodeHandlerImpl) Generate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	token, err := h.codec.Generate(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "QR token issued", qrcode.NewTokenResponse(token))
}

// Regenerate implements QRCodeHandler.
func (h *qrCodeHandlerImpl) Regenerate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	token, err := h.codec.Regenerate(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "QR token rotated", qrcode.NewTokenResponse(token))
}

// Scan implements QRCodeHandler.
func (h *qrCodeHandlerImpl) Scan(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req qrcode.ScanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.codec.Scan(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, qrcode.NewScanResponse(result))
}
