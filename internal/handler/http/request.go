package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
)

const maxBodyBytes = 1 << 20

// decodeJSON writes a 400 and returns false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Debug("Failed to decode request body", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// actorFrom writes a 401 and returns false when AuthRequired did not run.
func actorFrom(w http.ResponseWriter, r *http.Request) (identity.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.HandleError(w, identity.ErrInvalidToken)
		return identity.Actor{}, false
	}
	return actor, true
}

// requireActsFor writes a 403 unless the actor is a manager or the employee themself.
func requireActsFor(w http.ResponseWriter, actor identity.Actor, employeeID string) bool {
	if !actor.ActsFor(employeeID) {
		response.HandleError(w, identity.ErrEmployeeAccessRequired)
		return false
	}
	return true
}
