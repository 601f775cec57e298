package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
)

// RequireManager requires manager or owner role
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			response.HandleError(w, identity.ErrInvalidToken)
			return
		}

		if !actor.IsManager() {
			response.HandleError(w, identity.ErrManagerAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireOwner requires owner role
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			response.HandleError(w, identity.ErrInvalidToken)
			return
		}

		if actor.Role != identity.RoleOwner {
			response.HandleError(w, identity.ErrOwnerAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
