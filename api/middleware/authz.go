package middleware

import (
	"net/http"

	"github.com/adriansoto/stockpilot-backend/api/responses"
	"github.com/adriansoto/stockpilot-backend/pkg/authz"
	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/adriansoto/stockpilot-backend/pkg/logger"
)

// RequireAction gates a route on the actor's capability set. It assumes
// ActorContext already ran.
func RequireAction(action authz.Action, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := ActorRoleFromContext(r.Context())
			if !authz.Authorized(action, role) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeForbidden, "role %s may not %s", role, action))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
