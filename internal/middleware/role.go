package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/bimora/portal/internal/model"
)

// Moderators may delete reviews.
var Moderators = []model.Role{model.RoleAdmin, model.RoleSuperAdmin, model.RoleTicketManager}

// RequireRole returns middleware that allows only the given roles and answers
// 403 for any other. It must run after RequireAuthenticated; a request
// without a principal is a wiring bug and gets 500.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				slog.Error("authz: role check without principal", "method", r.Method, "uri", r.URL.RequestURI())
				writeError(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
				return
			}
			if !slices.Contains(roles, p.Role) {
				writeError(w, http.StatusForbidden, model.ErrForbidden.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSuperAdmin returns middleware that allows only super_admin users.
func RequireSuperAdmin() func(http.Handler) http.Handler {
	return RequireRole(model.RoleSuperAdmin)
}

// RequireModerator returns middleware that allows any role in Moderators.
func RequireModerator() func(http.Handler) http.Handler {
	return RequireRole(Moderators...)
}
