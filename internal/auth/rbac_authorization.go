package auth

import (
	"net/http"
	"slices"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/transport"
)

// RBACAuthorization resolves the caller's role on every request and gates
// routes by role name.
type RBACAuthorization struct {
	*transport.BaseHandler
	resolver RoleResolver
}

func NewRBACAuthorization(baseHandler *transport.BaseHandler, resolver RoleResolver) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: baseHandler,
		resolver:    resolver,
	}
}

// ResolveRole must run after AuthMiddleware. Users without a role get 403.
func (ra *RBACAuthorization) ResolveRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := internal.UserFromContext(r.Context())
		if !ok {
			ra.HandleServiceError(w, internal.ErrMissingToken)
			return
		}

		role, err := ra.resolver.ResolveRole(r.Context(), user.ID)
		if err != nil {
			ra.Logger.WarnContext(r.Context(), "role resolution failed", "user_id", user.ID, "error", err)
			ra.HandleServiceError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(internal.ContextWithRole(r.Context(), role)))
	})
}

// RequireRole allows the request only when the resolved role is one of roles.
func (ra *RBACAuthorization) RequireRole(roles ...internal.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := internal.RoleFromContext(r.Context())
			if !ok || !slices.Contains(roles, role) {
				user, _ := internal.UserFromContext(r.Context())
				ra.Logger.WarnContext(r.Context(), "access denied: role not permitted",
					"user_id", user.ID,
					"role", role,
					"required_roles", roles)
				ra.HandleServiceError(w, internal.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequireRole(internal.RoleAdmin)
}

func (ra *RBACAuthorization) RequireManager() func(http.Handler) http.Handler {
	return ra.RequireRole(internal.RoleAdmin, internal.RoleDepartmentManager)
}
