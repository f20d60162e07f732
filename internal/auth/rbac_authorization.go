package auth

import (
	"log/slog"
	"net/http"
)

// RBACAuthorization gates routes on the caller's resolved access. Checks
// compose with OR: the caller passes if they hold at least one of the
// listed permissions or roles. The same endpoint is reachable by multiple
// independent roles, so AND composition would force duplicate routes.
type RBACAuthorization struct {
	logger *slog.Logger
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{logger: logger}
}

// RequirePermission allows the request through if the caller holds any of
// the given permissions. The deny response never names the missing
// permission.
func (ra *RBACAuthorization) RequirePermission(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := AccessFromContext(r.Context())
			if !ok || access == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !access.HasAnyPermission(permissions...) {
				ra.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"email", access.Email,
					"required_permissions", permissions)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole is the role-based variant, same OR semantics.
func (ra *RBACAuthorization) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := AccessFromContext(r.Context())
			if !ok || access == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !access.HasAnyRole(roles...) {
				ra.logger.WarnContext(r.Context(), "access denied: insufficient role",
					"email", access.Email,
					"required_roles", roles)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
