package authz

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fixpoint-app/fixpoint/internal/platform/httpx"
)

// Middleware wires role and permission gates for HTTP handlers. It must run
// after authentication: a request without an identity or company scope is a
// wiring bug upstream, and the gate fails closed rather than panicking.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// RequireRole admits the request when the user holds at least one of the
// allowed roles. Primary role is the fast path (no storage access), then
// pre-loaded auxiliary roles, and finally the persisted assignments. The
// storage check is authoritative when the in-memory checks miss.
func (m Middleware) RequireRole(allowed ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(allowed) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			id := IdentityFromContext(r.Context())
			if id == nil || id.CompanyID == 0 {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "no authenticated company context")
				return
			}

			allowedSet := make(map[Role]struct{}, len(allowed))
			for _, role := range allowed {
				allowedSet[role] = struct{}{}
			}

			if _, ok := allowedSet[id.Role]; ok {
				next.ServeHTTP(w, r)
				return
			}
			for _, role := range id.Roles {
				if _, ok := allowedSet[role]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			persisted, err := m.Resolver.directoryRoles(r.Context(), id)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authz require role", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			for _, role := range persisted {
				if _, ok := allowedSet[role]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			httpx.Problem(w, http.StatusForbidden, "Forbidden", "requires role "+joinRoles(allowed))
		})
	}
}

// RequirePermission admits the request when the aggregated permission set of
// every resolved role contains perm. There is no fast path: per-tenant
// catalog contents are dynamic and cannot be assumed fresh from any claim.
func (m Middleware) RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if perm == "" {
				next.ServeHTTP(w, r)
				return
			}
			id := IdentityFromContext(r.Context())
			if id == nil || id.CompanyID == 0 {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "no authenticated company context")
				return
			}

			granted, err := m.Resolver.ResolvePermissions(r.Context(), id, id.CompanyID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authz require permission", slog.String("permission", perm), slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if _, ok := granted[perm]; ok {
				next.ServeHTTP(w, r)
				return
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "requires permission "+perm)
		})
	}
}

// AdminOnly admits admins and superusers.
func (m Middleware) AdminOnly() func(http.Handler) http.Handler {
	return m.RequireRole(RoleSuperuser, RoleAdmin)
}

// ManagerOrAdmin admits managers and above.
func (m Middleware) ManagerOrAdmin() func(http.Handler) http.Handler {
	return m.RequireRole(RoleSuperuser, RoleAdmin, RoleManager)
}

// TechnicianOrAbove admits technicians, managers, and admins.
func (m Middleware) TechnicianOrAbove() func(http.Handler) http.Handler {
	return m.RequireRole(RoleSuperuser, RoleAdmin, RoleManager, RoleTechnician)
}

// directoryRoles performs only the persisted-assignment tier, bypassing the
// in-memory tiers RequireRole already checked.
func (r *Resolver) directoryRoles(ctx context.Context, id *Identity) ([]Role, error) {
	if r == nil || r.directory == nil {
		return nil, nil
	}
	return r.directory.UserRoles(ctx, id.UserID, id.CompanyID)
}

func joinRoles(roles []Role) string {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	return strings.Join(names, " or ")
}
