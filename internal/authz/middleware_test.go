package authz

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fixpoint-app/fixpoint/internal/platform/httpx"
)

func gateRequest(t *testing.T, id *Identity, mw func(http.Handler) http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
	if id != nil {
		req = req.WithContext(ContextWithIdentity(req.Context(), id))
	}
	res := httptest.NewRecorder()
	mw(next).ServeHTTP(res, req)
	if res.Code == http.StatusNoContent && !called {
		t.Fatalf("next reported success without being invoked")
	}
	return res
}

func decodeProblem(t *testing.T, res *httptest.ResponseRecorder) httpx.ProblemDetail {
	t.Helper()
	var problem httpx.ProblemDetail
	if err := json.NewDecoder(res.Body).Decode(&problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	return problem
}

func TestRequireRoleMissingIdentity(t *testing.T) {
	m := Middleware{Resolver: NewResolver(testCatalog(), &stubDirectory{})}
	res := gateRequest(t, nil, m.RequireRole(RoleAdmin))
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

func TestRequireRoleMissingCompany(t *testing.T) {
	m := Middleware{Resolver: NewResolver(testCatalog(), &stubDirectory{})}
	res := gateRequest(t, &Identity{UserID: 1, Role: RoleAdmin}, m.RequireRole(RoleAdmin))
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

func TestRequireRoleFastPath(t *testing.T) {
	dir := &stubDirectory{}
	m := Middleware{Resolver: NewResolver(testCatalog(), dir)}
	res := gateRequest(t, &Identity{UserID: 1, CompanyID: 1, Role: RoleAdmin}, m.RequireRole(RoleAdmin))
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if dir.calls != 0 {
		t.Fatalf("fast path must not touch storage, got %d calls", dir.calls)
	}
}

func TestRequireRoleAuxiliaryRoles(t *testing.T) {
	m := Middleware{Resolver: NewResolver(testCatalog(), &stubDirectory{})}
	id := &Identity{UserID: 1, CompanyID: 1, Role: RoleTechnician, Roles: []Role{RoleTechnician, RoleManager}}
	res := gateRequest(t, id, m.RequireRole(RoleManager))
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
}

func TestRequireRoleFallbackAuthoritative(t *testing.T) {
	// The persisted assignments contain no admin row, so a technician is
	// denied regardless of what any stale claim said.
	dir := &stubDirectory{roles: map[int64][]Role{1: {RoleTechnician}}}
	m := Middleware{Resolver: NewResolver(testCatalog(), dir)}
	id := &Identity{UserID: 1, CompanyID: 1, Role: RoleTechnician}
	res := gateRequest(t, id, m.RequireRole(RoleAdmin))
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
	if dir.calls != 1 {
		t.Fatalf("expected a single fallback lookup, got %d", dir.calls)
	}
	problem := decodeProblem(t, res)
	if !strings.Contains(problem.Detail, "admin") {
		t.Fatalf("403 detail should name the required role, got %q", problem.Detail)
	}
}

func TestRequireRoleFallbackGrants(t *testing.T) {
	dir := &stubDirectory{roles: map[int64][]Role{1: {RoleTechnician, RoleManager}}}
	m := Middleware{Resolver: NewResolver(testCatalog(), dir)}
	id := &Identity{UserID: 1, CompanyID: 1, Role: RoleTechnician}
	res := gateRequest(t, id, m.RequireRole(RoleManager))
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
}

func TestRequireRoleStorageError(t *testing.T) {
	dir := &stubDirectory{err: errors.New("pg down")}
	m := Middleware{Resolver: NewResolver(testCatalog(), dir)}
	id := &Identity{UserID: 1, CompanyID: 1, Role: RoleTechnician}
	res := gateRequest(t, id, m.RequireRole(RoleAdmin))
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}

func TestRequirePermissionGrants(t *testing.T) {
	m := Middleware{Resolver: NewResolver(testCatalog(), &stubDirectory{})}
	id := &Identity{UserID: 1, CompanyID: 1, Role: RoleAdmin, Roles: []Role{RoleAdmin}}
	res := gateRequest(t, id, m.RequirePermission(PermSettingsAccess))
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
}

func TestRequirePermissionTenantIsolation(t *testing.T) {
	// Company 2's catalog does not grant settings.access to admins even
	// though company 1's does.
	m := Middleware{Resolver: NewResolver(testCatalog(), &stubDirectory{})}
	id := &Identity{UserID: 1, CompanyID: 2, Role: RoleAdmin, Roles: []Role{RoleAdmin}}
	res := gateRequest(t, id, m.RequirePermission(PermSettingsAccess))
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
	problem := decodeProblem(t, res)
	if !strings.Contains(problem.Detail, PermSettingsAccess) {
		t.Fatalf("403 detail should name the permission, got %q", problem.Detail)
	}
}

func TestRequirePermissionDefaultsToPrimaryRole(t *testing.T) {
	m := Middleware{Resolver: NewResolver(testCatalog(), &stubDirectory{})}
	id := &Identity{UserID: 1, CompanyID: 1, Role: RoleTechnician}
	res := gateRequest(t, id, m.RequirePermission(PermTicketsEdit))
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
}

type failingCatalog struct{}

func (failingCatalog) PermissionsForRole(context.Context, int64, Role) (map[string]struct{}, error) {
	return nil, errors.New("catalog unavailable")
}

func TestRequirePermissionCatalogError(t *testing.T) {
	m := Middleware{Resolver: NewResolver(failingCatalog{}, &stubDirectory{})}
	id := &Identity{UserID: 1, CompanyID: 1, Role: RoleAdmin, Roles: []Role{RoleAdmin}}
	res := gateRequest(t, id, m.RequirePermission(PermSettingsAccess))
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}

func TestConvenienceCompositions(t *testing.T) {
	m := Middleware{Resolver: NewResolver(testCatalog(), &stubDirectory{})}

	cases := []struct {
		name string
		mw   func(http.Handler) http.Handler
		role Role
		want int
	}{
		{"admin only admits admin", m.AdminOnly(), RoleAdmin, http.StatusNoContent},
		{"admin only rejects manager", m.AdminOnly(), RoleManager, http.StatusForbidden},
		{"manager or admin admits manager", m.ManagerOrAdmin(), RoleManager, http.StatusNoContent},
		{"technician or above admits technician", m.TechnicianOrAbove(), RoleTechnician, http.StatusNoContent},
		{"technician or above rejects frontdesk", m.TechnicianOrAbove(), RoleFrontdesk, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := &Identity{UserID: 1, CompanyID: 1, Role: tc.role, Roles: []Role{tc.role}}
			res := gateRequest(t, id, tc.mw)
			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.Code)
			}
		})
	}
}
