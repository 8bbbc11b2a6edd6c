package authz

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Catalog maps a role to its permission set under one tenant. An unknown
// role yields an empty set, never an error: callers treat "no permissions"
// as the safe default.
type Catalog interface {
	PermissionsForRole(ctx context.Context, companyID int64, role Role) (map[string]struct{}, error)
}

// defaultRolePermissions is the built-in catalog applied when a tenant has
// no override rows for a role.
var defaultRolePermissions = map[Role][]string{
	RoleSuperuser: AllScopes(),
	RoleAdmin:     AllScopes(),
	RoleManager: {
		PermCustomersRead, PermCustomersEdit,
		PermTicketsRead, PermTicketsEdit, PermTicketsAssign,
		PermInvoicesRead, PermInvoicesEdit, PermInvoicesVoid,
		PermInventoryRead, PermInventoryEdit,
		PermDrawersRead, PermDrawersManage,
		PermChecklistsRead, PermChecklistsEdit,
		PermUsersRead,
		PermReportsRead,
	},
	RoleTechnician: {
		PermCustomersRead,
		PermTicketsRead, PermTicketsEdit,
		PermInventoryRead,
		PermChecklistsRead, PermChecklistsEdit,
	},
	RoleFrontdesk: {
		PermCustomersRead, PermCustomersEdit,
		PermTicketsRead,
		PermInvoicesRead, PermInvoicesEdit,
		PermDrawersRead,
	},
}

// DefaultPermissions returns the built-in permission set for a role.
func DefaultPermissions(role Role) map[string]struct{} {
	perms := defaultRolePermissions[role]
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// PGCatalog reads per-company role permissions from PostgreSQL. Tenants
// without override rows for a built-in role fall back to the defaults.
type PGCatalog struct {
	pool *pgxpool.Pool
}

// NewPGCatalog constructs a PGCatalog backed by the provided pool.
func NewPGCatalog(pool *pgxpool.Pool) *PGCatalog {
	return &PGCatalog{pool: pool}
}

// PermissionsForRole implements Catalog.
func (c *PGCatalog) PermissionsForRole(ctx context.Context, companyID int64, role Role) (map[string]struct{}, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT permission FROM role_permissions WHERE company_id = $1 AND role = $2`,
		companyID, string(role))
	if err != nil {
		return nil, fmt.Errorf("authz: query role permissions: %w", err)
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var perm string
		if err := rows.Scan(&perm); err != nil {
			return nil, fmt.Errorf("authz: scan role permission: %w", err)
		}
		set[perm] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("authz: iterate role permissions: %w", err)
	}
	if len(set) == 0 {
		return DefaultPermissions(role), nil
	}
	return set, nil
}

// StaticCatalog serves a fixed per-company mapping. Used in tests and as a
// zero-dependency fallback deployment mode.
type StaticCatalog struct {
	Grants map[int64]map[Role][]string
}

// PermissionsForRole implements Catalog.
func (c *StaticCatalog) PermissionsForRole(_ context.Context, companyID int64, role Role) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	if c == nil || c.Grants == nil {
		return set, nil
	}
	for _, p := range c.Grants[companyID][role] {
		set[p] = struct{}{}
	}
	return set, nil
}

var (
	_ Catalog = (*PGCatalog)(nil)
	_ Catalog = (*StaticCatalog)(nil)
)
