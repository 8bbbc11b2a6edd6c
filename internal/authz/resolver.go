package authz

import (
	"context"
	"fmt"
)

// Directory looks up persisted role assignments. Implemented by the users
// repository.
type Directory interface {
	UserRoles(ctx context.Context, userID, companyID int64) ([]Role, error)
}

// Resolver aggregates a user's effective roles and permissions within one
// company. Collaborators are injected at construction; the resolver holds
// no per-request state.
type Resolver struct {
	catalog   Catalog
	directory Directory
}

// NewResolver constructs a Resolver.
func NewResolver(catalog Catalog, directory Directory) *Resolver {
	return &Resolver{catalog: catalog, directory: directory}
}

// ResolveRoles combines the primary role, any pre-loaded auxiliary roles,
// and, when no auxiliary roles were loaded, the persisted assignments
// from the directory. Roles can arrive via different paths (JWT claims vs
// a fresh directory read), so a valid identity must never resolve to zero
// roles: the primary role is always included.
func (r *Resolver) ResolveRoles(ctx context.Context, id *Identity, companyID int64) ([]Role, error) {
	if id == nil {
		return nil, fmt.Errorf("authz: resolve roles: no identity")
	}

	seen := make(map[Role]struct{})
	roles := make([]Role, 0, 1+len(id.Roles))
	add := func(role Role) {
		if role == "" {
			return
		}
		if _, ok := seen[role]; ok {
			return
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}

	add(id.Role)

	if len(id.Roles) > 0 {
		for _, role := range id.Roles {
			add(role)
		}
		return roles, nil
	}

	if r.directory != nil {
		persisted, err := r.directory.UserRoles(ctx, id.UserID, companyID)
		if err != nil {
			return nil, fmt.Errorf("authz: load persisted roles: %w", err)
		}
		for _, role := range persisted {
			add(role)
		}
	}

	if len(roles) == 0 {
		roles = append(roles, id.Role)
	}
	return roles, nil
}

// ResolvePermissions unions the catalog permission sets of every resolved
// role. All roles are queried even once a permission of interest is
// present: the complete aggregate is also served to clients.
func (r *Resolver) ResolvePermissions(ctx context.Context, id *Identity, companyID int64) (map[string]struct{}, error) {
	roles, err := r.ResolveRoles(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	perms := make(map[string]struct{})
	for _, role := range roles {
		set, err := r.catalog.PermissionsForRole(ctx, companyID, role)
		if err != nil {
			return nil, fmt.Errorf("authz: catalog lookup for role %s: %w", role, err)
		}
		for p := range set {
			perms[p] = struct{}{}
		}
	}
	return perms, nil
}
