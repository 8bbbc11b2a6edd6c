package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubDirectory struct {
	roles map[int64][]Role
	err   error
	calls int
}

func (d *stubDirectory) UserRoles(_ context.Context, userID, _ int64) ([]Role, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.roles[userID], nil
}

func testCatalog() *StaticCatalog {
	return &StaticCatalog{Grants: map[int64]map[Role][]string{
		1: {
			RoleAdmin:      {PermSettingsAccess, PermUsersRead, PermUsersEdit},
			RoleTechnician: {PermTicketsRead, PermTicketsEdit},
			RoleManager:    {PermTicketsRead, PermInvoicesRead, PermInvoicesEdit},
		},
		2: {
			RoleAdmin: {PermUsersRead},
		},
	}}
}

func TestResolveRolesPrimaryAlwaysIncluded(t *testing.T) {
	r := NewResolver(testCatalog(), &stubDirectory{})
	id := &Identity{UserID: 7, CompanyID: 1, Role: RoleTechnician}

	roles, err := r.ResolveRoles(context.Background(), id, 1)
	require.NoError(t, err)
	require.Equal(t, []Role{RoleTechnician}, roles)
}

func TestResolveRolesAuxiliarySkipsDirectory(t *testing.T) {
	dir := &stubDirectory{roles: map[int64][]Role{7: {RoleManager}}}
	r := NewResolver(testCatalog(), dir)
	id := &Identity{UserID: 7, CompanyID: 1, Role: RoleTechnician, Roles: []Role{RoleManager, RoleTechnician}}

	roles, err := r.ResolveRoles(context.Background(), id, 1)
	require.NoError(t, err)
	require.ElementsMatch(t, []Role{RoleTechnician, RoleManager}, roles)
	require.Zero(t, dir.calls, "directory must not be queried when auxiliary roles are loaded")
}

func TestResolveRolesFallsBackToDirectory(t *testing.T) {
	dir := &stubDirectory{roles: map[int64][]Role{7: {RoleTechnician, RoleManager}}}
	r := NewResolver(testCatalog(), dir)
	id := &Identity{UserID: 7, CompanyID: 1, Role: RoleTechnician}

	roles, err := r.ResolveRoles(context.Background(), id, 1)
	require.NoError(t, err)
	require.ElementsMatch(t, []Role{RoleTechnician, RoleManager}, roles)
	require.Equal(t, 1, dir.calls)
}

func TestResolveRolesDirectoryError(t *testing.T) {
	dir := &stubDirectory{err: errors.New("pg down")}
	r := NewResolver(testCatalog(), dir)
	id := &Identity{UserID: 7, CompanyID: 1, Role: RoleTechnician}

	_, err := r.ResolveRoles(context.Background(), id, 1)
	require.Error(t, err)
}

func TestResolvePermissionsUnionIsMonotonic(t *testing.T) {
	catalog := testCatalog()
	r := NewResolver(catalog, &stubDirectory{})
	ctx := context.Background()

	single := &Identity{UserID: 7, CompanyID: 1, Role: RoleTechnician, Roles: []Role{RoleTechnician}}
	both := &Identity{UserID: 7, CompanyID: 1, Role: RoleTechnician, Roles: []Role{RoleTechnician, RoleManager}}

	singlePerms, err := r.ResolvePermissions(ctx, single, 1)
	require.NoError(t, err)
	bothPerms, err := r.ResolvePermissions(ctx, both, 1)
	require.NoError(t, err)

	for p := range singlePerms {
		require.Contains(t, bothPerms, p)
	}
	managerPerms, err := catalog.PermissionsForRole(ctx, 1, RoleManager)
	require.NoError(t, err)
	for p := range managerPerms {
		require.Contains(t, bothPerms, p)
	}
}

func TestResolvePermissionsTenantIsolation(t *testing.T) {
	r := NewResolver(testCatalog(), &stubDirectory{})
	ctx := context.Background()

	companyOne := &Identity{UserID: 7, CompanyID: 1, Role: RoleAdmin, Roles: []Role{RoleAdmin}}
	companyTwo := &Identity{UserID: 8, CompanyID: 2, Role: RoleAdmin, Roles: []Role{RoleAdmin}}

	perms, err := r.ResolvePermissions(ctx, companyOne, 1)
	require.NoError(t, err)
	require.Contains(t, perms, PermSettingsAccess)

	perms, err = r.ResolvePermissions(ctx, companyTwo, 2)
	require.NoError(t, err)
	require.NotContains(t, perms, PermSettingsAccess)
}

func TestResolvePermissionsIdempotent(t *testing.T) {
	dir := &stubDirectory{roles: map[int64][]Role{7: {RoleTechnician, RoleManager}}}
	r := NewResolver(testCatalog(), dir)
	ctx := context.Background()
	id := &Identity{UserID: 7, CompanyID: 1, Role: RoleTechnician}

	first, err := r.ResolvePermissions(ctx, id, 1)
	require.NoError(t, err)
	second, err := r.ResolvePermissions(ctx, id, 1)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Empty(t, id.Roles, "resolution must not mutate the identity")
}

func TestCatalogUnknownRoleEmptySet(t *testing.T) {
	catalog := testCatalog()
	set, err := catalog.PermissionsForRole(context.Background(), 1, Role("night-shift"))
	require.NoError(t, err)
	require.Empty(t, set)
}
