package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fixpoint-app/fixpoint/internal/authz"
)

type memoryRepo struct {
	users map[int64]*User
	roles map[int64][]authz.Role
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]*User), roles: make(map[int64][]authz.Role)}
}

func (r *memoryRepo) Get(_ context.Context, companyID, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok || u.CompanyID != companyID {
		return nil, ErrNotFound
	}
	copied := *u
	copied.Roles = append([]authz.Role(nil), r.roles[id]...)
	return &copied, nil
}

func (r *memoryRepo) List(_ context.Context, filter ListFilter) ([]User, int, error) {
	var out []User
	for _, u := range r.users {
		if u.CompanyID == filter.CompanyID {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) UserRoles(_ context.Context, userID, _ int64) ([]authz.Role, error) {
	return r.roles[userID], nil
}

func (r *memoryRepo) AddRole(_ context.Context, userID, _ int64, role authz.Role) error {
	for _, existing := range r.roles[userID] {
		if existing == role {
			return nil
		}
	}
	r.roles[userID] = append(r.roles[userID], role)
	return nil
}

func (r *memoryRepo) RemoveRole(_ context.Context, userID, _ int64, role authz.Role) error {
	kept := r.roles[userID][:0]
	for _, existing := range r.roles[userID] {
		if existing != role {
			kept = append(kept, existing)
		}
	}
	r.roles[userID] = kept
	return nil
}

func (r *memoryRepo) SetActive(_ context.Context, companyID, id int64, active bool) error {
	u, ok := r.users[id]
	if !ok || u.CompanyID != companyID {
		return ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (r *memoryRepo) CountAdmins(_ context.Context, companyID int64) (int, error) {
	count := 0
	for _, u := range r.users {
		if u.CompanyID == companyID && u.Role == authz.RoleAdmin && u.IsActive {
			count++
		}
	}
	return count, nil
}

func seedRepo() *memoryRepo {
	repo := newMemoryRepo()
	repo.users[1] = &User{ID: 1, CompanyID: 1, Name: "Ana", Role: authz.RoleAdmin, IsActive: true}
	repo.users[2] = &User{ID: 2, CompanyID: 1, Name: "Ben", Role: authz.RoleTechnician, IsActive: true}
	repo.roles[1] = []authz.Role{authz.RoleAdmin}
	repo.roles[2] = []authz.Role{authz.RoleTechnician}
	return repo
}

func TestAddRoleRejectsSuperuser(t *testing.T) {
	svc := NewService(seedRepo())
	err := svc.AddRole(context.Background(), 2, 1, authz.RoleSuperuser)
	require.Error(t, err)
}

func TestAddRoleIsIdempotent(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.AddRole(ctx, 2, 1, authz.RoleManager))
	require.NoError(t, svc.AddRole(ctx, 2, 1, authz.RoleManager))
	roles, err := repo.UserRoles(ctx, 2, 1)
	require.NoError(t, err)
	require.Equal(t, []authz.Role{authz.RoleTechnician, authz.RoleManager}, roles)
}

func TestRemoveRoleProtectsLastAdmin(t *testing.T) {
	svc := NewService(seedRepo())
	err := svc.RemoveRole(context.Background(), 1, 1, authz.RoleAdmin)
	require.ErrorIs(t, err, ErrLastAdmin)
}

func TestDeactivateProtectsLastAdmin(t *testing.T) {
	svc := NewService(seedRepo())
	err := svc.Deactivate(context.Background(), 1, 1)
	require.ErrorIs(t, err, ErrLastAdmin)
}

func TestDeactivateTechnician(t *testing.T) {
	repo := seedRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Deactivate(ctx, 1, 2))
	u, err := repo.Get(ctx, 1, 2)
	require.NoError(t, err)
	require.False(t, u.IsActive)
}

func TestGetScopedToCompany(t *testing.T) {
	svc := NewService(seedRepo())
	_, err := svc.Get(context.Background(), 99, 1)
	require.ErrorIs(t, err, ErrNotFound)
}
