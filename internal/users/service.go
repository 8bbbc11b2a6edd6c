package users

import (
	"context"
	"fmt"

	"github.com/fixpoint-app/fixpoint/internal/authz"
)

// Service handles user directory business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns one user within the company.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*User, error) {
	return s.repo.Get(ctx, companyID, id)
}

// List returns users matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

// AddRole grants an additional role to a user within the company.
func (s *Service) AddRole(ctx context.Context, userID, companyID int64, role authz.Role) error {
	if role == "" {
		return fmt.Errorf("users: role required")
	}
	if role == authz.RoleSuperuser {
		// Superuser is provisioned out of band, never via the API.
		return fmt.Errorf("users: superuser cannot be granted")
	}
	if _, err := s.repo.Get(ctx, companyID, userID); err != nil {
		return err
	}
	return s.repo.AddRole(ctx, userID, companyID, role)
}

// RemoveRole revokes a role. The primary role cannot be revoked here and the
// last active admin of a company is protected.
func (s *Service) RemoveRole(ctx context.Context, userID, companyID int64, role authz.Role) error {
	user, err := s.repo.Get(ctx, companyID, userID)
	if err != nil {
		return err
	}
	if role == authz.RoleAdmin && user.Role == authz.RoleAdmin {
		admins, err := s.repo.CountAdmins(ctx, companyID)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}
	return s.repo.RemoveRole(ctx, userID, companyID, role)
}

// Activate re-enables a deactivated account.
func (s *Service) Activate(ctx context.Context, companyID, id int64) error {
	return s.repo.SetActive(ctx, companyID, id, true)
}

// Deactivate disables an account, keeping its history.
func (s *Service) Deactivate(ctx context.Context, companyID, id int64) error {
	user, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return err
	}
	if user.Role == authz.RoleAdmin {
		admins, err := s.repo.CountAdmins(ctx, companyID)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}
	return s.repo.SetActive(ctx, companyID, id, false)
}
