package customers

import (
	"context"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, companyID, actorID int64, req CreateCustomerRequest) (*Customer, error) {
	c := &Customer{
		Code:         strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:         strings.TrimSpace(req.Name),
		CompanyID:    companyID,
		Email:        req.Email,
		Phone:        req.Phone,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		PostalCode:   req.PostalCode,
		IsActive:     true,
		Notes:        req.Notes,
		CreatedBy:    actorID,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*Customer, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID int64, filter ListFilter) ([]Customer, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, companyID, filter)
}

func (s *Service) Update(ctx context.Context, companyID, id int64, req UpdateCustomerRequest) (*Customer, error) {
	c, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.Phone != nil {
		c.Phone = req.Phone
	}
	if req.AddressLine1 != nil {
		c.AddressLine1 = req.AddressLine1
	}
	if req.AddressLine2 != nil {
		c.AddressLine2 = req.AddressLine2
	}
	if req.City != nil {
		c.City = req.City
	}
	if req.PostalCode != nil {
		c.PostalCode = req.PostalCode
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if req.Notes != nil {
		c.Notes = req.Notes
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
