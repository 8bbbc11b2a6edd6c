package companies

import (
	"context"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, companyID int64) (*Company, error) {
	return s.repo.Get(ctx, companyID)
}

func (s *Service) Update(ctx context.Context, companyID int64, req UpdateCompanyRequest) (*Company, error) {
	c, err := s.repo.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Timezone != nil {
		c.Timezone = *req.Timezone
	}
	if req.Currency != nil {
		c.Currency = strings.ToUpper(*req.Currency)
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Locations(ctx context.Context, companyID int64) ([]Location, error) {
	return s.repo.Locations(ctx, companyID)
}

func (s *Service) CreateLocation(ctx context.Context, companyID int64, req CreateLocationRequest) (*Location, error) {
	l := &Location{
		CompanyID: companyID,
		Name:      strings.TrimSpace(req.Name),
		Address:   req.Address,
		Phone:     req.Phone,
	}
	if err := s.repo.CreateLocation(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) SetLocationActive(ctx context.Context, companyID, id int64, active bool) error {
	return s.repo.SetLocationActive(ctx, companyID, id, active)
}
