package customers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	nextID    int64
	customers map[int64]*Customer
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, customers: map[int64]*Customer{}}
}

func (m *memoryRepo) Create(_ context.Context, c *Customer) error {
	for _, existing := range m.customers {
		if existing.CompanyID == c.CompanyID && existing.Code == c.Code {
			return ErrCodeTaken
		}
	}
	c.ID = m.nextID
	m.nextID++
	cp := *c
	m.customers[c.ID] = &cp
	return nil
}

func (m *memoryRepo) Get(_ context.Context, companyID, id int64) (*Customer, error) {
	c, ok := m.customers[id]
	if !ok || c.CompanyID != companyID {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memoryRepo) List(_ context.Context, companyID int64, filter ListFilter) ([]Customer, int64, error) {
	var out []Customer
	for _, c := range m.customers {
		if c.CompanyID != companyID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Active != nil && c.IsActive != *filter.Active {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (m *memoryRepo) Update(_ context.Context, c *Customer) error {
	existing, ok := m.customers[c.ID]
	if !ok || existing.CompanyID != c.CompanyID {
		return ErrNotFound
	}
	cp := *c
	m.customers[c.ID] = &cp
	return nil
}

func TestCreateNormalizesCode(t *testing.T) {
	svc := NewService(newMemoryRepo())

	c, err := svc.Create(context.Background(), 1, 10, CreateCustomerRequest{Code: "  acme-01 ", Name: " Acme Repairs "})
	require.NoError(t, err)
	require.Equal(t, "ACME-01", c.Code)
	require.Equal(t, "Acme Repairs", c.Name)
	require.True(t, c.IsActive)
	require.Equal(t, int64(10), c.CreatedBy)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), 1, 10, CreateCustomerRequest{Code: "C-1", Name: "First"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 1, 10, CreateCustomerRequest{Code: "C-1", Name: "Second"})
	require.ErrorIs(t, err, ErrCodeTaken)
}

func TestDuplicateCodeAllowedAcrossCompanies(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), 1, 10, CreateCustomerRequest{Code: "C-1", Name: "First"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 2, 10, CreateCustomerRequest{Code: "C-1", Name: "Other tenant"})
	require.NoError(t, err)
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), 1, 10, CreateCustomerRequest{Code: "C-1", Name: "Before"})
	require.NoError(t, err)

	name := "After"
	inactive := false
	updated, err := svc.Update(context.Background(), 1, created.ID, UpdateCustomerRequest{Name: &name, IsActive: &inactive})
	require.NoError(t, err)
	require.Equal(t, "After", updated.Name)
	require.False(t, updated.IsActive)
	require.Equal(t, created.Code, updated.Code)
}

func TestGetScopedToCompany(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), 1, 10, CreateCustomerRequest{Code: "C-1", Name: "Tenant one"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 2, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListClampsLimit(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	_, _, err := svc.List(context.Background(), 1, ListFilter{Limit: 10_000})
	require.NoError(t, err)
}
