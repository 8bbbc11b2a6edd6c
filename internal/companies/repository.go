package companies

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Company, error)
	Update(ctx context.Context, c *Company) error
	Locations(ctx context.Context, companyID int64) ([]Location, error)
	GetLocation(ctx context.Context, companyID, id int64) (*Location, error)
	CreateLocation(ctx context.Context, l *Location) error
	SetLocationActive(ctx context.Context, companyID, id int64, active bool) error
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

func (r *PGRepository) Get(ctx context.Context, id int64) (*Company, error) {
	var c Company
	err := r.pool.QueryRow(ctx,
		"SELECT id, name, timezone, currency, created_at, updated_at FROM companies WHERE id = $1", id,
	).Scan(&c.ID, &c.Name, &c.Timezone, &c.Currency, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

func (r *PGRepository) Update(ctx context.Context, c *Company) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE companies SET name = $1, timezone = $2, currency = $3, updated_at = now() WHERE id = $4",
		c.Name, c.Timezone, c.Currency, c.ID)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) Locations(ctx context.Context, companyID int64) ([]Location, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, company_id, name, address, phone, is_active, created_at FROM locations WHERE company_id = $1 ORDER BY name",
		companyID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.CompanyID, &l.Name, &l.Address, &l.Phone, &l.IsActive, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PGRepository) GetLocation(ctx context.Context, companyID, id int64) (*Location, error) {
	var l Location
	err := r.pool.QueryRow(ctx,
		"SELECT id, company_id, name, address, phone, is_active, created_at FROM locations WHERE company_id = $1 AND id = $2",
		companyID, id,
	).Scan(&l.ID, &l.CompanyID, &l.Name, &l.Address, &l.Phone, &l.IsActive, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

func (r *PGRepository) CreateLocation(ctx context.Context, l *Location) error {
	err := r.pool.QueryRow(ctx,
		"INSERT INTO locations (company_id, name, address, phone, is_active) VALUES ($1, $2, $3, $4, true) RETURNING id, created_at",
		l.CompanyID, l.Name, l.Address, l.Phone,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	l.IsActive = true
	return nil
}

func (r *PGRepository) SetLocationActive(ctx context.Context, companyID, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE locations SET is_active = $1 WHERE company_id = $2 AND id = $3",
		active, companyID, id)
	if err != nil {
		return fmt.Errorf("set location active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLocationNotFound
	}
	return nil
}
