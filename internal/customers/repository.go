package customers

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("customer not found")
	ErrCodeTaken = errors.New("customer code already in use")
)

type Repository interface {
	Create(ctx context.Context, c *Customer) error
	Get(ctx context.Context, companyID, id int64) (*Customer, error)
	List(ctx context.Context, companyID int64, filter ListFilter) ([]Customer, int64, error)
	Update(ctx context.Context, c *Customer) error
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const customerColumns = "id, code, name, company_id, email, phone, address_line1, address_line2, city, postal_code, is_active, notes, created_by, created_at, updated_at"

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.CompanyID, &c.Email, &c.Phone,
		&c.AddressLine1, &c.AddressLine2, &c.City, &c.PostalCode, &c.IsActive,
		&c.Notes, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) Create(ctx context.Context, c *Customer) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO customers (code, name, company_id, email, phone, address_line1, address_line2, city, postal_code, is_active, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		c.Code, c.Name, c.CompanyID, c.Email, c.Phone, c.AddressLine1, c.AddressLine2,
		c.City, c.PostalCode, c.IsActive, c.Notes, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrCodeTaken
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *PGRepository) Get(ctx context.Context, companyID, id int64) (*Customer, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE company_id = $1 AND id = $2",
		companyID, id)
	c, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *PGRepository) List(ctx context.Context, companyID int64, filter ListFilter) ([]Customer, int64, error) {
	base := psql.Select(customerColumns).From("customers").
		Where(sq.Eq{"company_id": companyID})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		base = base.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"code": pattern},
			sq.ILike{"email": pattern},
		})
	}
	if filter.Active != nil {
		base = base.Where(sq.Eq{"is_active": *filter.Active})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("customers").
		Where(sq.Eq{"company_id": companyID}).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int64
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	query, args, err := base.OrderBy("name").
		Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset)).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	out := make([]Customer, 0, filter.Limit)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) Update(ctx context.Context, c *Customer) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, address_line1 = $4, address_line2 = $5,
		    city = $6, postal_code = $7, is_active = $8, notes = $9, updated_at = now()
		WHERE company_id = $10 AND id = $11`,
		c.Name, c.Email, c.Phone, c.AddressLine1, c.AddressLine2,
		c.City, c.PostalCode, c.IsActive, c.Notes, c.CompanyID, c.ID)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
